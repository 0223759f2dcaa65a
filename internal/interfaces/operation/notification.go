// Package operation
package operation

import (
	"errors"
	"time"
)

var (
	// ErrNotificationNotFound 通知不存在
	ErrNotificationNotFound = errors.New("notification does not exist")
)

// NotificationOperationInterface 站内通知操作接口定义
type NotificationOperationInterface interface {
	// InsertNotification 写入通知, 主键已存在时不做任何修改, created为true表示本次新写入
	InsertNotification(notification *Notification) (created bool, err error)
	// NotificationExists 判断通知是否已经写入
	NotificationExists(id string) (exists bool, err error)
	// GetNotifications 获取用户的分页通知, total表示数据总数目
	GetNotifications(userId uint, unreadOnly bool, page, pageSize int) (notifications []*Notification, total int64, err error)
	// MarkNotificationRead 将用户的通知标记为已读, 通知不存在或不属于该用户时返回 ErrNotificationNotFound
	MarkNotificationRead(userId uint, id string, now time.Time) (err error)
}
