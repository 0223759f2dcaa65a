// Package database
package database

import (
	"context"
	"time"

	. "github.com/half-nothing/simple-wxguard/internal/interfaces/operation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NotificationOperation struct {
	db           *gorm.DB
	queryTimeout time.Duration
}

func NewNotificationOperation(db *gorm.DB, queryTimeout time.Duration) *NotificationOperation {
	return &NotificationOperation{db: db, queryTimeout: queryTimeout}
}

func (notificationOperation *NotificationOperation) InsertNotification(notification *Notification) (created bool, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), notificationOperation.queryTimeout)
	defer cancel()
	result := notificationOperation.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(notification)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (notificationOperation *NotificationOperation) NotificationExists(id string) (exists bool, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), notificationOperation.queryTimeout)
	defer cancel()
	var count int64
	err = notificationOperation.db.WithContext(ctx).Model(&Notification{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (notificationOperation *NotificationOperation) GetNotifications(userId uint, unreadOnly bool, page, pageSize int) (notifications []*Notification, total int64, err error) {
	notifications = make([]*Notification, 0, pageSize)
	ctx, cancel := context.WithTimeout(context.Background(), notificationOperation.queryTimeout)
	defer cancel()
	query := notificationOperation.db.WithContext(ctx).Model(&Notification{}).Where("user_id = ?", userId)
	if unreadOnly {
		query = query.Where("read_at IS NULL")
	}
	if err = query.Count(&total).Error; err != nil {
		return
	}
	err = query.Order("created_at desc").Offset((page - 1) * pageSize).Limit(pageSize).Find(&notifications).Error
	return
}

func (notificationOperation *NotificationOperation) MarkNotificationRead(userId uint, id string, now time.Time) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), notificationOperation.queryTimeout)
	defer cancel()
	result := notificationOperation.db.WithContext(ctx).
		Model(&Notification{}).
		Where("id = ? AND user_id = ?", id, userId).
		Update("read_at", gorm.Expr("COALESCE(read_at, ?)", now))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	// mysql reports zero affected rows when read_at was already set
	var count int64
	if err = notificationOperation.db.WithContext(ctx).Model(&Notification{}).
		Where("id = ? AND user_id = ?", id, userId).
		Count(&count).Error; err != nil {
		return
	}
	if count == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
