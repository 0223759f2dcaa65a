// Package service
package service

import (
	"time"

	"github.com/half-nothing/simple-wxguard/internal/interfaces/log"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/operation"
	. "github.com/half-nothing/simple-wxguard/internal/interfaces/service"
)

type NotificationService struct {
	logger                log.LoggerInterface
	notificationOperation operation.NotificationOperationInterface
	now                   func() time.Time
}

func NewNotificationService(
	logger log.LoggerInterface,
	notificationOperation operation.NotificationOperationInterface,
) *NotificationService {
	return &NotificationService{
		logger:                logger,
		notificationOperation: notificationOperation,
		now:                   func() time.Time { return time.Now().UTC() },
	}
}

var (
	SuccessGetNotifications = ApiStatus{StatusName: "GET_NOTIFICATIONS", Description: "成功获取通知", HttpCode: Ok}
	SuccessMarkRead         = ApiStatus{StatusName: "MARK_NOTIFICATION_READ", Description: "通知已标记为已读", HttpCode: Ok}
)

func (notificationService *NotificationService) GetNotifications(req *RequestGetNotifications) *ApiResponse[ResponseGetNotifications] {
	if res := checkPage(req.Page, req.PageSize); res != nil {
		return NewApiResponse[ResponseGetNotifications](res, Unsatisfied, nil)
	}
	notifications, total, err := notificationService.notificationOperation.GetNotifications(req.Uid, req.UnreadOnly, req.Page, req.PageSize)
	if err != nil {
		return NewApiResponse[ResponseGetNotifications](ErrorStatus(notificationService.logger, err), Unsatisfied, nil)
	}
	return NewApiResponse(&SuccessGetNotifications, Unsatisfied, &ResponseGetNotifications{
		Items:    notifications,
		Page:     req.Page,
		PageSize: req.PageSize,
		Total:    total,
	})
}

func (notificationService *NotificationService) MarkNotificationRead(req *RequestMarkNotificationRead) *ApiResponse[ResponseMarkNotificationRead] {
	if req.NotificationId == "" {
		return NewApiResponse[ResponseMarkNotificationRead](&ErrIllegalParam, Unsatisfied, nil)
	}
	err := notificationService.notificationOperation.MarkNotificationRead(req.Uid, req.NotificationId, notificationService.now())
	if err != nil {
		return NewApiResponse[ResponseMarkNotificationRead](ErrorStatus(notificationService.logger, err), Unsatisfied, nil)
	}
	data := ResponseMarkNotificationRead(true)
	return NewApiResponse(&SuccessMarkRead, Unsatisfied, &data)
}
