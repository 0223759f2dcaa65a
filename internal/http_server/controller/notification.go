// Package controller
package controller

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/log"
	. "github.com/half-nothing/simple-wxguard/internal/interfaces/service"
	"github.com/labstack/echo/v4"
)

type NotificationControllerInterface interface {
	GetNotifications(ctx echo.Context) error
	MarkNotificationRead(ctx echo.Context) error
}

type NotificationController struct {
	logger              log.LoggerInterface
	notificationService NotificationServiceInterface
}

func NewNotificationController(logger log.LoggerInterface, notificationService NotificationServiceInterface) *NotificationController {
	return &NotificationController{
		logger:              logger,
		notificationService: notificationService,
	}
}

func (controller *NotificationController) GetNotifications(ctx echo.Context) error {
	data := &RequestGetNotifications{}
	if err := ctx.Bind(data); err != nil {
		controller.logger.ErrorF("NotificationController.GetNotifications bind error: %v", err)
		return NewErrorResponse(ctx, &ErrLackParam)
	}
	token := ctx.Get("user").(*jwt.Token)
	claim := token.Claims.(*Claims)
	data.Uid = claim.Uid
	data.Role = claim.Role
	return controller.notificationService.GetNotifications(data).Response(ctx)
}

func (controller *NotificationController) MarkNotificationRead(ctx echo.Context) error {
	data := &RequestMarkNotificationRead{}
	if err := ctx.Bind(data); err != nil {
		controller.logger.ErrorF("NotificationController.MarkNotificationRead bind error: %v", err)
		return NewErrorResponse(ctx, &ErrLackParam)
	}
	token := ctx.Get("user").(*jwt.Token)
	claim := token.Claims.(*Claims)
	data.Uid = claim.Uid
	data.Role = claim.Role
	return controller.notificationService.MarkNotificationRead(data).Response(ctx)
}
