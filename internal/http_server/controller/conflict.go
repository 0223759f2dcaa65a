// Package controller
package controller

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/log"
	. "github.com/half-nothing/simple-wxguard/internal/interfaces/service"
	"github.com/labstack/echo/v4"
)

type ConflictControllerInterface interface {
	RunDetection(ctx echo.Context) error
	GetConflict(ctx echo.Context) error
	GetBookingConflict(ctx echo.Context) error
	GetStaleConflicts(ctx echo.Context) error
	RedriveConflict(ctx echo.Context) error
}

type ConflictController struct {
	logger          log.LoggerInterface
	conflictService ConflictServiceInterface
}

func NewConflictController(logger log.LoggerInterface, conflictService ConflictServiceInterface) *ConflictController {
	return &ConflictController{
		logger:          logger,
		conflictService: conflictService,
	}
}

func (controller *ConflictController) RunDetection(ctx echo.Context) error {
	data := &RequestRunDetection{}
	token := ctx.Get("user").(*jwt.Token)
	claim := token.Claims.(*Claims)
	data.Uid = claim.Uid
	data.Role = claim.Role
	data.Ip = ctx.RealIP()
	data.UserAgent = ctx.Request().UserAgent()
	return controller.conflictService.RunDetection(data).Response(ctx)
}

func (controller *ConflictController) GetConflict(ctx echo.Context) error {
	data := &RequestGetConflict{}
	if err := ctx.Bind(data); err != nil {
		controller.logger.ErrorF("ConflictController.GetConflict bind error: %v", err)
		return NewErrorResponse(ctx, &ErrLackParam)
	}
	token := ctx.Get("user").(*jwt.Token)
	claim := token.Claims.(*Claims)
	data.Uid = claim.Uid
	data.Role = claim.Role
	return controller.conflictService.GetConflict(data).Response(ctx)
}

func (controller *ConflictController) GetBookingConflict(ctx echo.Context) error {
	data := &RequestGetBookingConflict{}
	if err := ctx.Bind(data); err != nil {
		controller.logger.ErrorF("ConflictController.GetBookingConflict bind error: %v", err)
		return NewErrorResponse(ctx, &ErrLackParam)
	}
	token := ctx.Get("user").(*jwt.Token)
	claim := token.Claims.(*Claims)
	data.Uid = claim.Uid
	data.Role = claim.Role
	return controller.conflictService.GetBookingConflict(data).Response(ctx)
}

func (controller *ConflictController) GetStaleConflicts(ctx echo.Context) error {
	data := &RequestGetStaleConflicts{}
	token := ctx.Get("user").(*jwt.Token)
	claim := token.Claims.(*Claims)
	data.Uid = claim.Uid
	data.Role = claim.Role
	return controller.conflictService.GetStaleConflicts(data).Response(ctx)
}

func (controller *ConflictController) RedriveConflict(ctx echo.Context) error {
	data := &RequestRedriveConflict{}
	if err := ctx.Bind(data); err != nil {
		controller.logger.ErrorF("ConflictController.RedriveConflict bind error: %v", err)
		return NewErrorResponse(ctx, &ErrLackParam)
	}
	token := ctx.Get("user").(*jwt.Token)
	claim := token.Claims.(*Claims)
	data.Uid = claim.Uid
	data.Role = claim.Role
	data.Ip = ctx.RealIP()
	data.UserAgent = ctx.Request().UserAgent()
	return controller.conflictService.RedriveConflict(data).Response(ctx)
}
