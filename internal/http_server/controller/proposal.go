// Package controller
package controller

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/log"
	. "github.com/half-nothing/simple-wxguard/internal/interfaces/service"
	"github.com/labstack/echo/v4"
)

type ProposalControllerInterface interface {
	RespondToProposal(ctx echo.Context) error
	CancelBooking(ctx echo.Context) error
}

type ProposalController struct {
	logger          log.LoggerInterface
	proposalService ProposalServiceInterface
}

func NewProposalController(logger log.LoggerInterface, proposalService ProposalServiceInterface) *ProposalController {
	return &ProposalController{
		logger:          logger,
		proposalService: proposalService,
	}
}

func (controller *ProposalController) RespondToProposal(ctx echo.Context) error {
	data := &RequestRespondToProposal{}
	if err := ctx.Bind(data); err != nil {
		controller.logger.ErrorF("ProposalController.RespondToProposal bind error: %v", err)
		return NewErrorResponse(ctx, &ErrLackParam)
	}
	token := ctx.Get("user").(*jwt.Token)
	claim := token.Claims.(*Claims)
	data.Uid = claim.Uid
	data.Role = claim.Role
	data.Ip = ctx.RealIP()
	data.UserAgent = ctx.Request().UserAgent()
	return controller.proposalService.RespondToProposal(data).Response(ctx)
}

func (controller *ProposalController) CancelBooking(ctx echo.Context) error {
	data := &RequestCancelBooking{}
	if err := ctx.Bind(data); err != nil {
		controller.logger.ErrorF("ProposalController.CancelBooking bind error: %v", err)
		return NewErrorResponse(ctx, &ErrLackParam)
	}
	token := ctx.Get("user").(*jwt.Token)
	claim := token.Claims.(*Claims)
	data.Uid = claim.Uid
	data.Role = claim.Role
	data.Ip = ctx.RealIP()
	data.UserAgent = ctx.Request().UserAgent()
	return controller.proposalService.CancelBooking(data).Response(ctx)
}
