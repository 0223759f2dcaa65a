// Package service
package service

import (
	"context"
	"strconv"

	"github.com/half-nothing/simple-wxguard/internal/interfaces/log"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/operation"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/pipeline"
	. "github.com/half-nothing/simple-wxguard/internal/interfaces/service"
)

type ProposalService struct {
	logger            log.LoggerInterface
	acceptance        pipeline.AcceptanceInterface
	auditLogOperation operation.AuditLogOperationInterface
}

func NewProposalService(
	logger log.LoggerInterface,
	acceptance pipeline.AcceptanceInterface,
	auditLogOperation operation.AuditLogOperationInterface,
) *ProposalService {
	return &ProposalService{
		logger:            logger,
		acceptance:        acceptance,
		auditLogOperation: auditLogOperation,
	}
}

var (
	SuccessRespondProposal = ApiStatus{StatusName: "PROPOSAL_RESPONDED", Description: "已记录对改期方案的回复", HttpCode: Ok}
	SuccessRescheduled     = ApiStatus{StatusName: "BOOKING_RESCHEDULED", Description: "预约已改期", HttpCode: Ok}
	SuccessCancelBooking   = ApiStatus{StatusName: "BOOKING_CANCELLED", Description: "预约已取消", HttpCode: Ok}
)

func (proposalService *ProposalService) audit(eventType operation.EventType, header *JwtHeader, content *EchoContentHeader, object uint, details any) {
	auditLog := proposalService.auditLogOperation.NewAuditLog(
		eventType,
		header.Uid,
		strconv.Itoa(int(object)),
		content.Ip,
		content.UserAgent,
		details,
	)
	if err := proposalService.auditLogOperation.SaveAuditLog(auditLog); err != nil {
		proposalService.logger.ErrorF("ProposalService save audit log %s error: %v", eventType, err)
	}
}

func (proposalService *ProposalService) RespondToProposal(req *RequestRespondToProposal) *ApiResponse[ResponseRespondToProposal] {
	if req.ProposalId == 0 {
		return NewApiResponse[ResponseRespondToProposal](&ErrIllegalParam, Unsatisfied, nil)
	}
	if req.Decision != operation.ResponseAccepted && req.Decision != operation.ResponseRejected {
		return NewApiResponse[ResponseRespondToProposal](&ErrIllegalParam, Unsatisfied, nil)
	}

	proposal, rescheduled, err := proposalService.acceptance.RespondToProposal(context.Background(), req.ProposalId, req.Uid, req.Decision)
	if err != nil {
		return NewApiResponse[ResponseRespondToProposal](ErrorStatus(proposalService.logger, err), Unsatisfied, nil)
	}

	proposalService.audit(operation.AuditEventProposalResponded, &req.JwtHeader, &req.EchoContentHeader, proposal.ID,
		map[string]string{"decision": req.Decision})

	status := &SuccessRespondProposal
	if rescheduled {
		status = &SuccessRescheduled
		proposalService.audit(operation.AuditEventBookingRescheduled, &req.JwtHeader, &req.EchoContentHeader, proposal.Conflict.BookingId,
			map[string]any{"proposal_id": proposal.ID, "new_start": proposal.ProposedStart, "new_end": proposal.ProposedEnd})
	}
	return NewApiResponse(status, Unsatisfied, &ResponseRespondToProposal{
		Proposal:    proposal,
		Rescheduled: rescheduled,
	})
}

func (proposalService *ProposalService) CancelBooking(req *RequestCancelBooking) *ApiResponse[ResponseCancelBooking] {
	if req.BookingId == 0 {
		return NewApiResponse[ResponseCancelBooking](&ErrIllegalParam, Unsatisfied, nil)
	}
	conflict, err := proposalService.acceptance.CancelBooking(context.Background(), req.BookingId, req.Uid)
	if err != nil {
		return NewApiResponse[ResponseCancelBooking](ErrorStatus(proposalService.logger, err), Unsatisfied, nil)
	}

	details := map[string]any{}
	if conflict != nil {
		details["conflict_id"] = conflict.ID
	}
	proposalService.audit(operation.AuditEventBookingCancelled, &req.JwtHeader, &req.EchoContentHeader, req.BookingId, details)

	return NewApiResponse(&SuccessCancelBooking, Unsatisfied, &ResponseCancelBooking{
		BookingId: req.BookingId,
		Conflict:  conflict,
	})
}
