// Package service
package service

import "github.com/half-nothing/simple-wxguard/internal/interfaces/operation"

type ProposalServiceInterface interface {
	RespondToProposal(req *RequestRespondToProposal) *ApiResponse[ResponseRespondToProposal]
	CancelBooking(req *RequestCancelBooking) *ApiResponse[ResponseCancelBooking]
}

type RequestRespondToProposal struct {
	JwtHeader
	EchoContentHeader
	ProposalId uint   `param:"id"`
	Decision   string `json:"decision"`
}

type ResponseRespondToProposal struct {
	Proposal    *operation.RescheduleProposal `json:"proposal"`
	Rescheduled bool                          `json:"rescheduled"`
}

type RequestCancelBooking struct {
	JwtHeader
	EchoContentHeader
	BookingId uint `param:"id"`
}

type ResponseCancelBooking struct {
	BookingId uint                       `json:"booking_id"`
	Conflict  *operation.WeatherConflict `json:"conflict"`
}
