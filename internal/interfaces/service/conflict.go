// Package service
package service

import (
	"github.com/half-nothing/simple-wxguard/internal/interfaces/operation"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/pipeline"
)

type ConflictServiceInterface interface {
	RunDetection(req *RequestRunDetection) *ApiResponse[ResponseRunDetection]
	GetConflict(req *RequestGetConflict) *ApiResponse[ResponseGetConflict]
	GetBookingConflict(req *RequestGetBookingConflict) *ApiResponse[ResponseGetConflict]
	GetStaleConflicts(req *RequestGetStaleConflicts) *ApiResponse[ResponseGetStaleConflicts]
	RedriveConflict(req *RequestRedriveConflict) *ApiResponse[ResponseGetConflict]
}

type RequestRunDetection struct {
	JwtHeader
	EchoContentHeader
}

type ResponseRunDetection pipeline.DetectionReport

type RequestGetConflict struct {
	JwtHeader
	ConflictId uint `param:"id"`
}

type ResponseGetConflict operation.WeatherConflict

type RequestGetBookingConflict struct {
	JwtHeader
	BookingId uint `param:"id"`
}

type RequestGetStaleConflicts struct {
	JwtHeader
}

type ResponseGetStaleConflicts struct {
	Items []*operation.WeatherConflict `json:"items"`
}

type RequestRedriveConflict struct {
	JwtHeader
	EchoContentHeader
	ConflictId uint `param:"id"`
}
