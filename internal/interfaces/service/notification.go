// Package service
package service

import "github.com/half-nothing/simple-wxguard/internal/interfaces/operation"

type NotificationServiceInterface interface {
	GetNotifications(req *RequestGetNotifications) *ApiResponse[ResponseGetNotifications]
	MarkNotificationRead(req *RequestMarkNotificationRead) *ApiResponse[ResponseMarkNotificationRead]
}

type RequestGetNotifications struct {
	JwtHeader
	Page       int  `query:"page_number"`
	PageSize   int  `query:"page_size"`
	UnreadOnly bool `query:"unread"`
}

type ResponseGetNotifications struct {
	Items    []*operation.Notification `json:"items"`
	Page     int                       `json:"page"`
	PageSize int                       `json:"page_size"`
	Total    int64                     `json:"total"`
}

type RequestMarkNotificationRead struct {
	JwtHeader
	NotificationId string `param:"id"`
}

type ResponseMarkNotificationRead bool
