// Package service
package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	c "github.com/half-nothing/simple-wxguard/internal/interfaces/config"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/dispatch"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/log"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/operation"
	"github.com/labstack/echo/v4"
)

type HttpCode int

const (
	Unsatisfied         HttpCode = 0
	Ok                  HttpCode = 200
	Accepted            HttpCode = 202
	BadRequest          HttpCode = 400
	Unauthorized        HttpCode = 401
	PermissionDenied    HttpCode = 403
	NotFound            HttpCode = 404
	Conflict            HttpCode = 409
	TooManyRequests     HttpCode = 429
	ServerInternalError HttpCode = 500
	ServiceUnavailable  HttpCode = 503
)

func (hc HttpCode) Code() int {
	return int(hc)
}

type ApiStatus struct {
	StatusName  string
	Description string
	HttpCode    HttpCode
}

type ApiResponse[T any] struct {
	HttpCode int    `json:"-"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Data     *T     `json:"data"`
}

// Claims are issued by the school portal, wxguard only verifies them
type Claims struct {
	Uid  uint   `json:"uid"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type JwtHeader struct {
	Uid  uint
	Role string
}

func (header *JwtHeader) IsAdmin() bool {
	return header.Role == operation.RoleAdmin
}

type EchoContentHeader struct {
	Ip        string
	UserAgent string
}

func NewClaims(config *c.JWTConfig, user *operation.User, expires time.Duration) *Claims {
	now := time.Now()
	return &Claims{
		Uid:  user.ID,
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    config.Issuer,
			Subject:   user.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expires)),
		},
	}
}

func (claim *Claims) GenerateKey(secret string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claim)
	tokenString, _ := token.SignedString([]byte(secret))
	return tokenString
}

func (res *ApiResponse[T]) Response(ctx echo.Context) error {
	return ctx.JSON(res.HttpCode, res)
}

var (
	ErrIllegalParam          = ApiStatus{"PARAM_ERROR", "参数不正确", BadRequest}
	ErrLackParam             = ApiStatus{"PARAM_LACK_ERROR", "缺少参数", BadRequest}
	ErrNoPermission          = ApiStatus{"NO_PERMISSION", "无权这么做", PermissionDenied}
	ErrDatabaseFail          = ApiStatus{"DATABASE_ERROR", "服务器内部错误", ServerInternalError}
	ErrBookingNotFound       = ApiStatus{"BOOKING_NOT_FOUND", "预约不存在", NotFound}
	ErrConflictNotFound      = ApiStatus{"CONFLICT_NOT_FOUND", "天气冲突不存在", NotFound}
	ErrProposalNotFound      = ApiStatus{"PROPOSAL_NOT_FOUND", "改期方案不存在", NotFound}
	ErrNotificationNotFound  = ApiStatus{"NOTIFICATION_NOT_FOUND", "通知不存在", NotFound}
	ErrNotParticipant        = ApiStatus{"NOT_PARTICIPANT", "你不是该预约的学员或教员", PermissionDenied}
	ErrAlreadyResponded      = ApiStatus{"ALREADY_RESPONDED", "已经回复过该改期方案", Conflict}
	ErrConflictResolved      = ApiStatus{"CONFLICT_RESOLVED", "天气冲突已解决", Conflict}
	ErrInvalidTransition     = ApiStatus{"INVALID_TRANSITION", "当前状态不允许该操作", Conflict}
	ErrSlotTaken             = ApiStatus{"SLOT_TAKEN", "该时段已被其他预约占用", Conflict}
	ErrDispatchFail          = ApiStatus{"DISPATCH_ERROR", "任务投递失败", ServiceUnavailable}
	ErrRateLimited           = ApiStatus{"RATE_LIMIT_EXCEEDED", "请求次数过多, 请稍后再试", TooManyRequests}
	ErrMissingOrMalformedJwt = ApiStatus{"MISSING_OR_MALFORMED_JWT", "缺少JWT令牌或者令牌格式错误", BadRequest}
	ErrInvalidOrExpiredJwt   = ApiStatus{"INVALID_OR_EXPIRED_JWT", "无效或过期的JWT令牌", Unauthorized}
	ErrUnknown               = ApiStatus{"UNKNOWN_JWT_ERROR", "未知的JWT解析错误", ServerInternalError}
)

func NewErrorResponse(ctx echo.Context, codeStatus *ApiStatus) error {
	return NewApiResponse[any](codeStatus, Unsatisfied, nil).Response(ctx)
}

func NewApiResponse[T any](codeStatus *ApiStatus, httpCode HttpCode, data *T) *ApiResponse[T] {
	if httpCode == Unsatisfied {
		httpCode = codeStatus.HttpCode
	}
	if httpCode == Unsatisfied {
		httpCode = Ok
	}
	return &ApiResponse[T]{
		HttpCode: httpCode.Code(),
		Code:     codeStatus.StatusName,
		Message:  codeStatus.Description,
		Data:     data,
	}
}

// ErrorStatus 将领域错误映射为接口状态, 未知错误视为数据库错误
func ErrorStatus(logger log.LoggerInterface, err error) *ApiStatus {
	switch {
	case errors.Is(err, operation.ErrBookingNotFound):
		return &ErrBookingNotFound
	case errors.Is(err, operation.ErrConflictNotFound):
		return &ErrConflictNotFound
	case errors.Is(err, operation.ErrProposalNotFound):
		return &ErrProposalNotFound
	case errors.Is(err, operation.ErrNotificationNotFound):
		return &ErrNotificationNotFound
	case errors.Is(err, operation.ErrNotParticipant):
		return &ErrNotParticipant
	case errors.Is(err, operation.ErrAlreadyResponded):
		return &ErrAlreadyResponded
	case errors.Is(err, operation.ErrConflictResolved):
		return &ErrConflictResolved
	case errors.Is(err, operation.ErrInvalidTransition):
		return &ErrInvalidTransition
	case errors.Is(err, operation.ErrSlotTaken):
		return &ErrSlotTaken
	case errors.Is(err, dispatch.ErrQueueFull), errors.Is(err, dispatch.ErrDispatcherClosed):
		return &ErrDispatchFail
	default:
		logger.ErrorF("Error in DB function: %v", err)
		return &ErrDatabaseFail
	}
}

// CallDBFuncAndCheckError 调用数据库操作函数并处理错误
func CallDBFuncAndCheckError[R any, T any](logger log.LoggerInterface, fc func() (*R, error)) (*R, *ApiResponse[T]) {
	result, err := fc()
	if err != nil {
		return nil, NewApiResponse[T](ErrorStatus(logger, err), Unsatisfied, nil)
	}
	return result, nil
}
