// Package service
package service

import (
	"context"
	"strconv"
	"time"

	"github.com/half-nothing/simple-wxguard/internal/interfaces/log"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/operation"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/pipeline"
	. "github.com/half-nothing/simple-wxguard/internal/interfaces/service"
)

type ConflictService struct {
	logger            log.LoggerInterface
	detector          pipeline.DetectorInterface
	staleness         pipeline.StalenessInterface
	bookingOperation  operation.BookingOperationInterface
	conflictOperation operation.ConflictOperationInterface
	auditLogOperation operation.AuditLogOperationInterface
	now               func() time.Time
}

func NewConflictService(
	logger log.LoggerInterface,
	detector pipeline.DetectorInterface,
	staleness pipeline.StalenessInterface,
	bookingOperation operation.BookingOperationInterface,
	conflictOperation operation.ConflictOperationInterface,
	auditLogOperation operation.AuditLogOperationInterface,
) *ConflictService {
	return &ConflictService{
		logger:            logger,
		detector:          detector,
		staleness:         staleness,
		bookingOperation:  bookingOperation,
		conflictOperation: conflictOperation,
		auditLogOperation: auditLogOperation,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

var (
	SuccessRunDetection      = ApiStatus{StatusName: "DETECTION_FINISHED", Description: "天气冲突检测完成", HttpCode: Ok}
	SuccessGetConflict       = ApiStatus{StatusName: "GET_CONFLICT", Description: "成功获取天气冲突", HttpCode: Ok}
	SuccessGetStaleConflicts = ApiStatus{StatusName: "GET_STALE_CONFLICTS", Description: "成功获取停滞的天气冲突", HttpCode: Ok}
	SuccessRedriveConflict   = ApiStatus{StatusName: "CONFLICT_REDRIVEN", Description: "天气冲突已重新投递", HttpCode: Accepted}
)

func canView(header *JwtHeader, booking *operation.Booking) bool {
	if header.IsAdmin() {
		return true
	}
	return booking != nil && (booking.StudentId == header.Uid || booking.InstructorId == header.Uid)
}

func (conflictService *ConflictService) audit(eventType operation.EventType, header *JwtHeader, content *EchoContentHeader, object string, details any) {
	auditLog := conflictService.auditLogOperation.NewAuditLog(eventType, header.Uid, object, content.Ip, content.UserAgent, details)
	if err := conflictService.auditLogOperation.SaveAuditLog(auditLog); err != nil {
		conflictService.logger.ErrorF("ConflictService save audit log %s error: %v", eventType, err)
	}
}

func (conflictService *ConflictService) RunDetection(req *RequestRunDetection) *ApiResponse[ResponseRunDetection] {
	if !req.IsAdmin() {
		return NewApiResponse[ResponseRunDetection](&ErrNoPermission, Unsatisfied, nil)
	}
	report, err := conflictService.detector.RunDetectionPass(context.Background(), conflictService.now())
	if err != nil {
		return NewApiResponse[ResponseRunDetection](ErrorStatus(conflictService.logger, err), Unsatisfied, nil)
	}

	conflictService.audit(operation.AuditEventDetectionTriggered, &req.JwtHeader, &req.EchoContentHeader, "detection",
		map[string]int{"checked": report.Checked, "created": len(report.Created), "failed": len(report.Failed)})

	data := ResponseRunDetection(*report)
	return NewApiResponse(&SuccessRunDetection, Unsatisfied, &data)
}

func (conflictService *ConflictService) GetConflict(req *RequestGetConflict) *ApiResponse[ResponseGetConflict] {
	if req.ConflictId == 0 {
		return NewApiResponse[ResponseGetConflict](&ErrIllegalParam, Unsatisfied, nil)
	}
	conflict, res := CallDBFuncAndCheckError[operation.WeatherConflict, ResponseGetConflict](conflictService.logger, func() (*operation.WeatherConflict, error) {
		return conflictService.conflictOperation.GetConflictById(req.ConflictId)
	})
	if res != nil {
		return res
	}
	if !canView(&req.JwtHeader, conflict.Booking) {
		return NewApiResponse[ResponseGetConflict](&ErrNoPermission, Unsatisfied, nil)
	}
	data := ResponseGetConflict(*conflict)
	return NewApiResponse(&SuccessGetConflict, Unsatisfied, &data)
}

func (conflictService *ConflictService) GetBookingConflict(req *RequestGetBookingConflict) *ApiResponse[ResponseGetConflict] {
	if req.BookingId == 0 {
		return NewApiResponse[ResponseGetConflict](&ErrIllegalParam, Unsatisfied, nil)
	}
	booking, res := CallDBFuncAndCheckError[operation.Booking, ResponseGetConflict](conflictService.logger, func() (*operation.Booking, error) {
		return conflictService.bookingOperation.GetBookingById(req.BookingId)
	})
	if res != nil {
		return res
	}
	if !canView(&req.JwtHeader, booking) {
		return NewApiResponse[ResponseGetConflict](&ErrNoPermission, Unsatisfied, nil)
	}
	// the open conflict is always the latest one, resolved episodes stay readable
	latest, res := CallDBFuncAndCheckError[operation.WeatherConflict, ResponseGetConflict](conflictService.logger, func() (*operation.WeatherConflict, error) {
		return conflictService.conflictOperation.GetLatestConflictByBooking(booking.ID)
	})
	if res != nil {
		return res
	}
	// reload with proposals
	conflict, res := CallDBFuncAndCheckError[operation.WeatherConflict, ResponseGetConflict](conflictService.logger, func() (*operation.WeatherConflict, error) {
		return conflictService.conflictOperation.GetConflictById(latest.ID)
	})
	if res != nil {
		return res
	}
	data := ResponseGetConflict(*conflict)
	return NewApiResponse(&SuccessGetConflict, Unsatisfied, &data)
}

func (conflictService *ConflictService) GetStaleConflicts(req *RequestGetStaleConflicts) *ApiResponse[ResponseGetStaleConflicts] {
	if !req.IsAdmin() {
		return NewApiResponse[ResponseGetStaleConflicts](&ErrNoPermission, Unsatisfied, nil)
	}
	conflicts, err := conflictService.staleness.FindStaleConflicts(conflictService.now())
	if err != nil {
		return NewApiResponse[ResponseGetStaleConflicts](ErrorStatus(conflictService.logger, err), Unsatisfied, nil)
	}
	return NewApiResponse(&SuccessGetStaleConflicts, Unsatisfied, &ResponseGetStaleConflicts{Items: conflicts})
}

func (conflictService *ConflictService) RedriveConflict(req *RequestRedriveConflict) *ApiResponse[ResponseGetConflict] {
	if req.ConflictId == 0 {
		return NewApiResponse[ResponseGetConflict](&ErrIllegalParam, Unsatisfied, nil)
	}
	if !req.IsAdmin() {
		return NewApiResponse[ResponseGetConflict](&ErrNoPermission, Unsatisfied, nil)
	}
	conflict, err := conflictService.staleness.Redrive(context.Background(), req.ConflictId)
	if err != nil {
		return NewApiResponse[ResponseGetConflict](ErrorStatus(conflictService.logger, err), Unsatisfied, nil)
	}

	conflictService.audit(operation.AuditEventConflictRedriven, &req.JwtHeader, &req.EchoContentHeader, strconv.Itoa(int(conflict.ID)),
		map[string]string{"status": conflict.Status})

	data := ResponseGetConflict(*conflict)
	return NewApiResponse(&SuccessRedriveConflict, Unsatisfied, &data)
}
