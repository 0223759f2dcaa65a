// Package service
package service

import (
	"github.com/half-nothing/simple-wxguard/internal/interfaces/log"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/operation"
	. "github.com/half-nothing/simple-wxguard/internal/interfaces/service"
)

type AuditLogService struct {
	logger         log.LoggerInterface
	auditOperation operation.AuditLogOperationInterface
}

func NewAuditService(
	logger log.LoggerInterface,
	auditOperation operation.AuditLogOperationInterface,
) *AuditLogService {
	return &AuditLogService{
		logger:         logger,
		auditOperation: auditOperation,
	}
}

var SuccessGetAuditLog = ApiStatus{StatusName: "GET_AUDIT_LOG", Description: "成功获取审计日志", HttpCode: Ok}

func (auditLogService *AuditLogService) GetAuditLogPage(req *RequestGetAuditLog) *ApiResponse[ResponseGetAuditLog] {
	if res := checkPage(req.Page, req.PageSize); res != nil {
		return NewApiResponse[ResponseGetAuditLog](res, Unsatisfied, nil)
	}
	if !req.IsAdmin() {
		return NewApiResponse[ResponseGetAuditLog](&ErrNoPermission, Unsatisfied, nil)
	}
	auditLogs, total, err := auditLogService.auditOperation.GetAuditLogs(req.Page, req.PageSize)
	if err != nil {
		auditLogService.logger.ErrorF("AuditLogService.GetAuditLogPage fail: %v", err)
		return NewApiResponse[ResponseGetAuditLog](&ErrDatabaseFail, Unsatisfied, nil)
	}
	return NewApiResponse(&SuccessGetAuditLog, Unsatisfied, &ResponseGetAuditLog{
		Items:    auditLogs,
		Page:     req.Page,
		PageSize: req.PageSize,
		Total:    total,
	})
}
