// Package database
package database

import (
	"context"
	"encoding/json"
	"time"

	. "github.com/half-nothing/simple-wxguard/internal/interfaces/operation"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AuditLogOperation struct {
	db           *gorm.DB
	queryTimeout time.Duration
}

func NewAuditLogOperation(db *gorm.DB, queryTimeout time.Duration) *AuditLogOperation {
	return &AuditLogOperation{db: db, queryTimeout: queryTimeout}
}

func (auditLogOperation *AuditLogOperation) NewAuditLog(eventType EventType, subject uint, object, ip, userAgent string, details any) (auditLog *AuditLog) {
	auditLog = &AuditLog{
		EventType: string(eventType),
		Subject:   subject,
		Object:    object,
		Ip:        ip,
		UserAgent: userAgent,
	}
	if details != nil {
		if data, err := json.Marshal(details); err == nil {
			auditLog.Details = datatypes.JSON(data)
		}
	}
	return
}

func (auditLogOperation *AuditLogOperation) GetAuditLogs(page, pageSize int) (auditLogs []*AuditLog, total int64, err error) {
	auditLogs = make([]*AuditLog, 0, pageSize)
	ctx, cancel := context.WithTimeout(context.Background(), auditLogOperation.queryTimeout)
	defer cancel()
	if err = auditLogOperation.db.WithContext(ctx).Model(&AuditLog{}).Count(&total).Error; err != nil {
		return
	}
	err = auditLogOperation.db.WithContext(ctx).Offset((page - 1) * pageSize).Order("created_at desc, id desc").Limit(pageSize).Find(&auditLogs).Error
	return
}

func (auditLogOperation *AuditLogOperation) SaveAuditLog(auditLog *AuditLog) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), auditLogOperation.queryTimeout)
	defer cancel()
	return auditLogOperation.db.WithContext(ctx).Create(auditLog).Error
}
