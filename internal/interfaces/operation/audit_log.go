// Package operation
package operation

type AuditLogOperationInterface interface {
	NewAuditLog(eventType EventType, subject uint, object, ip, userAgent string, details any) (auditLog *AuditLog)
	SaveAuditLog(auditLog *AuditLog) (err error)
	GetAuditLogs(page, pageSize int) (auditLogs []*AuditLog, total int64, err error)
}
