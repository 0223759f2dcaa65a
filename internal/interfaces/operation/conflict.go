// Package operation
package operation

import (
	"errors"
	"time"
)

var (
	// ErrConflictNotFound 天气冲突不存在
	ErrConflictNotFound = errors.New("weather conflict does not exist")
	// ErrConflictExists 预约已经存在未解决的天气冲突
	ErrConflictExists = errors.New("booking already has an open weather conflict")
	// ErrConflictResolved 天气冲突不处于等待回复状态
	ErrConflictResolved = errors.New("weather conflict is not awaiting responses")
)

// ConflictOperationInterface 天气冲突操作接口定义
type ConflictOperationInterface interface {
	// GetConflictById 通过主键ID获取冲突, 同时加载预约与按排名排序的改期方案, 当err为nil时返回值conflict有效
	GetConflictById(id uint) (conflict *WeatherConflict, err error)
	// GetOpenConflictByBooking 获取预约当前未解决的冲突, 不存在时返回 ErrConflictNotFound
	GetOpenConflictByBooking(bookingId uint) (conflict *WeatherConflict, err error)
	// GetLatestConflictByBooking 获取预约最近一次检测到的冲突, 无论是否已解决, 不存在时返回 ErrConflictNotFound
	GetLatestConflictByBooking(bookingId uint) (conflict *WeatherConflict, err error)
	// CreateConflictAndHold 在同一事务中创建冲突并将预约由scheduled转为weather_hold,
	// 预约已有未解决冲突时返回 ErrConflictExists
	CreateConflictAndHold(conflict *WeatherConflict, booking *Booking) (err error)
	// MarkProcessing 尝试认领冲突进行方案排序, 仅当冲突为detected或处理开始时间早于staleBefore时成功, claimed为true表示认领成功
	MarkProcessing(conflict *WeatherConflict, now, staleBefore time.Time) (claimed bool, err error)
	// SaveProposals 在同一事务中写入改期方案并将冲突转为proposals_ready, 已有方案时不会重复写入
	SaveProposals(conflict *WeatherConflict, proposals []*RescheduleProposal, now time.Time) (err error)
	// ResolveConflict 以method解决冲突, 冲突已解决时返回 ErrConflictResolved
	ResolveConflict(conflict *WeatherConflict, method string, now time.Time) (err error)
	// CancelHeldBooking 在同一事务中取消处于weather_hold的预约并以cancelled解决冲突
	CancelHeldBooking(conflict *WeatherConflict, now time.Time) (err error)
	// GetStaleConflicts 获取在before之前进入detected或ai_processing且仍未推进的冲突
	GetStaleConflicts(before time.Time) (conflicts []*WeatherConflict, err error)
}
