// Package operation
package operation

import (
	"errors"
	"time"
)

var (
	// ErrProposalNotFound 改期方案不存在
	ErrProposalNotFound = errors.New("reschedule proposal does not exist")
	// ErrAlreadyResponded 该参与方已经回复过此方案
	ErrAlreadyResponded = errors.New("proposal already responded")
	// ErrNotParticipant 用户不是预约的学员或教员
	ErrNotParticipant = errors.New("user is not a participant of this booking")
	// ErrSlotTaken 方案时段已被其他预约占用, 本次回复不会被记录
	ErrSlotTaken = errors.New("proposed slot is no longer free")
)

// ProposalOperationInterface 改期方案操作接口定义
type ProposalOperationInterface interface {
	// GetProposalById 通过主键ID获取方案, 同时加载所属冲突及其预约, 当err为nil时返回值proposal有效
	GetProposalById(id uint) (proposal *RescheduleProposal, err error)
	// GetProposalsByConflict 获取冲突的全部方案, 按排名升序
	GetProposalsByConflict(conflictId uint) (proposals []*RescheduleProposal, err error)
	// RespondToProposal 在同一事务中记录role一方的回复, 回复只能写入一次;
	// 回复为accepted时同时将预约改期到方案时间并以rescheduled解决冲突, rescheduled为true表示预约已改期
	RespondToProposal(proposal *RescheduleProposal, role, decision string, now time.Time) (rescheduled bool, err error)
}
