// Package pipeline wires the stages of a weather conflict together: ranking,
// notification, proposal responses and re-drive of stuck conflicts
package pipeline

import (
	"context"
	"time"

	"github.com/half-nothing/simple-wxguard/internal/interfaces/dispatch"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/log"
	. "github.com/half-nothing/simple-wxguard/internal/interfaces/operation"
	pi "github.com/half-nothing/simple-wxguard/internal/interfaces/pipeline"
)

// SlotFinderInterface 候选时段查找
type SlotFinderInterface interface {
	FindCandidateSlots(booking *Booking, horizonDays int) (slots []pi.CandidateSlot, err error)
}

// RankerInterface 候选时段排序并写入改期方案
type RankerInterface interface {
	RankAndPersist(ctx context.Context, conflict *WeatherConflict, candidates []pi.CandidateSlot) (proposals []*RescheduleProposal, err error)
}

// NotifierInterface 按冲突状态发送通知
type NotifierInterface interface {
	NotifyConflict(conflictId uint) (sent int, err error)
}

type Pipeline struct {
	logger      log.LoggerInterface
	bookings    BookingOperationInterface
	conflicts   ConflictOperationInterface
	proposals   ProposalOperationInterface
	finder      SlotFinderInterface
	ranker      RankerInterface
	notifier    NotifierInterface
	dispatcher  dispatch.DispatcherInterface
	horizonDays int
	staleGrace  time.Duration
	now         func() time.Time
}

func NewPipeline(
	logger log.LoggerInterface,
	operations *DatabaseOperations,
	finder SlotFinderInterface,
	ranker RankerInterface,
	notifier NotifierInterface,
	dispatcher dispatch.DispatcherInterface,
	horizonDays int,
	staleGrace time.Duration,
) *Pipeline {
	return &Pipeline{
		logger:      logger,
		bookings:    operations.BookingOperation(),
		conflicts:   operations.ConflictOperation(),
		proposals:   operations.ProposalOperation(),
		finder:      finder,
		ranker:      ranker,
		notifier:    notifier,
		dispatcher:  dispatcher,
		horizonDays: horizonDays,
		staleGrace:  staleGrace,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Register subscribes the stage handlers, call before dispatcher.Start
func (p *Pipeline) Register() {
	p.dispatcher.Subscribe(dispatch.StageRank, p.HandleRankJob)
	p.dispatcher.Subscribe(dispatch.StageNotify, p.HandleNotifyJob)
}
