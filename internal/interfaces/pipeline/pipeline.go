// Package pipeline
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/half-nothing/simple-wxguard/internal/interfaces/operation"
)

var (
	// ErrMalformedRanking 推理服务返回的数据不符合约定的结构
	ErrMalformedRanking = errors.New("reasoning service returned malformed ranking")
	// ErrReasoningStatus 推理服务返回非2xx状态
	ErrReasoningStatus = errors.New("reasoning service returned unexpected status")
)

// CandidateSlot is a window where instructor and aircraft are both free
type CandidateSlot struct {
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	InstructorId uint      `json:"instructor_id"`
	AircraftId   uint      `json:"aircraft_id"`
}

type ConflictCreated struct {
	ConflictId uint     `json:"conflict_id"`
	BookingId  uint     `json:"booking_id"`
	Violations []string `json:"violations"`
}

type BookingFailure struct {
	BookingId uint   `json:"booking_id"`
	Error     string `json:"error"`
}

// DetectionReport summarises one detection pass, failures never abort the pass
type DetectionReport struct {
	StartedAt time.Time          `json:"started_at"`
	Checked   int                `json:"checked"`
	Clear     int                `json:"clear"`
	Existing  int                `json:"existing"`
	Created   []*ConflictCreated `json:"created"`
	Failed    []*BookingFailure  `json:"failed"`
}

// RankingPick is one choice of the reasoning service, Index is 1-based
type RankingPick struct {
	Index     int    `json:"candidate_index"`
	Score     int    `json:"score"`
	Rationale string `json:"rationale"`
}

type RankingRequest struct {
	Booking      *operation.Booking
	Violations   []string
	Observations any
	Candidates   []CandidateSlot
	MaxPicks     int
}

// ReasoningClientInterface 外部推理服务
type ReasoningClientInterface interface {
	// Rank 请求对候选时段进行排序, 返回值未经校验
	Rank(ctx context.Context, request *RankingRequest) (picks []RankingPick, err error)
}

// DetectorInterface 天气冲突检测
type DetectorInterface interface {
	RunDetectionPass(ctx context.Context, now time.Time) (report *DetectionReport, err error)
}

// StalenessInterface 卡住的冲突的检测与重新投递
type StalenessInterface interface {
	FindStaleConflicts(now time.Time) (conflicts []*operation.WeatherConflict, err error)
	Redrive(ctx context.Context, conflictId uint) (conflict *operation.WeatherConflict, err error)
}

// AcceptanceInterface 学员与教员对改期方案的回复
type AcceptanceInterface interface {
	RespondToProposal(ctx context.Context, proposalId, userId uint, decision string) (proposal *operation.RescheduleProposal, rescheduled bool, err error)
	CancelBooking(ctx context.Context, bookingId, userId uint) (conflict *operation.WeatherConflict, err error)
}
