// Package dispatch
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/half-nothing/simple-wxguard/internal/interfaces/global"
)

type Stage string

const (
	StageRank   Stage = "rank"
	StageNotify Stage = "notify"
)

var (
	// ErrDispatcherClosed 调度器已关闭
	ErrDispatcherClosed = errors.New("dispatcher closed")
	// ErrQueueFull 内存队列已满
	ErrQueueFull = errors.New("dispatch queue full")
	// ErrNoHandler 阶段未注册处理函数
	ErrNoHandler = errors.New("no handler subscribed for stage")
	// ErrPermanent 处理失败且重试无意义, 任务会被直接丢弃
	ErrPermanent = errors.New("permanent job failure")
)

// Permanent marks err so the dispatcher drops the job instead of retrying
func Permanent(err error) error {
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}

// Job is the wire payload of one stage invocation, ConflictId is the idempotency key
type Job struct {
	Id         string    `json:"job_id"`
	Stage      Stage     `json:"stage"`
	ConflictId uint      `json:"conflict_id"`
	Attempt    int       `json:"attempt"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

type Handler func(ctx context.Context, job *Job) error

// DispatcherInterface 阶段任务调度器, 至少一次投递
type DispatcherInterface interface {
	global.Callable
	// Subscribe 注册阶段处理函数, 必须在 Start 之前调用
	Subscribe(stage Stage, handler Handler)
	// Start 开始消费任务
	Start() error
	// Dispatch 投递一个阶段任务, 不等待处理结果
	Dispatch(ctx context.Context, stage Stage, conflictId uint) error
}
