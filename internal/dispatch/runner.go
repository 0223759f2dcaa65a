// Package dispatch
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	c "github.com/half-nothing/simple-wxguard/internal/interfaces/config"
	. "github.com/half-nothing/simple-wxguard/internal/interfaces/dispatch"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/log"
)

const maxBackoff = 5 * time.Minute

// runner holds the handler table and retry policy shared by every transport
type runner struct {
	logger         log.LoggerInterface
	mu             sync.RWMutex
	handlers       map[Stage]Handler
	maxAttempts    int
	backoff        time.Duration
	handlerTimeout time.Duration
}

func newRunner(logger log.LoggerInterface, config *c.DispatchConfig) *runner {
	return &runner{
		logger:         logger,
		handlers:       make(map[Stage]Handler),
		maxAttempts:    config.MaxAttempts,
		backoff:        config.BackoffDuration,
		handlerTimeout: config.HandlerDuration,
	}
}

func (r *runner) Subscribe(stage Stage, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[stage] = handler
}

func (r *runner) stages() []Stage {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stages := make([]Stage, 0, len(r.handlers))
	for stage := range r.handlers {
		stages = append(stages, stage)
	}
	return stages
}

func newJob(stage Stage, conflictId uint) *Job {
	return &Job{
		Id:         uuid.NewString(),
		Stage:      stage,
		ConflictId: conflictId,
		Attempt:    1,
		EnqueuedAt: time.Now().UTC(),
	}
}

// execute runs the handler once and reports the delay before the next
// attempt, retry is false once the job succeeded or is given up
func (r *runner) execute(ctx context.Context, job *Job) (retry bool, delay time.Duration) {
	r.mu.RLock()
	handler, ok := r.handlers[job.Stage]
	r.mu.RUnlock()
	if !ok {
		r.logger.ErrorF("Dispatcher dropping job %s: %v (%s)", job.Id, ErrNoHandler, job.Stage)
		return false, 0
	}

	err := r.invoke(ctx, handler, job)
	if err == nil {
		r.logger.DebugF("Job %s %s conflict %d done on attempt %d", job.Id, job.Stage, job.ConflictId, job.Attempt)
		return false, 0
	}
	if errors.Is(err, ErrPermanent) {
		r.logger.WarnF("Job %s %s conflict %d dropped: %v", job.Id, job.Stage, job.ConflictId, err)
		return false, 0
	}
	if job.Attempt >= r.maxAttempts {
		r.logger.ErrorF("Job %s %s conflict %d failed after %d attempts: %v", job.Id, job.Stage, job.ConflictId, job.Attempt, err)
		return false, 0
	}
	delay = r.backoffFor(job.Attempt)
	r.logger.WarnF("Job %s %s conflict %d attempt %d failed, retry in %v: %v", job.Id, job.Stage, job.ConflictId, job.Attempt, delay, err)
	return true, delay
}

func (r *runner) invoke(ctx context.Context, handler Handler, job *Job) (err error) {
	if r.handlerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.handlerTimeout)
		defer cancel()
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("handler panic: %v", recovered)
		}
	}()
	return handler(ctx, job)
}

func (r *runner) backoffFor(attempt int) time.Duration {
	delay := r.backoff
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	return delay
}

// next returns the copy of job used for the following attempt
func next(job *Job) *Job {
	retry := *job
	retry.Attempt++
	retry.EnqueuedAt = time.Now().UTC()
	return &retry
}

func NewDispatcher(logger log.LoggerInterface, config *c.DispatchConfig) (DispatcherInterface, error) {
	switch config.DispatchType {
	case c.NatsDispatch:
		return NewNatsDispatcher(logger, config)
	default:
		return NewMemoryDispatcher(logger, config), nil
	}
}
