// Package dispatch
package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	c "github.com/half-nothing/simple-wxguard/internal/interfaces/config"
	. "github.com/half-nothing/simple-wxguard/internal/interfaces/dispatch"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/log"
)

// MemoryDispatcher runs jobs on an in-process worker pool, queued jobs
// are lost on restart and recovered by the stale conflict re-drive
type MemoryDispatcher struct {
	*runner
	queue   chan *Job
	workers int
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	retries sync.WaitGroup
	closed  atomic.Bool
	started atomic.Bool
}

func NewMemoryDispatcher(logger log.LoggerInterface, config *c.DispatchConfig) *MemoryDispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &MemoryDispatcher{
		runner:  newRunner(logger, config),
		queue:   make(chan *Job, config.QueueSize),
		workers: config.Workers,
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (dispatcher *MemoryDispatcher) Start() error {
	if !dispatcher.started.CompareAndSwap(false, true) {
		return nil
	}
	for i := 0; i < dispatcher.workers; i++ {
		dispatcher.wg.Add(1)
		go dispatcher.work()
	}
	dispatcher.logger.InfoF("Memory dispatcher started with %d workers", dispatcher.workers)
	return nil
}

func (dispatcher *MemoryDispatcher) Dispatch(ctx context.Context, stage Stage, conflictId uint) error {
	return dispatcher.enqueue(ctx, newJob(stage, conflictId))
}

func (dispatcher *MemoryDispatcher) enqueue(ctx context.Context, job *Job) error {
	if dispatcher.closed.Load() {
		return ErrDispatcherClosed
	}
	select {
	case dispatcher.queue <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

func (dispatcher *MemoryDispatcher) work() {
	defer dispatcher.wg.Done()
	for {
		select {
		case <-dispatcher.ctx.Done():
			return
		case job := <-dispatcher.queue:
			retry, delay := dispatcher.execute(dispatcher.ctx, job)
			if retry {
				dispatcher.scheduleRetry(next(job), delay)
			}
		}
	}
}

func (dispatcher *MemoryDispatcher) scheduleRetry(job *Job, delay time.Duration) {
	dispatcher.retries.Add(1)
	go func() {
		defer dispatcher.retries.Done()
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-dispatcher.ctx.Done():
			return
		case <-timer.C:
		}
		if err := dispatcher.enqueue(dispatcher.ctx, job); err != nil {
			dispatcher.logger.ErrorF("Job %s %s conflict %d could not be requeued: %v", job.Id, job.Stage, job.ConflictId, err)
		}
	}()
}

func (dispatcher *MemoryDispatcher) Invoke(ctx context.Context) error {
	if !dispatcher.closed.CompareAndSwap(false, true) {
		return nil
	}
	dispatcher.logger.Info("Stopping memory dispatcher")
	dispatcher.cancel()
	done := make(chan struct{})
	go func() {
		dispatcher.wg.Wait()
		dispatcher.retries.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
