package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/half-nothing/simple-wxguard/internal/interfaces/log"
)

type Task func(ctx context.Context) error

// PeriodicTask runs a task at a fixed interval until stopped, runs never overlap
type PeriodicTask struct {
	logger   log.LoggerInterface
	name     string
	interval time.Duration
	task     Task
	ticker   *time.Ticker
	stopChan chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
}

func NewPeriodicTask(logger log.LoggerInterface, name string, interval time.Duration, task Task) *PeriodicTask {
	return &PeriodicTask{
		logger:   logger,
		name:     name,
		interval: interval,
		task:     task,
		stopChan: make(chan struct{}),
	}
}

func (t *PeriodicTask) Start() {
	t.ticker = time.NewTicker(t.interval)
	t.wg.Add(1)

	go func() {
		defer t.wg.Done()
		defer t.logger.InfoF("Periodic task %s stopped", t.name)

		for {
			select {
			case <-t.ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), t.interval)
				if err := t.task(ctx); err != nil {
					t.logger.ErrorF("Periodic task %s failed: %v", t.name, err)
				}
				cancel()
			case <-t.stopChan:
				return
			}
		}
	}()
}

// Invoke stops the task and waits for a running execution to finish
func (t *PeriodicTask) Invoke(ctx context.Context) error {
	t.once.Do(func() {
		if t.ticker != nil {
			t.ticker.Stop()
		}
		close(t.stopChan)
	})
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
