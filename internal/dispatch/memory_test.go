package dispatch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/half-nothing/simple-wxguard/internal/base"
	c "github.com/half-nothing/simple-wxguard/internal/interfaces/config"
	. "github.com/half-nothing/simple-wxguard/internal/interfaces/dispatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDispatchConfig() *c.DispatchConfig {
	return &c.DispatchConfig{
		DispatchType:    c.MemoryDispatch,
		Workers:         2,
		QueueSize:       8,
		MaxAttempts:     3,
		BackoffDuration: 5 * time.Millisecond,
		HandlerDuration: time.Second,
	}
}

func TestMemoryDispatcherDeliversJobs(t *testing.T) {
	dispatcher := NewMemoryDispatcher(base.NewLogger(), testDispatchConfig())
	received := make(chan *Job, 4)
	dispatcher.Subscribe(StageRank, func(_ context.Context, job *Job) error {
		received <- job
		return nil
	})
	require.NoError(t, dispatcher.Start())
	defer func() { _ = dispatcher.Invoke(context.Background()) }()

	require.NoError(t, dispatcher.Dispatch(context.Background(), StageRank, 42))
	select {
	case job := <-received:
		assert.Equal(t, uint(42), job.ConflictId)
		assert.Equal(t, StageRank, job.Stage)
		assert.Equal(t, 1, job.Attempt)
		assert.NotEmpty(t, job.Id)
	case <-time.After(2 * time.Second):
		t.Fatal("job was not delivered")
	}
}

func TestMemoryDispatcherRetriesUntilMaxAttempts(t *testing.T) {
	dispatcher := NewMemoryDispatcher(base.NewLogger(), testDispatchConfig())
	var attempts atomic.Int32
	var wg sync.WaitGroup
	wg.Add(3)
	dispatcher.Subscribe(StageNotify, func(_ context.Context, job *Job) error {
		attempts.Add(1)
		wg.Done()
		return errors.New("smtp unavailable")
	})
	require.NoError(t, dispatcher.Start())
	defer func() { _ = dispatcher.Invoke(context.Background()) }()

	require.NoError(t, dispatcher.Dispatch(context.Background(), StageNotify, 7))
	waitGroupTimeout(t, &wg, 2*time.Second)
	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 3, attempts.Load())
}

func TestMemoryDispatcherPermanentFailureIsNotRetried(t *testing.T) {
	dispatcher := NewMemoryDispatcher(base.NewLogger(), testDispatchConfig())
	var attempts atomic.Int32
	done := make(chan struct{}, 1)
	dispatcher.Subscribe(StageRank, func(_ context.Context, _ *Job) error {
		attempts.Add(1)
		done <- struct{}{}
		return Permanent(errors.New("conflict missing"))
	})
	require.NoError(t, dispatcher.Start())
	defer func() { _ = dispatcher.Invoke(context.Background()) }()

	require.NoError(t, dispatcher.Dispatch(context.Background(), StageRank, 1))
	<-done
	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 1, attempts.Load())
}

func TestMemoryDispatcherClosed(t *testing.T) {
	config := testDispatchConfig()
	config.QueueSize = 1
	dispatcher := NewMemoryDispatcher(base.NewLogger(), config)

	require.NoError(t, dispatcher.Dispatch(context.Background(), StageRank, 1))
	assert.ErrorIs(t, dispatcher.Dispatch(context.Background(), StageRank, 2), ErrQueueFull)

	require.NoError(t, dispatcher.Invoke(context.Background()))
	assert.ErrorIs(t, dispatcher.Dispatch(context.Background(), StageRank, 3), ErrDispatcherClosed)
}

func TestBackoffGrowsExponentially(t *testing.T) {
	r := newRunner(base.NewLogger(), &c.DispatchConfig{MaxAttempts: 10, BackoffDuration: time.Second})
	assert.Equal(t, time.Second, r.backoffFor(1))
	assert.Equal(t, 2*time.Second, r.backoffFor(2))
	assert.Equal(t, 8*time.Second, r.backoffFor(4))
	assert.Equal(t, maxBackoff, r.backoffFor(20))
}

func waitGroupTimeout(t *testing.T, wg *sync.WaitGroup, timeout time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		t.Fatal("timed out waiting for handler")
	}
}
