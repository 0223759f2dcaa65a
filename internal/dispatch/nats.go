// Package dispatch
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	c "github.com/half-nothing/simple-wxguard/internal/interfaces/config"
	. "github.com/half-nothing/simple-wxguard/internal/interfaces/dispatch"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/log"
	"github.com/nats-io/nats.go"
)

// NatsDispatcher publishes jobs to <prefix>.<stage> and consumes them through
// a queue group so each job reaches a single instance
type NatsDispatcher struct {
	*runner
	conn          *nats.Conn
	subjectPrefix string
	queueGroup    string
	slots         chan struct{}
	subscriptions []*nats.Subscription
	ctx           context.Context
	cancel        context.CancelFunc
	inflight      sync.WaitGroup
	closed        atomic.Bool
}

func NewNatsDispatcher(logger log.LoggerInterface, config *c.DispatchConfig) (*NatsDispatcher, error) {
	conn, err := nats.Connect(config.NatsUrl,
		nats.Name("wxguard"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.WarnF("NATS disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(conn *nats.Conn) {
			logger.InfoF("NATS reconnected to %s", conn.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", config.NatsUrl, err)
	}
	return newNatsDispatcher(logger, config, conn), nil
}

func newNatsDispatcher(logger log.LoggerInterface, config *c.DispatchConfig, conn *nats.Conn) *NatsDispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &NatsDispatcher{
		runner:        newRunner(logger, config),
		conn:          conn,
		subjectPrefix: config.SubjectPrefix,
		queueGroup:    config.QueueGroup,
		slots:         make(chan struct{}, config.Workers),
		ctx:           ctx,
		cancel:        cancel,
	}
}

func (dispatcher *NatsDispatcher) subject(stage Stage) string {
	return dispatcher.subjectPrefix + "." + string(stage)
}

func (dispatcher *NatsDispatcher) Start() error {
	for _, stage := range dispatcher.stages() {
		subscription, err := dispatcher.conn.QueueSubscribe(dispatcher.subject(stage), dispatcher.queueGroup, dispatcher.onMessage)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", dispatcher.subject(stage), err)
		}
		dispatcher.subscriptions = append(dispatcher.subscriptions, subscription)
	}
	dispatcher.logger.InfoF("NATS dispatcher consuming %d stages as queue group %s", len(dispatcher.subscriptions), dispatcher.queueGroup)
	return dispatcher.conn.Flush()
}

func (dispatcher *NatsDispatcher) Dispatch(ctx context.Context, stage Stage, conflictId uint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return dispatcher.publish(newJob(stage, conflictId))
}

func (dispatcher *NatsDispatcher) publish(job *Job) error {
	if dispatcher.closed.Load() {
		return ErrDispatcherClosed
	}
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return dispatcher.conn.Publish(dispatcher.subject(job.Stage), data)
}

func (dispatcher *NatsDispatcher) onMessage(msg *nats.Msg) {
	job := &Job{}
	if err := json.Unmarshal(msg.Data, job); err != nil || job.ConflictId == 0 {
		dispatcher.logger.WarnF("NATS dispatcher dropping malformed job on %s: %v", msg.Subject, err)
		return
	}
	if job.Attempt <= 0 {
		job.Attempt = 1
	}

	select {
	case dispatcher.slots <- struct{}{}:
	case <-dispatcher.ctx.Done():
		return
	}
	dispatcher.inflight.Add(1)
	go func() {
		defer dispatcher.inflight.Done()
		retry, delay := dispatcher.execute(dispatcher.ctx, job)
		<-dispatcher.slots
		if !retry {
			return
		}
		select {
		case <-time.After(delay):
		case <-dispatcher.ctx.Done():
			return
		}
		if err := dispatcher.publish(next(job)); err != nil {
			dispatcher.logger.ErrorF("Job %s %s conflict %d could not be republished: %v", job.Id, job.Stage, job.ConflictId, err)
		}
	}()
}

func (dispatcher *NatsDispatcher) Invoke(ctx context.Context) error {
	if !dispatcher.closed.CompareAndSwap(false, true) {
		return nil
	}
	dispatcher.logger.Info("Draining NATS dispatcher")
	for _, subscription := range dispatcher.subscriptions {
		_ = subscription.Unsubscribe()
	}
	dispatcher.cancel()
	done := make(chan struct{})
	go func() {
		dispatcher.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		dispatcher.conn.Close()
		return ctx.Err()
	}
	return dispatcher.conn.Drain()
}
