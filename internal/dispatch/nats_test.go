package dispatch

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/half-nothing/simple-wxguard/internal/base"
	. "github.com/half-nothing/simple-wxguard/internal/interfaces/dispatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requires a running server, e.g. WXGUARD_TEST_NATS_URL=nats://127.0.0.1:4222
func TestNatsDispatcherRoundTrip(t *testing.T) {
	url := os.Getenv("WXGUARD_TEST_NATS_URL")
	if url == "" {
		t.Skip("WXGUARD_TEST_NATS_URL not set")
	}
	config := testDispatchConfig()
	config.NatsUrl = url
	config.SubjectPrefix = "wxguard.test." + time.Now().Format("150405.000000")
	config.QueueGroup = "wxguard-test"

	dispatcher, err := NewNatsDispatcher(base.NewLogger(), config)
	require.NoError(t, err)
	received := make(chan *Job, 1)
	dispatcher.Subscribe(StageNotify, func(_ context.Context, job *Job) error {
		received <- job
		return nil
	})
	require.NoError(t, dispatcher.Start())
	defer func() { _ = dispatcher.Invoke(context.Background()) }()

	require.NoError(t, dispatcher.Dispatch(context.Background(), StageNotify, 99))
	select {
	case job := <-received:
		assert.Equal(t, uint(99), job.ConflictId)
	case <-time.After(5 * time.Second):
		t.Fatal("job was not delivered")
	}
}

func TestNatsSubject(t *testing.T) {
	dispatcher := &NatsDispatcher{subjectPrefix: "wxguard.jobs"}
	assert.Equal(t, "wxguard.jobs.rank", dispatcher.subject(StageRank))
	assert.Equal(t, "wxguard.jobs.notify", dispatcher.subject(StageNotify))
}
