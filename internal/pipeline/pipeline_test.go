package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/half-nothing/simple-wxguard/internal/base"
	"github.com/half-nothing/simple-wxguard/internal/database/dbtest"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/dispatch"
	. "github.com/half-nothing/simple-wxguard/internal/interfaces/operation"
	pi "github.com/half-nothing/simple-wxguard/internal/interfaces/pipeline"
	"github.com/half-nothing/simple-wxguard/internal/pipeline/ranker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type recordingDispatcher struct {
	mu   sync.Mutex
	jobs []dispatch.Job
	err  error
}

func (d *recordingDispatcher) Invoke(context.Context) error               { return nil }
func (d *recordingDispatcher) Subscribe(dispatch.Stage, dispatch.Handler) {}
func (d *recordingDispatcher) Start() error                               { return nil }
func (d *recordingDispatcher) Dispatch(_ context.Context, stage dispatch.Stage, conflictId uint) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.jobs = append(d.jobs, dispatch.Job{Stage: stage, ConflictId: conflictId})
	return nil
}

func (d *recordingDispatcher) stages() []dispatch.Stage {
	d.mu.Lock()
	defer d.mu.Unlock()
	stages := make([]dispatch.Stage, len(d.jobs))
	for i, job := range d.jobs {
		stages[i] = job.Stage
	}
	return stages
}

type stubFinder struct {
	slots []pi.CandidateSlot
	err   error
	calls int
}

func (f *stubFinder) FindCandidateSlots(*Booking, int) ([]pi.CandidateSlot, error) {
	f.calls++
	return f.slots, f.err
}

type stubClient struct {
	picks []pi.RankingPick
	err   error
	calls int
}

func (c *stubClient) Rank(context.Context, *pi.RankingRequest) ([]pi.RankingPick, error) {
	c.calls++
	return c.picks, c.err
}

type stubNotifier struct {
	err   error
	calls []uint
}

func (n *stubNotifier) NotifyConflict(conflictId uint) (int, error) {
	n.calls = append(n.calls, conflictId)
	return 2, n.err
}

type harness struct {
	db         *gorm.DB
	ops        *DatabaseOperations
	fixture    *dbtest.Fixture
	booking    *Booking
	conflict   *WeatherConflict
	finder     *stubFinder
	client     *stubClient
	notifier   *stubNotifier
	dispatcher *recordingDispatcher
	pipeline   *Pipeline
}

func newHarness(t *testing.T) *harness {
	db, ops := dbtest.Operations(t)
	fixture := dbtest.Seed(t, db, "student_pilot")
	booking := fixture.Booking(t, db, now.Add(2*time.Hour), 2*time.Hour)
	conflict := &WeatherConflict{
		DetectedAt:    now,
		OriginalStart: booking.ScheduledStart,
		Violations:    []string{"KAUS: visibility 1.5 mi below minimum 5.0 mi"},
	}
	require.NoError(t, ops.ConflictOperation().CreateConflictAndHold(conflict, booking))

	slotStart := time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)
	h := &harness{
		db:       db,
		ops:      ops,
		fixture:  fixture,
		booking:  booking,
		conflict: conflict,
		finder: &stubFinder{slots: []pi.CandidateSlot{
			{Start: slotStart, End: slotStart.Add(2 * time.Hour), InstructorId: fixture.Instructor.ID, AircraftId: fixture.Aircraft.ID},
			{Start: slotStart.Add(time.Hour), End: slotStart.Add(3 * time.Hour), InstructorId: fixture.Instructor.ID, AircraftId: fixture.Aircraft.ID},
		}},
		client:     &stubClient{picks: []pi.RankingPick{{Index: 2, Score: 85, Rationale: "winds ease"}}},
		notifier:   &stubNotifier{},
		dispatcher: &recordingDispatcher{},
	}
	logger := base.NewLogger()
	h.pipeline = NewPipeline(logger, ops, h.finder, ranker.NewRanker(logger, h.client, ops.ConflictOperation(), 3),
		h.notifier, h.dispatcher, 7, 15*time.Minute)
	h.pipeline.now = func() time.Time { return now }
	return h
}

func (h *harness) reload(t *testing.T) *WeatherConflict {
	conflict, err := h.ops.ConflictOperation().GetConflictById(h.conflict.ID)
	require.NoError(t, err)
	return conflict
}

func (h *harness) rank(t *testing.T) []*RescheduleProposal {
	require.NoError(t, h.pipeline.HandleRankJob(context.Background(), &dispatch.Job{Stage: dispatch.StageRank, ConflictId: h.conflict.ID, Attempt: 1}))
	conflict := h.reload(t)
	require.Equal(t, ConflictStatusProposalsReady, conflict.Status)
	h.dispatcher.jobs = nil
	return conflict.Proposals
}

func TestHandleRankJobStoresProposals(t *testing.T) {
	h := newHarness(t)

	err := h.pipeline.HandleRankJob(context.Background(), &dispatch.Job{Stage: dispatch.StageRank, ConflictId: h.conflict.ID, Attempt: 1})
	require.NoError(t, err)

	conflict := h.reload(t)
	assert.Equal(t, ConflictStatusProposalsReady, conflict.Status)
	assert.NotNil(t, conflict.ProcessingStartedAt)
	assert.NotNil(t, conflict.ProcessingEndedAt)
	require.Len(t, conflict.Proposals, 2)
	assert.Equal(t, 85, conflict.Proposals[0].Score)
	assert.Equal(t, h.finder.slots[1].Start, conflict.Proposals[0].ProposedStart)
	assert.Equal(t, []dispatch.Stage{dispatch.StageNotify}, h.dispatcher.stages())
}

func TestHandleRankJobWithoutSlots(t *testing.T) {
	h := newHarness(t)
	h.finder.slots = nil

	require.NoError(t, h.pipeline.HandleRankJob(context.Background(), &dispatch.Job{ConflictId: h.conflict.ID, Attempt: 1}))

	conflict := h.reload(t)
	assert.Equal(t, ConflictStatusResolved, conflict.Status)
	assert.Equal(t, ResolutionNoSlotsAvailable, conflict.ResolutionMethod)
	assert.Empty(t, conflict.Proposals)
	assert.Zero(t, h.client.calls)
	assert.Equal(t, []dispatch.Stage{dispatch.StageNotify}, h.dispatcher.stages())

	booking, err := h.ops.BookingOperation().GetBookingById(h.booking.ID)
	require.NoError(t, err)
	assert.Equal(t, BookingStatusWeatherHold, booking.Status)
}

func TestHandleRankJobIsIdempotent(t *testing.T) {
	h := newHarness(t)
	h.rank(t)

	require.NoError(t, h.pipeline.HandleRankJob(context.Background(), &dispatch.Job{ConflictId: h.conflict.ID, Attempt: 1}))
	assert.Equal(t, 1, h.finder.calls)
	assert.Equal(t, 1, h.client.calls)
	assert.Len(t, h.reload(t).Proposals, 2)
	assert.Equal(t, []dispatch.Stage{dispatch.StageNotify}, h.dispatcher.stages())
}

func TestHandleRankJobUnknownConflictIsPermanent(t *testing.T) {
	h := newHarness(t)
	err := h.pipeline.HandleRankJob(context.Background(), &dispatch.Job{ConflictId: h.conflict.ID + 50, Attempt: 1})
	assert.ErrorIs(t, err, dispatch.ErrPermanent)
	assert.ErrorIs(t, err, ErrConflictNotFound)
}

func TestHandleRankJobClaim(t *testing.T) {
	h := newHarness(t)
	claimed, err := h.ops.ConflictOperation().MarkProcessing(h.conflict, now.Add(-time.Minute), now.Add(-time.Hour))
	require.NoError(t, err)
	require.True(t, claimed)

	require.NoError(t, h.pipeline.HandleRankJob(context.Background(), &dispatch.Job{ConflictId: h.conflict.ID, Attempt: 1}))
	assert.Zero(t, h.finder.calls)
	assert.Empty(t, h.dispatcher.jobs)

	require.NoError(t, h.pipeline.HandleRankJob(context.Background(), &dispatch.Job{ConflictId: h.conflict.ID, Attempt: 2}))
	assert.Equal(t, 1, h.finder.calls)
	assert.Equal(t, ConflictStatusProposalsReady, h.reload(t).Status)
}

func TestHandleRankJobReasoningOutage(t *testing.T) {
	h := newHarness(t)
	h.client.err = pi.ErrReasoningStatus

	err := h.pipeline.HandleRankJob(context.Background(), &dispatch.Job{ConflictId: h.conflict.ID, Attempt: 1})
	require.ErrorIs(t, err, pi.ErrReasoningStatus)
	assert.Equal(t, 2, h.client.calls)
	assert.Equal(t, ConflictStatusAiProcessing, h.reload(t).Status)
	assert.Empty(t, h.dispatcher.jobs)
}

func TestHandleNotifyJob(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.pipeline.HandleNotifyJob(context.Background(), &dispatch.Job{ConflictId: h.conflict.ID}))
	assert.Equal(t, []uint{h.conflict.ID}, h.notifier.calls)

	h.notifier.err = ErrConflictNotFound
	assert.ErrorIs(t, h.pipeline.HandleNotifyJob(context.Background(), &dispatch.Job{ConflictId: 99}), dispatch.ErrPermanent)

	h.notifier.err = errors.New("smtp unavailable")
	err := h.pipeline.HandleNotifyJob(context.Background(), &dispatch.Job{ConflictId: h.conflict.ID})
	require.Error(t, err)
	assert.NotErrorIs(t, err, dispatch.ErrPermanent)
}

func TestRespondToProposalFirstAcceptanceReschedules(t *testing.T) {
	h := newHarness(t)
	proposals := h.rank(t)
	winner := proposals[0]

	_, _, err := h.pipeline.RespondToProposal(context.Background(), winner.ID, h.fixture.Student.ID+1000, ResponseAccepted)
	assert.ErrorIs(t, err, ErrNotParticipant)

	proposal, rescheduled, err := h.pipeline.RespondToProposal(context.Background(), winner.ID, h.fixture.Student.ID, ResponseAccepted)
	require.NoError(t, err)
	assert.True(t, rescheduled)
	assert.Equal(t, ResponseAccepted, proposal.StudentResponse)
	assert.Equal(t, ResponsePending, proposal.InstructorResponse)
	assert.Equal(t, []dispatch.Stage{dispatch.StageNotify}, h.dispatcher.stages())

	booking, err := h.ops.BookingOperation().GetBookingById(h.booking.ID)
	require.NoError(t, err)
	assert.Equal(t, BookingStatusScheduled, booking.Status)
	assert.True(t, booking.ScheduledStart.Equal(winner.ProposedStart))
	assert.True(t, booking.ScheduledEnd.Equal(winner.ProposedEnd))

	conflict := h.reload(t)
	assert.Equal(t, ConflictStatusResolved, conflict.Status)
	assert.Equal(t, ResolutionRescheduled, conflict.ResolutionMethod)

	_, _, err = h.pipeline.RespondToProposal(context.Background(), winner.ID, h.fixture.Instructor.ID, ResponseAccepted)
	assert.ErrorIs(t, err, ErrConflictResolved)
}

func TestRespondToProposalRejection(t *testing.T) {
	h := newHarness(t)
	proposals := h.rank(t)

	_, rescheduled, err := h.pipeline.RespondToProposal(context.Background(), proposals[1].ID, h.fixture.Instructor.ID, ResponseRejected)
	require.NoError(t, err)
	assert.False(t, rescheduled)
	assert.Empty(t, h.dispatcher.jobs)

	_, _, err = h.pipeline.RespondToProposal(context.Background(), proposals[1].ID, h.fixture.Instructor.ID, ResponseAccepted)
	assert.ErrorIs(t, err, ErrAlreadyResponded)
	assert.Equal(t, ConflictStatusProposalsReady, h.reload(t).Status)
}

func TestCancelBooking(t *testing.T) {
	h := newHarness(t)
	h.rank(t)

	_, err := h.pipeline.CancelBooking(context.Background(), h.booking.ID, h.fixture.Student.ID+1000)
	assert.ErrorIs(t, err, ErrNotParticipant)

	conflict, err := h.pipeline.CancelBooking(context.Background(), h.booking.ID, h.fixture.Instructor.ID)
	require.NoError(t, err)
	require.NotNil(t, conflict)
	assert.Equal(t, ResolutionCancelled, conflict.ResolutionMethod)
	assert.Equal(t, []dispatch.Stage{dispatch.StageNotify}, h.dispatcher.stages())

	booking, err := h.ops.BookingOperation().GetBookingById(h.booking.ID)
	require.NoError(t, err)
	assert.Equal(t, BookingStatusCancelled, booking.Status)

	_, err = h.pipeline.CancelBooking(context.Background(), h.booking.ID, h.fixture.Instructor.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelBookingAfterNoSlots(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ops.ConflictOperation().ResolveConflict(h.conflict, ResolutionNoSlotsAvailable, now))

	conflict, err := h.pipeline.CancelBooking(context.Background(), h.booking.ID, h.fixture.Student.ID)
	require.NoError(t, err)
	assert.Nil(t, conflict)
	assert.Empty(t, h.dispatcher.jobs)

	booking, err := h.ops.BookingOperation().GetBookingById(h.booking.ID)
	require.NoError(t, err)
	assert.Equal(t, BookingStatusCancelled, booking.Status)
}

func TestStaleConflicts(t *testing.T) {
	h := newHarness(t)

	stale, err := h.pipeline.FindStaleConflicts(now.Add(10 * time.Minute))
	require.NoError(t, err)
	assert.Empty(t, stale)

	stale, err = h.pipeline.FindStaleConflicts(now.Add(20 * time.Minute))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, h.conflict.ID, stale[0].ID)

	redriven, err := h.pipeline.RedriveStale(context.Background(), now.Add(20*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, redriven)
	assert.Equal(t, []dispatch.Stage{dispatch.StageRank}, h.dispatcher.stages())
}

func TestRedrive(t *testing.T) {
	h := newHarness(t)

	conflict, err := h.pipeline.Redrive(context.Background(), h.conflict.ID)
	require.NoError(t, err)
	assert.Equal(t, ConflictStatusDetected, conflict.Status)
	assert.Equal(t, []dispatch.Stage{dispatch.StageRank}, h.dispatcher.stages())

	h.rank(t)
	_, err = h.pipeline.Redrive(context.Background(), h.conflict.ID)
	require.NoError(t, err)
	assert.Equal(t, []dispatch.Stage{dispatch.StageNotify}, h.dispatcher.stages())

	h.dispatcher.err = dispatch.ErrQueueFull
	_, err = h.pipeline.Redrive(context.Background(), h.conflict.ID)
	assert.ErrorIs(t, err, dispatch.ErrQueueFull)

	_, err = h.pipeline.Redrive(context.Background(), h.conflict.ID+50)
	assert.ErrorIs(t, err, ErrConflictNotFound)
}

func TestPeriodicTask(t *testing.T) {
	var runs atomic.Int32
	task := NewPeriodicTask(base.NewLogger(), "count", 10*time.Millisecond, func(context.Context) error {
		runs.Add(1)
		return errors.New("ignored")
	})
	task.Start()
	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, task.Invoke(ctx))
	require.NoError(t, task.Invoke(ctx))
	stopped := runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, runs.Load())
}

func TestProcessInline(t *testing.T) {
	h := newHarness(t)
	h.dispatcher.err = dispatch.ErrQueueFull

	require.NoError(t, h.pipeline.ProcessInline(context.Background(), []uint{h.conflict.ID}))
	assert.Equal(t, ConflictStatusProposalsReady, h.reload(t).Status)
	assert.Equal(t, []uint{h.conflict.ID}, h.notifier.calls)

	err := h.pipeline.ProcessInline(context.Background(), []uint{9999})
	assert.ErrorIs(t, err, ErrConflictNotFound)
	assert.Len(t, h.notifier.calls, 1)
}
