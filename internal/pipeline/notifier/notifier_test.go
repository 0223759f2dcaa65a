package notifier

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/half-nothing/simple-wxguard/internal/base"
	"github.com/half-nothing/simple-wxguard/internal/database/dbtest"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/config"
	. "github.com/half-nothing/simple-wxguard/internal/interfaces/operation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type recordingMailer struct {
	messages []*gomail.Message
	err      error
}

func (m *recordingMailer) DialAndSend(messages ...*gomail.Message) error {
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, messages...)
	return nil
}

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type harness struct {
	ops      *DatabaseOperations
	fixture  *dbtest.Fixture
	conflict *WeatherConflict
}

func newHarness(t *testing.T) *harness {
	db, ops := dbtest.Operations(t)
	fixture := dbtest.Seed(t, db, "student_pilot")
	booking := fixture.Booking(t, db, now.Add(2*time.Hour), 2*time.Hour)
	conflict := &WeatherConflict{
		DetectedAt:    now,
		OriginalStart: booking.ScheduledStart,
		Violations:    []string{"KAUS: wind 30 kt exceeds maximum 10 kt"},
	}
	require.NoError(t, ops.ConflictOperation().CreateConflictAndHold(conflict, booking))
	return &harness{ops: ops, fixture: fixture, conflict: conflict}
}

func (h *harness) proposalsReady(t *testing.T) []*RescheduleProposal {
	claimed, err := h.ops.ConflictOperation().MarkProcessing(h.conflict, now, now.Add(-15*time.Minute))
	require.NoError(t, err)
	require.True(t, claimed)
	start := time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)
	proposals := []*RescheduleProposal{
		{Rank: 1, ProposedStart: start, ProposedEnd: start.Add(2 * time.Hour), InstructorId: h.fixture.Instructor.ID, AircraftId: h.fixture.Aircraft.ID, Score: 90, Rationale: "calm morning"},
		{Rank: 2, ProposedStart: start.Add(24 * time.Hour), ProposedEnd: start.Add(26 * time.Hour), InstructorId: h.fixture.Instructor.ID, AircraftId: h.fixture.Aircraft.ID, Score: 60, Rationale: "next day"},
	}
	require.NoError(t, h.ops.ConflictOperation().SaveProposals(h.conflict, proposals, now))
	return proposals
}

func (h *harness) notifier(t *testing.T, mailer MailSender) *Notifier {
	templates, err := config.LoadBundledEmailTemplates()
	require.NoError(t, err)
	return NewNotifier(base.NewLogger(), h.ops.ConflictOperation(), h.ops.NotificationOperation(), mailer, "dispatch@example.com", templates, time.UTC)
}

func TestNotifyProposalsReady(t *testing.T) {
	h := newHarness(t)
	proposals := h.proposalsReady(t)
	mailer := &recordingMailer{}
	notifier := h.notifier(t, mailer)

	sent, err := notifier.NotifyConflict(h.conflict.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	require.Len(t, mailer.messages, 2)
	assert.Equal(t, []string{h.fixture.Student.Email}, mailer.messages[0].GetHeader("To"))
	assert.Equal(t, []string{h.fixture.Instructor.Email}, mailer.messages[1].GetHeader("To"))

	notifications, total, err := h.ops.NotificationOperation().GetNotifications(h.fixture.Student.ID, false, 1, 10)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	notification := notifications[0]
	assert.Equal(t, NotificationId(h.conflict.ID, NotificationProposalsReady, h.fixture.Student.ID), notification.ID)
	assert.Equal(t, NotificationProposalsReady, notification.Type)
	assert.Contains(t, notification.Message, "Hello Sam Student")
	assert.Contains(t, notification.Message, "1. Tue Mar 11 09:00 UTC - Tue Mar 11 11:00 UTC (score 90): calm morning")
	assert.Contains(t, notification.Message, "KAUS: wind 30 kt exceeds maximum 10 kt")

	var meta metadata
	require.NoError(t, json.Unmarshal(notification.Metadata, &meta))
	assert.Equal(t, h.conflict.ID, meta.ConflictId)
	assert.Equal(t, []uint{proposals[0].ID, proposals[1].ID}, meta.ProposalIds)

	sent, err = notifier.NotifyConflict(h.conflict.ID)
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Len(t, mailer.messages, 2)
}

func TestNotifyRetriesAfterMailFailure(t *testing.T) {
	h := newHarness(t)
	h.proposalsReady(t)
	mailer := &recordingMailer{err: errors.New("smtp unavailable")}
	notifier := h.notifier(t, mailer)

	_, err := notifier.NotifyConflict(h.conflict.ID)
	require.Error(t, err)
	_, total, err := h.ops.NotificationOperation().GetNotifications(h.fixture.Student.ID, false, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)

	mailer.err = nil
	sent, err := notifier.NotifyConflict(h.conflict.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Len(t, mailer.messages, 2)
}

func TestNotifyWithoutMailer(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ops.ConflictOperation().ResolveConflict(h.conflict, ResolutionNoSlotsAvailable, now))

	sent, err := h.notifier(t, nil).NotifyConflict(h.conflict.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)

	notifications, _, err := h.ops.NotificationOperation().GetNotifications(h.fixture.Instructor.ID, false, 1, 10)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, NotificationNoSlotsAvailable, notifications[0].Type)
	assert.Contains(t, notifications[0].Message, "Please contact dispatch")
}

func TestNotifyRescheduleConfirmed(t *testing.T) {
	h := newHarness(t)
	proposals := h.proposalsReady(t)
	rescheduled, err := h.ops.ProposalOperation().RespondToProposal(proposals[1], RoleStudent, ResponseAccepted, now)
	require.NoError(t, err)
	require.True(t, rescheduled)

	mailer := &recordingMailer{}
	sent, err := h.notifier(t, mailer).NotifyConflict(h.conflict.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)

	notifications, _, err := h.ops.NotificationOperation().GetNotifications(h.fixture.Student.ID, false, 1, 10)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	message := notifications[0].Message
	assert.Equal(t, NotificationRescheduleConfirmed, notifications[0].Type)
	assert.True(t, strings.Contains(message, "Mon Mar 10 14:00 UTC"), message)
	assert.True(t, strings.Contains(message, "Wed Mar 12 09:00 UTC - Wed Mar 12 11:00 UTC"), message)
}

func TestNotifyIgnoresConflictsInProgress(t *testing.T) {
	h := newHarness(t)
	mailer := &recordingMailer{}

	sent, err := h.notifier(t, mailer).NotifyConflict(h.conflict.ID)
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, mailer.messages)
}

func TestNotifyUnknownConflict(t *testing.T) {
	h := newHarness(t)
	_, err := h.notifier(t, nil).NotifyConflict(h.conflict.ID + 100)
	assert.ErrorIs(t, err, ErrConflictNotFound)
}

func TestNotificationId(t *testing.T) {
	id := NotificationId(1, NotificationProposalsReady, 2)
	assert.Equal(t, id, NotificationId(1, NotificationProposalsReady, 2))
	assert.Len(t, id, 36)
	assert.NotEqual(t, id, NotificationId(1, NotificationProposalsReady, 3))
	assert.NotEqual(t, id, NotificationId(1, NotificationBookingCancelled, 2))
	assert.NotEqual(t, id, NotificationId(12, NotificationProposalsReady, 2))
}

func TestKindFor(t *testing.T) {
	testCases := []struct {
		status     string
		resolution string
		kind       string
		ok         bool
	}{
		{ConflictStatusDetected, "", "", false},
		{ConflictStatusAiProcessing, "", "", false},
		{ConflictStatusProposalsReady, "", NotificationProposalsReady, true},
		{ConflictStatusResolved, ResolutionNoSlotsAvailable, NotificationNoSlotsAvailable, true},
		{ConflictStatusResolved, ResolutionRescheduled, NotificationRescheduleConfirmed, true},
		{ConflictStatusResolved, ResolutionCancelled, NotificationBookingCancelled, true},
	}
	for _, tc := range testCases {
		t.Run(tc.status+"/"+tc.resolution, func(t *testing.T) {
			kind, ok := KindFor(&WeatherConflict{Status: tc.status, ResolutionMethod: tc.resolution})
			assert.Equal(t, tc.kind, kind)
			assert.Equal(t, tc.ok, ok)
		})
	}
}
