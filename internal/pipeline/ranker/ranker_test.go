package ranker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/half-nothing/simple-wxguard/internal/base"
	"github.com/half-nothing/simple-wxguard/internal/database/dbtest"
	. "github.com/half-nothing/simple-wxguard/internal/interfaces/operation"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedClient struct {
	answers []func() ([]pipeline.RankingPick, error)
	calls   int
}

func (c *scriptedClient) Rank(context.Context, *pipeline.RankingRequest) ([]pipeline.RankingPick, error) {
	answer := c.answers[min(c.calls, len(c.answers)-1)]
	c.calls++
	return answer()
}

func answer(picks ...pipeline.RankingPick) func() ([]pipeline.RankingPick, error) {
	return func() ([]pipeline.RankingPick, error) { return picks, nil }
}

func failure(err error) func() ([]pipeline.RankingPick, error) {
	return func() ([]pipeline.RankingPick, error) { return nil, err }
}

func candidates(n int) []pipeline.CandidateSlot {
	start := time.Date(2025, 3, 11, 8, 0, 0, 0, time.UTC)
	slots := make([]pipeline.CandidateSlot, n)
	for i := range slots {
		slots[i] = pipeline.CandidateSlot{
			Start:        start.Add(time.Duration(i) * time.Hour),
			End:          start.Add(time.Duration(i+2) * time.Hour),
			InstructorId: 7,
			AircraftId:   3,
		}
	}
	return slots
}

func TestSelectProposals(t *testing.T) {
	testCases := []struct {
		name       string
		picks      []pipeline.RankingPick
		candidates int
		wantStarts []int
		wantScores []int
	}{
		{
			name:       "ordered by score",
			picks:      []pipeline.RankingPick{{Index: 3, Score: 60}, {Index: 1, Score: 95}, {Index: 5, Score: 80}},
			candidates: 5,
			wantStarts: []int{0, 4, 2},
			wantScores: []int{95, 80, 60},
		},
		{
			name:       "out of range dropped and backfilled",
			picks:      []pipeline.RankingPick{{Index: 0, Score: 99}, {Index: 9, Score: 99}, {Index: 2, Score: 70}},
			candidates: 4,
			wantStarts: []int{1, 0, 2},
			wantScores: []int{70, 50, 50},
		},
		{
			name:       "duplicates and bad scores dropped",
			picks:      []pipeline.RankingPick{{Index: 2, Score: 80}, {Index: 2, Score: 90}, {Index: 3, Score: 101}, {Index: 4, Score: -1}},
			candidates: 4,
			wantStarts: []int{1, 0, 2},
			wantScores: []int{80, 50, 50},
		},
		{
			name:       "more picks than allowed",
			picks:      []pipeline.RankingPick{{Index: 1, Score: 10}, {Index: 2, Score: 20}, {Index: 3, Score: 30}, {Index: 4, Score: 40}},
			candidates: 4,
			wantStarts: []int{2, 1, 0},
			wantScores: []int{30, 20, 10},
		},
		{
			name:       "fewer candidates than picks",
			picks:      nil,
			candidates: 2,
			wantStarts: []int{0, 1},
			wantScores: []int{50, 50},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			slots := candidates(tc.candidates)
			proposals := SelectProposals(base.NewLogger(), tc.picks, slots, 3)
			require.Len(t, proposals, len(tc.wantStarts))
			for i, proposal := range proposals {
				assert.Equal(t, i+1, proposal.Rank)
				assert.Equal(t, slots[tc.wantStarts[i]].Start, proposal.ProposedStart)
				assert.Equal(t, tc.wantScores[i], proposal.Score)
				assert.NotEmpty(t, proposal.Rationale)
				assert.Equal(t, ResponsePending, proposal.StudentResponse)
			}
		})
	}
}

func processingConflict(t *testing.T) (*DatabaseOperations, *WeatherConflict) {
	db, ops := dbtest.Operations(t)
	fixture := dbtest.Seed(t, db, "student_pilot")
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	booking := fixture.Booking(t, db, now.Add(2*time.Hour), 2*time.Hour)
	conflict := &WeatherConflict{DetectedAt: now, Violations: []string{"KAUS: wind 30 kt exceeds maximum 10 kt"}}
	require.NoError(t, ops.ConflictOperation().CreateConflictAndHold(conflict, booking))
	claimed, err := ops.ConflictOperation().MarkProcessing(conflict, now, now.Add(-15*time.Minute))
	require.NoError(t, err)
	require.True(t, claimed)
	return ops, conflict
}

func TestRankAndPersistRetriesOnce(t *testing.T) {
	ops, conflict := processingConflict(t)
	client := &scriptedClient{answers: []func() ([]pipeline.RankingPick, error){
		failure(pipeline.ErrMalformedRanking),
		answer(pipeline.RankingPick{Index: 2, Score: 88, Rationale: "calm winds"}),
	}}
	ranker := NewRanker(base.NewLogger(), client, ops.ConflictOperation(), 3)

	proposals, err := ranker.RankAndPersist(context.Background(), conflict, candidates(5))
	require.NoError(t, err)
	assert.Equal(t, 2, client.calls)
	require.Len(t, proposals, 3)
	assert.Equal(t, "calm winds", proposals[0].Rationale)

	stored, err := ops.ConflictOperation().GetConflictById(conflict.ID)
	require.NoError(t, err)
	assert.Equal(t, ConflictStatusProposalsReady, stored.Status)
	assert.NotNil(t, stored.ProcessingEndedAt)
	require.Len(t, stored.Proposals, 3)
	for i, proposal := range stored.Proposals {
		assert.Equal(t, i+1, proposal.Rank)
		assert.Equal(t, conflict.ID, proposal.ConflictId)
	}
}

func TestRankAndPersistGivesUpAfterRetry(t *testing.T) {
	ops, conflict := processingConflict(t)
	client := &scriptedClient{answers: []func() ([]pipeline.RankingPick, error){failure(errors.New("connection reset"))}}
	ranker := NewRanker(base.NewLogger(), client, ops.ConflictOperation(), 3)

	_, err := ranker.RankAndPersist(context.Background(), conflict, candidates(5))
	require.Error(t, err)
	assert.Equal(t, 2, client.calls)

	stored, err := ops.ConflictOperation().GetConflictById(conflict.ID)
	require.NoError(t, err)
	assert.Equal(t, ConflictStatusAiProcessing, stored.Status)
	assert.Empty(t, stored.Proposals)
}
