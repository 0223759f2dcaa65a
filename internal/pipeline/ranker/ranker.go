package ranker

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/half-nothing/simple-wxguard/internal/interfaces/log"
	. "github.com/half-nothing/simple-wxguard/internal/interfaces/operation"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/pipeline"
)

const (
	minScore        = 0
	maxScore        = 100
	backfillScore   = 50
	backfillReason  = "Earliest remaining slot with the same instructor and aircraft."
	rankingAttempts = 2
)

type Ranker struct {
	logger    log.LoggerInterface
	client    pipeline.ReasoningClientInterface
	conflicts ConflictOperationInterface
	maxPicks  int
	now       func() time.Time
}

func NewRanker(logger log.LoggerInterface, client pipeline.ReasoningClientInterface, conflicts ConflictOperationInterface, maxPicks int) *Ranker {
	return &Ranker{
		logger:    logger,
		client:    client,
		conflicts: conflicts,
		maxPicks:  maxPicks,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RankAndPersist asks the reasoning service to order the candidates and
// stores min(maxPicks, len(candidates)) proposals for the conflict. The
// conflict must already be claimed as ai_processing.
func (ranker *Ranker) RankAndPersist(ctx context.Context, conflict *WeatherConflict, candidates []pipeline.CandidateSlot) ([]*RescheduleProposal, error) {
	if len(candidates) == 0 {
		return nil, errors.New("no candidate slots to rank")
	}

	request := &pipeline.RankingRequest{
		Booking:      conflict.Booking,
		Violations:   conflict.Violations,
		Observations: conflict.Observations,
		Candidates:   candidates,
		MaxPicks:     min(ranker.maxPicks, len(candidates)),
	}

	var picks []pipeline.RankingPick
	var err error
	for attempt := 1; attempt <= rankingAttempts; attempt++ {
		picks, err = ranker.client.Rank(ctx, request)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("rank conflict %d: %w", conflict.ID, err)
		}
		ranker.logger.WarnF("Ranker.RankAndPersist conflict %d attempt %d failed: %v", conflict.ID, attempt, err)
	}
	if err != nil {
		return nil, fmt.Errorf("rank conflict %d: %w", conflict.ID, err)
	}

	proposals := SelectProposals(ranker.logger, picks, candidates, ranker.maxPicks)
	if err := ranker.conflicts.SaveProposals(conflict, proposals, ranker.now()); err != nil {
		return nil, fmt.Errorf("save proposals for conflict %d: %w", conflict.ID, err)
	}
	ranker.logger.InfoF("Conflict %d has %d proposals ready", conflict.ID, len(proposals))
	return proposals, nil
}

// SelectProposals validates the picks against the candidate list. Picks
// with an index outside [1, len(candidates)], a repeated index or a score
// outside [0, 100] are dropped. When fewer than min(maxPicks, len(candidates))
// picks survive the earliest unused candidates fill the gap with a neutral
// score. The result is ordered by score and ranked from 1.
func SelectProposals(logger log.LoggerInterface, picks []pipeline.RankingPick, candidates []pipeline.CandidateSlot, maxPicks int) []*RescheduleProposal {
	want := min(maxPicks, len(candidates))
	used := make(map[int]bool, want)
	proposals := make([]*RescheduleProposal, 0, want)

	for _, pick := range picks {
		if len(proposals) == want {
			break
		}
		switch {
		case pick.Index < 1 || pick.Index > len(candidates):
			logger.WarnF("SelectProposals drop pick with candidate index %d out of range [1, %d]", pick.Index, len(candidates))
			continue
		case used[pick.Index]:
			logger.WarnF("SelectProposals drop duplicated candidate index %d", pick.Index)
			continue
		case pick.Score < minScore || pick.Score > maxScore:
			logger.WarnF("SelectProposals drop candidate index %d with score %d out of range", pick.Index, pick.Score)
			continue
		}
		used[pick.Index] = true
		rationale := pick.Rationale
		if rationale == "" {
			rationale = backfillReason
		}
		proposals = append(proposals, newProposal(candidates[pick.Index-1], pick.Score, rationale))
	}

	for i := 0; i < len(candidates) && len(proposals) < want; i++ {
		if used[i+1] {
			continue
		}
		used[i+1] = true
		proposals = append(proposals, newProposal(candidates[i], backfillScore, backfillReason))
	}

	slices.SortStableFunc(proposals, func(a, b *RescheduleProposal) int { return b.Score - a.Score })
	for i, proposal := range proposals {
		proposal.Rank = i + 1
	}
	return proposals
}

func newProposal(candidate pipeline.CandidateSlot, score int, rationale string) *RescheduleProposal {
	return &RescheduleProposal{
		ProposedStart:      candidate.Start,
		ProposedEnd:        candidate.End,
		InstructorId:       candidate.InstructorId,
		AircraftId:         candidate.AircraftId,
		Score:              score,
		Rationale:          rationale,
		StudentResponse:    ResponsePending,
		InstructorResponse: ResponsePending,
	}
}
