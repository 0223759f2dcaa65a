package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/half-nothing/simple-wxguard/internal/interfaces/dispatch"
	. "github.com/half-nothing/simple-wxguard/internal/interfaces/operation"
)

// FindStaleConflicts lists conflicts stuck in detected or ai_processing for longer than the grace period
func (p *Pipeline) FindStaleConflicts(now time.Time) ([]*WeatherConflict, error) {
	return p.conflicts.GetStaleConflicts(now.UTC().Add(-p.staleGrace))
}

// Redrive dispatches the stage the conflict is waiting for. Open conflicts
// go back to ranking, finished ones are announced again.
func (p *Pipeline) Redrive(ctx context.Context, conflictId uint) (*WeatherConflict, error) {
	conflict, err := p.conflicts.GetConflictById(conflictId)
	if err != nil {
		return nil, err
	}
	stage := dispatch.StageRank
	if conflict.Status == ConflictStatusProposalsReady || conflict.Status == ConflictStatusResolved {
		stage = dispatch.StageNotify
	}
	if err := p.dispatcher.Dispatch(ctx, stage, conflict.ID); err != nil {
		return nil, fmt.Errorf("dispatch %s: %w", stage, err)
	}
	p.logger.InfoF("Conflict %d in status %s re-driven to %s", conflict.ID, conflict.Status, stage)
	return conflict, nil
}

// RedriveStale re-drives every stale conflict, one failure does not stop the rest
func (p *Pipeline) RedriveStale(ctx context.Context, now time.Time) (int, error) {
	conflicts, err := p.FindStaleConflicts(now)
	if err != nil {
		return 0, err
	}
	redriven := 0
	for _, conflict := range conflicts {
		if err := p.dispatcher.Dispatch(ctx, dispatch.StageRank, conflict.ID); err != nil {
			p.logger.ErrorF("Pipeline.RedriveStale conflict %d: %v", conflict.ID, err)
			continue
		}
		redriven++
	}
	if len(conflicts) > 0 {
		p.logger.WarnF("%d stale conflicts found, %d re-driven", len(conflicts), redriven)
	}
	return redriven, nil
}
