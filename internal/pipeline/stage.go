package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/half-nothing/simple-wxguard/internal/interfaces/dispatch"
	. "github.com/half-nothing/simple-wxguard/internal/interfaces/operation"
)

// HandleRankJob finds candidate slots for a detected conflict and ranks them.
// Jobs for conflicts that already moved on only re-announce the current
// state, the notifier deduplicates.
func (p *Pipeline) HandleRankJob(ctx context.Context, job *dispatch.Job) error {
	conflict, err := p.conflicts.GetConflictById(job.ConflictId)
	if err != nil {
		if errors.Is(err, ErrConflictNotFound) {
			return dispatch.Permanent(err)
		}
		return fmt.Errorf("load conflict: %w", err)
	}

	switch conflict.Status {
	case ConflictStatusProposalsReady, ConflictStatusResolved:
		p.logger.DebugF("Pipeline.HandleRankJob conflict %d already %s", conflict.ID, conflict.Status)
		return p.dispatcher.Dispatch(ctx, dispatch.StageNotify, conflict.ID)
	}
	if conflict.Booking == nil {
		return dispatch.Permanent(fmt.Errorf("conflict %d: %w", conflict.ID, ErrBookingNotFound))
	}

	now := p.now()
	staleBefore := now.Add(-p.staleGrace)
	if job.Attempt > 1 {
		// a retry takes back the claim its own earlier attempt left behind
		staleBefore = now
	}
	claimed, err := p.conflicts.MarkProcessing(conflict, now, staleBefore)
	if err != nil {
		return fmt.Errorf("claim conflict: %w", err)
	}
	if !claimed {
		p.logger.DebugF("Pipeline.HandleRankJob conflict %d is processed elsewhere", conflict.ID)
		return nil
	}

	slots, err := p.finder.FindCandidateSlots(conflict.Booking, p.horizonDays)
	if err != nil {
		return fmt.Errorf("find candidate slots: %w", err)
	}

	if len(slots) == 0 {
		if err := p.conflicts.ResolveConflict(conflict, ResolutionNoSlotsAvailable, p.now()); err != nil && !errors.Is(err, ErrConflictResolved) {
			return fmt.Errorf("resolve conflict: %w", err)
		}
		p.logger.InfoF("Conflict %d resolved, no slots available within %d days", conflict.ID, p.horizonDays)
		return p.dispatcher.Dispatch(ctx, dispatch.StageNotify, conflict.ID)
	}

	if _, err := p.ranker.RankAndPersist(ctx, conflict, slots); err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			// the claim was taken over by a re-drive that already stored proposals
			return nil
		}
		return err
	}
	return p.dispatcher.Dispatch(ctx, dispatch.StageNotify, conflict.ID)
}

func (p *Pipeline) HandleNotifyJob(_ context.Context, job *dispatch.Job) error {
	sent, err := p.notifier.NotifyConflict(job.ConflictId)
	if errors.Is(err, ErrConflictNotFound) {
		return dispatch.Permanent(err)
	}
	if err != nil {
		return err
	}
	p.logger.DebugF("Pipeline.HandleNotifyJob conflict %d, %d notifications sent", job.ConflictId, sent)
	return nil
}

// ProcessInline runs the rank and notify stages for each conflict in the
// calling goroutine, used by single pass runs that exit afterwards
func (p *Pipeline) ProcessInline(ctx context.Context, conflictIds []uint) error {
	var errs []error
	for _, conflictId := range conflictIds {
		rank := &dispatch.Job{Stage: dispatch.StageRank, ConflictId: conflictId, Attempt: 1, EnqueuedAt: p.now()}
		err := p.HandleRankJob(ctx, rank)
		if err != nil && !errors.Is(err, dispatch.ErrQueueFull) && !errors.Is(err, dispatch.ErrDispatcherClosed) {
			errs = append(errs, fmt.Errorf("rank conflict %d: %w", conflictId, err))
			continue
		}
		notify := &dispatch.Job{Stage: dispatch.StageNotify, ConflictId: conflictId, Attempt: 1, EnqueuedAt: p.now()}
		if err := p.HandleNotifyJob(ctx, notify); err != nil {
			errs = append(errs, fmt.Errorf("notify conflict %d: %w", conflictId, err))
		}
	}
	return errors.Join(errs...)
}
