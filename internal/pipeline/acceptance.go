package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/half-nothing/simple-wxguard/internal/interfaces/dispatch"
	. "github.com/half-nothing/simple-wxguard/internal/interfaces/operation"
)

func participantRole(booking *Booking, userId uint) (string, error) {
	switch userId {
	case booking.StudentId:
		return RoleStudent, nil
	case booking.InstructorId:
		return RoleInstructor, nil
	}
	return "", ErrNotParticipant
}

// RespondToProposal records the answer of the student or instructor of the
// booking. The first acceptance by either party moves the booking to the
// proposed slot and resolves the conflict.
func (p *Pipeline) RespondToProposal(ctx context.Context, proposalId, userId uint, decision string) (*RescheduleProposal, bool, error) {
	proposal, err := p.proposals.GetProposalById(proposalId)
	if err != nil {
		return nil, false, err
	}
	if proposal.Conflict == nil || proposal.Conflict.Booking == nil {
		return nil, false, ErrConflictNotFound
	}
	role, err := participantRole(proposal.Conflict.Booking, userId)
	if err != nil {
		return nil, false, err
	}

	rescheduled, err := p.proposals.RespondToProposal(proposal, role, decision, p.now())
	if err != nil {
		return nil, false, err
	}
	p.logger.InfoF("Proposal %d %s by %s %d", proposal.ID, decision, role, userId)
	if rescheduled {
		p.logger.InfoF("Booking %d rescheduled to %s", proposal.Conflict.BookingId, proposal.ProposedStart)
		if err := p.dispatcher.Dispatch(ctx, dispatch.StageNotify, proposal.ConflictId); err != nil {
			p.logger.ErrorF("Pipeline.RespondToProposal notify dispatch for conflict %d failed: %v", proposal.ConflictId, err)
		}
	}
	return proposal, rescheduled, nil
}

// CancelBooking cancels a booking on weather hold. A booking whose conflict
// already ended without slots is cancelled on its own and nil is returned.
func (p *Pipeline) CancelBooking(ctx context.Context, bookingId, userId uint) (*WeatherConflict, error) {
	booking, err := p.bookings.GetBookingById(bookingId)
	if err != nil {
		return nil, err
	}
	if _, err := participantRole(booking, userId); err != nil {
		return nil, err
	}

	conflict, err := p.conflicts.GetOpenConflictByBooking(booking.ID)
	if errors.Is(err, ErrConflictNotFound) {
		if err := p.bookings.TransitBookingStatus(booking, BookingStatusWeatherHold, BookingStatusCancelled); err != nil {
			return nil, err
		}
		p.logger.InfoF("Booking %d cancelled by user %d", booking.ID, userId)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup open conflict: %w", err)
	}

	conflict.Booking = booking
	if err := p.conflicts.CancelHeldBooking(conflict, p.now()); err != nil {
		return nil, err
	}
	p.logger.InfoF("Booking %d cancelled by user %d, conflict %d resolved", booking.ID, userId, conflict.ID)
	if err := p.dispatcher.Dispatch(ctx, dispatch.StageNotify, conflict.ID); err != nil {
		p.logger.ErrorF("Pipeline.CancelBooking notify dispatch for conflict %d failed: %v", conflict.ID, err)
	}
	return conflict, nil
}
