// Package database
package database

import (
	"context"
	"errors"
	"time"

	. "github.com/half-nothing/simple-wxguard/internal/interfaces/operation"
	"gorm.io/gorm"
)

type ProposalOperation struct {
	db           *gorm.DB
	queryTimeout time.Duration
}

func NewProposalOperation(db *gorm.DB, queryTimeout time.Duration) *ProposalOperation {
	return &ProposalOperation{db: db, queryTimeout: queryTimeout}
}

func (proposalOperation *ProposalOperation) GetProposalById(id uint) (proposal *RescheduleProposal, err error) {
	proposal = &RescheduleProposal{}
	ctx, cancel := context.WithTimeout(context.Background(), proposalOperation.queryTimeout)
	defer cancel()
	err = proposalOperation.db.WithContext(ctx).
		Preload("Conflict.Booking").
		Where("id = ?", id).
		First(proposal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = ErrProposalNotFound
	}
	return
}

func (proposalOperation *ProposalOperation) GetProposalsByConflict(conflictId uint) (proposals []*RescheduleProposal, err error) {
	proposals = make([]*RescheduleProposal, 0)
	ctx, cancel := context.WithTimeout(context.Background(), proposalOperation.queryTimeout)
	defer cancel()
	err = proposalOperation.db.WithContext(ctx).
		Where("conflict_id = ?", conflictId).
		Order("ranking").
		Find(&proposals).Error
	return
}

func (proposalOperation *ProposalOperation) RespondToProposal(proposal *RescheduleProposal, role, decision string, now time.Time) (rescheduled bool, err error) {
	var responseColumn, respondedColumn string
	switch role {
	case RoleStudent:
		responseColumn, respondedColumn = "student_response", "student_responded_at"
	case RoleInstructor:
		responseColumn, respondedColumn = "instructor_response", "instructor_responded_at"
	default:
		return false, ErrNotParticipant
	}
	if decision != ResponseAccepted && decision != ResponseRejected {
		return false, ErrInvalidTransition
	}

	ctx, cancel := context.WithTimeout(context.Background(), proposalOperation.queryTimeout)
	defer cancel()
	err = proposalOperation.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		conflict := &WeatherConflict{}
		if err := tx.Select("id", "booking_id", "status").Where("id = ?", proposal.ConflictId).First(conflict).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrConflictNotFound
			}
			return err
		}
		if conflict.Status != ConflictStatusProposalsReady {
			return ErrConflictResolved
		}

		result := tx.Model(&RescheduleProposal{}).
			Where("id = ? AND "+responseColumn+" = ?", proposal.ID, ResponsePending).
			Updates(map[string]interface{}{
				responseColumn:  decision,
				respondedColumn: now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrAlreadyResponded
		}

		if decision != ResponseAccepted {
			return nil
		}

		var taken int64
		if err := activeOverlapping(tx, proposal.InstructorId, proposal.AircraftId, proposal.ProposedStart, proposal.ProposedEnd, conflict.BookingId).
			Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return ErrSlotTaken
		}

		if err := resolveConflict(tx, conflict.ID, []string{ConflictStatusProposalsReady}, ResolutionRescheduled, now); err != nil {
			return err
		}
		result = tx.Model(&Booking{}).
			Where("id = ? AND status = ?", conflict.BookingId, BookingStatusWeatherHold).
			Updates(map[string]interface{}{
				"scheduled_start": proposal.ProposedStart,
				"scheduled_end":   proposal.ProposedEnd,
				"instructor_id":   proposal.InstructorId,
				"aircraft_id":     proposal.AircraftId,
				"status":          BookingStatusScheduled,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrInvalidTransition
		}
		rescheduled = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if role == RoleStudent {
		proposal.StudentResponse, proposal.StudentRespondedAt = decision, &now
	} else {
		proposal.InstructorResponse, proposal.InstructorRespondedAt = decision, &now
	}
	return
}
