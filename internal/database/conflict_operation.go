// Package database
package database

import (
	"context"
	"errors"
	"time"

	. "github.com/half-nothing/simple-wxguard/internal/interfaces/operation"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ConflictOperation struct {
	db           *gorm.DB
	queryTimeout time.Duration
}

func NewConflictOperation(db *gorm.DB, queryTimeout time.Duration) *ConflictOperation {
	return &ConflictOperation{db: db, queryTimeout: queryTimeout}
}

func (conflictOperation *ConflictOperation) GetConflictById(id uint) (conflict *WeatherConflict, err error) {
	conflict = &WeatherConflict{}
	ctx, cancel := context.WithTimeout(context.Background(), conflictOperation.queryTimeout)
	defer cancel()
	err = conflictOperation.db.WithContext(ctx).
		Preload("Booking.Student").
		Preload("Booking.Instructor").
		Preload("Booking.Aircraft").
		Preload("Proposals", func(db *gorm.DB) *gorm.DB { return db.Order("ranking") }).
		Where("id = ?", id).
		First(conflict).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = ErrConflictNotFound
	}
	return
}

func (conflictOperation *ConflictOperation) GetOpenConflictByBooking(bookingId uint) (conflict *WeatherConflict, err error) {
	conflict = &WeatherConflict{}
	ctx, cancel := context.WithTimeout(context.Background(), conflictOperation.queryTimeout)
	defer cancel()
	err = conflictOperation.db.WithContext(ctx).
		Where("open_booking_id = ?", bookingId).
		First(conflict).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = ErrConflictNotFound
	}
	return
}

func (conflictOperation *ConflictOperation) GetLatestConflictByBooking(bookingId uint) (conflict *WeatherConflict, err error) {
	conflict = &WeatherConflict{}
	ctx, cancel := context.WithTimeout(context.Background(), conflictOperation.queryTimeout)
	defer cancel()
	err = conflictOperation.db.WithContext(ctx).
		Where("booking_id = ?", bookingId).
		Order("detected_at desc").
		Order("id desc").
		First(conflict).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = ErrConflictNotFound
	}
	return
}

func (conflictOperation *ConflictOperation) CreateConflictAndHold(conflict *WeatherConflict, booking *Booking) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), conflictOperation.queryTimeout)
	defer cancel()
	openBookingId := booking.ID
	conflict.BookingId = booking.ID
	conflict.OpenBookingId = &openBookingId
	conflict.Status = ConflictStatusDetected
	err = conflictOperation.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(conflict).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrConflictExists
			}
			return err
		}
		return transitBookingStatus(tx, booking.ID, BookingStatusScheduled, BookingStatusWeatherHold)
	})
	if err != nil {
		conflict.ID = 0
		return
	}
	booking.Status = BookingStatusWeatherHold
	return
}

func (conflictOperation *ConflictOperation) MarkProcessing(conflict *WeatherConflict, now, staleBefore time.Time) (claimed bool, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), conflictOperation.queryTimeout)
	defer cancel()
	result := conflictOperation.db.WithContext(ctx).
		Model(&WeatherConflict{}).
		Where("id = ?", conflict.ID).
		Where("status = ? OR (status = ? AND processing_started_at < ?)",
			ConflictStatusDetected, ConflictStatusAiProcessing, staleBefore).
		Updates(map[string]interface{}{
			"status":                ConflictStatusAiProcessing,
			"processing_started_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	conflict.Status = ConflictStatusAiProcessing
	conflict.ProcessingStartedAt = &now
	return true, nil
}

func (conflictOperation *ConflictOperation) SaveProposals(conflict *WeatherConflict, proposals []*RescheduleProposal, now time.Time) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), conflictOperation.queryTimeout)
	defer cancel()
	err = conflictOperation.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&RescheduleProposal{}).Where("conflict_id = ?", conflict.ID).Count(&existing).Error; err != nil {
			return err
		}
		if existing == 0 && len(proposals) > 0 {
			for _, proposal := range proposals {
				proposal.ConflictId = conflict.ID
			}
			if err := tx.Omit(clause.Associations).Create(proposals).Error; err != nil {
				return err
			}
		}
		result := tx.Model(&WeatherConflict{}).
			Where("id = ? AND status = ?", conflict.ID, ConflictStatusAiProcessing).
			Updates(map[string]interface{}{
				"status":              ConflictStatusProposalsReady,
				"processing_ended_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrInvalidTransition
		}
		return nil
	})
	if err != nil {
		return
	}
	conflict.Status = ConflictStatusProposalsReady
	conflict.ProcessingEndedAt = &now
	conflict.Proposals = proposals
	return
}

func (conflictOperation *ConflictOperation) ResolveConflict(conflict *WeatherConflict, method string, now time.Time) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), conflictOperation.queryTimeout)
	defer cancel()
	if err = resolveConflict(conflictOperation.db.WithContext(ctx), conflict.ID, nil, method, now); err != nil {
		return
	}
	markResolved(conflict, method, now)
	return
}

func (conflictOperation *ConflictOperation) CancelHeldBooking(conflict *WeatherConflict, now time.Time) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), conflictOperation.queryTimeout)
	defer cancel()
	err = conflictOperation.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := transitBookingStatus(tx, conflict.BookingId, BookingStatusWeatherHold, BookingStatusCancelled); err != nil {
			return err
		}
		return resolveConflict(tx, conflict.ID, nil, ResolutionCancelled, now)
	})
	if err != nil {
		return
	}
	markResolved(conflict, ResolutionCancelled, now)
	if conflict.Booking != nil {
		conflict.Booking.Status = BookingStatusCancelled
	}
	return
}

func (conflictOperation *ConflictOperation) GetStaleConflicts(before time.Time) (conflicts []*WeatherConflict, err error) {
	conflicts = make([]*WeatherConflict, 0)
	ctx, cancel := context.WithTimeout(context.Background(), conflictOperation.queryTimeout)
	defer cancel()
	err = conflictOperation.db.WithContext(ctx).
		Where("(status = ? AND detected_at < ?) OR (status = ? AND processing_started_at < ?)",
			ConflictStatusDetected, before, ConflictStatusAiProcessing, before).
		Order("detected_at").
		Find(&conflicts).Error
	return
}

// resolveConflict closes a conflict that is still open, statuses restricts
// which open statuses qualify when non-empty
func resolveConflict(tx *gorm.DB, conflictId uint, statuses []string, method string, now time.Time) error {
	query := tx.Model(&WeatherConflict{}).
		Where("id = ? AND status <> ?", conflictId, ConflictStatusResolved)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	result := query.Updates(map[string]interface{}{
		"status":            ConflictStatusResolved,
		"resolution_method": method,
		"resolved_at":       now,
		"open_booking_id":   gorm.Expr("NULL"),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConflictResolved
	}
	return nil
}

func markResolved(conflict *WeatherConflict, method string, now time.Time) {
	conflict.Status = ConflictStatusResolved
	conflict.ResolutionMethod = method
	conflict.ResolvedAt = &now
	conflict.OpenBookingId = nil
}
