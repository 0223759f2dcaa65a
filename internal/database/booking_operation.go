// Package database
package database

import (
	"context"
	"errors"
	"time"

	. "github.com/half-nothing/simple-wxguard/internal/interfaces/operation"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/weather"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookingOperation struct {
	db           *gorm.DB
	queryTimeout time.Duration
}

func NewBookingOperation(db *gorm.DB, queryTimeout time.Duration) *BookingOperation {
	return &BookingOperation{db: db, queryTimeout: queryTimeout}
}

func (bookingOperation *BookingOperation) GetBookingById(id uint) (booking *Booking, err error) {
	booking = &Booking{}
	ctx, cancel := context.WithTimeout(context.Background(), bookingOperation.queryTimeout)
	defer cancel()
	err = bookingOperation.db.WithContext(ctx).
		Preload("Student").
		Preload("Instructor").
		Preload("Aircraft").
		Where("id = ?", id).
		First(booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = ErrBookingNotFound
	}
	return
}

func (bookingOperation *BookingOperation) GetUpcomingBookings(from, to time.Time) (bookings []*Booking, err error) {
	bookings = make([]*Booking, 0)
	ctx, cancel := context.WithTimeout(context.Background(), bookingOperation.queryTimeout)
	defer cancel()
	err = bookingOperation.db.WithContext(ctx).
		Preload("Student").
		Preload("Aircraft").
		Where("status = ? AND scheduled_start >= ? AND scheduled_start <= ?", BookingStatusScheduled, from, to).
		Order("scheduled_start").
		Find(&bookings).Error
	return
}

func (bookingOperation *BookingOperation) GetActiveBookingsOverlapping(instructorId, aircraftId uint, from, to time.Time, excludeId uint) (bookings []*Booking, err error) {
	bookings = make([]*Booking, 0)
	ctx, cancel := context.WithTimeout(context.Background(), bookingOperation.queryTimeout)
	defer cancel()
	err = activeOverlapping(bookingOperation.db.WithContext(ctx), instructorId, aircraftId, from, to, excludeId).
		Order("scheduled_start").
		Find(&bookings).Error
	return
}

// activeOverlapping scopes tx to active bookings sharing the instructor or
// aircraft whose half-open interval intersects [from, to)
func activeOverlapping(tx *gorm.DB, instructorId, aircraftId uint, from, to time.Time, excludeId uint) *gorm.DB {
	return tx.Model(&Booking{}).
		Where("id <> ?", excludeId).
		Where("status IN ?", BookingActiveStatuses).
		Where("(instructor_id = ? OR aircraft_id = ?)", instructorId, aircraftId).
		Where("scheduled_start < ? AND scheduled_end > ?", to, from)
}

func (bookingOperation *BookingOperation) UpdateWeatherSnapshot(booking *Booking, snapshot []weather.CheckpointObservation, checkedAt time.Time) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), bookingOperation.queryTimeout)
	defer cancel()
	booking.WeatherSnapshot = snapshot
	booking.LastWeatherCheck = &checkedAt
	return bookingOperation.db.WithContext(ctx).
		Model(booking).
		Select("WeatherSnapshot", "LastWeatherCheck").
		Updates(booking).Error
}

func (bookingOperation *BookingOperation) TransitBookingStatus(booking *Booking, from, to string) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), bookingOperation.queryTimeout)
	defer cancel()
	if err = transitBookingStatus(bookingOperation.db.WithContext(ctx), booking.ID, from, to); err != nil {
		return
	}
	booking.Status = to
	return
}

func (bookingOperation *BookingOperation) SaveBooking(booking *Booking) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), bookingOperation.queryTimeout)
	defer cancel()
	return bookingOperation.db.WithContext(ctx).Omit(clause.Associations).Save(booking).Error
}

func transitBookingStatus(tx *gorm.DB, bookingId uint, from, to string) error {
	result := tx.Model(&Booking{}).
		Where("id = ? AND status = ?", bookingId, from).
		Update("status", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInvalidTransition
	}
	return nil
}

type AvailabilityOperation struct {
	db           *gorm.DB
	queryTimeout time.Duration
}

func NewAvailabilityOperation(db *gorm.DB, queryTimeout time.Duration) *AvailabilityOperation {
	return &AvailabilityOperation{db: db, queryTimeout: queryTimeout}
}

func (availabilityOperation *AvailabilityOperation) GetInstructorPatterns(instructorId uint) (patterns []*AvailabilityPattern, err error) {
	patterns = make([]*AvailabilityPattern, 0)
	ctx, cancel := context.WithTimeout(context.Background(), availabilityOperation.queryTimeout)
	defer cancel()
	err = availabilityOperation.db.WithContext(ctx).
		Where("instructor_id = ?", instructorId).
		Order("day_of_week, start_time").
		Find(&patterns).Error
	return
}

func (availabilityOperation *AvailabilityOperation) SavePattern(pattern *AvailabilityPattern) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), availabilityOperation.queryTimeout)
	defer cancel()
	return availabilityOperation.db.WithContext(ctx).Save(pattern).Error
}
