package database_test

import (
	"testing"
	"time"

	"github.com/half-nothing/simple-wxguard/internal/database/dbtest"
	. "github.com/half-nothing/simple-wxguard/internal/interfaces/operation"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/weather"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUpcomingBookings(t *testing.T) {
	db, ops := dbtest.Operations(t)
	fixture := dbtest.Seed(t, db, "student_pilot")
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	inWindow := fixture.Booking(t, db, now.Add(2*time.Hour), time.Hour)
	fixture.Booking(t, db, now.Add(4*time.Hour), time.Hour)
	past := fixture.Booking(t, db, now.Add(-time.Hour), time.Hour)
	cancelled := fixture.Booking(t, db, now.Add(time.Hour), time.Hour)
	require.NoError(t, ops.BookingOperation().TransitBookingStatus(cancelled, BookingStatusScheduled, BookingStatusCancelled))

	bookings, err := ops.BookingOperation().GetUpcomingBookings(now, now.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, inWindow.ID, bookings[0].ID)
	assert.NotEqual(t, past.ID, bookings[0].ID)
	require.NotNil(t, bookings[0].Student)
	assert.Equal(t, "student_pilot", bookings[0].Student.TrainingLevel)
}

func TestGetActiveBookingsOverlapping(t *testing.T) {
	db, ops := dbtest.Operations(t)
	fixture := dbtest.Seed(t, db, "student_pilot")
	other := dbtest.Seed(t, db, "private_pilot")
	base := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)

	self := fixture.Booking(t, db, base.Add(9*time.Hour), 2*time.Hour)
	busy := fixture.Booking(t, db, base.Add(13*time.Hour), 2*time.Hour)
	unrelated := other.Booking(t, db, base.Add(13*time.Hour), 2*time.Hour)

	testCases := []struct {
		name     string
		from, to time.Time
		want     []uint
	}{
		{"touching end is free", base.Add(11 * time.Hour), base.Add(13 * time.Hour), []uint{}},
		{"overlap start", base.Add(12 * time.Hour), base.Add(14 * time.Hour), []uint{busy.ID}},
		{"self excluded", base.Add(9 * time.Hour), base.Add(10 * time.Hour), []uint{}},
		{"inside", base.Add(13*time.Hour + 30*time.Minute), base.Add(14 * time.Hour), []uint{busy.ID}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			bookings, err := ops.BookingOperation().GetActiveBookingsOverlapping(fixture.Instructor.ID, fixture.Aircraft.ID, tc.from, tc.to, self.ID)
			require.NoError(t, err)
			ids := make([]uint, 0, len(bookings))
			for _, booking := range bookings {
				ids = append(ids, booking.ID)
			}
			assert.ElementsMatch(t, tc.want, ids)
			assert.NotContains(t, ids, unrelated.ID)
		})
	}
}

func TestUpdateWeatherSnapshot(t *testing.T) {
	db, ops := dbtest.Operations(t)
	fixture := dbtest.Seed(t, db, "student_pilot")
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	booking := fixture.Booking(t, db, now.Add(time.Hour), time.Hour)

	snapshot := []weather.CheckpointObservation{{
		Checkpoint:  "KAUS",
		Observation: &weather.Observation{AirportCode: "KAUS", VisibilityMiles: 10, CloudCover: 5},
	}}
	require.NoError(t, ops.BookingOperation().UpdateWeatherSnapshot(booking, snapshot, now))

	stored, err := ops.BookingOperation().GetBookingById(booking.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastWeatherCheck)
	assert.True(t, stored.LastWeatherCheck.Equal(now))
	require.Len(t, stored.WeatherSnapshot, 1)
	assert.Equal(t, 10.0, stored.WeatherSnapshot[0].Observation.VisibilityMiles)
	assert.Equal(t, BookingStatusScheduled, stored.Status)
}
