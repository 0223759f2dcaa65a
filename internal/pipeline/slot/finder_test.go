package slot

import (
	"testing"
	"time"

	"github.com/half-nothing/simple-wxguard/internal/base"
	"github.com/half-nothing/simple-wxguard/internal/database/dbtest"
	. "github.com/half-nothing/simple-wxguard/internal/interfaces/operation"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Monday
var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type harness struct {
	db      *gorm.DB
	ops     *DatabaseOperations
	fixture *dbtest.Fixture
	held    *Booking
}

func newHarness(t *testing.T) *harness {
	db, ops := dbtest.Operations(t)
	fixture := dbtest.Seed(t, db, "student_pilot")
	held := fixture.Booking(t, db, now.Add(2*time.Hour), 2*time.Hour)
	require.NoError(t, db.Model(held).Update("status", BookingStatusWeatherHold).Error)
	return &harness{db: db, ops: ops, fixture: fixture, held: held}
}

func (h *harness) finder(location *time.Location, maxCandidates int) *Finder {
	finder := NewFinder(base.NewLogger(), h.ops.BookingOperation(), h.ops.AvailabilityOperation(), location, time.Hour, maxCandidates)
	finder.now = func() time.Time { return now }
	return finder
}

func (h *harness) pattern(t *testing.T, day time.Weekday, start, end string, mutate ...func(*AvailabilityPattern)) {
	pattern := &AvailabilityPattern{
		InstructorId: h.fixture.Instructor.ID,
		DayOfWeek:    int(day),
		StartTime:    start,
		EndTime:      end,
		IsRecurring:  true,
	}
	for _, fn := range mutate {
		fn(pattern)
	}
	require.NoError(t, h.ops.AvailabilityOperation().SavePattern(pattern))
}

func starts(slots []pipeline.CandidateSlot) []time.Time {
	result := make([]time.Time, len(slots))
	for i, slot := range slots {
		result[i] = slot.Start
	}
	return result
}

func at(day, hour int) time.Time {
	return time.Date(2025, 3, day, hour, 0, 0, 0, time.UTC)
}

func TestFindCandidateSlotsSlidesWindow(t *testing.T) {
	h := newHarness(t)
	h.pattern(t, time.Tuesday, "09:00", "13:00")

	slots, err := h.finder(time.UTC, 20).FindCandidateSlots(h.held, 7)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{at(11, 9), at(11, 10), at(11, 11)}, starts(slots))
	for _, slot := range slots {
		assert.Equal(t, 2*time.Hour, slot.End.Sub(slot.Start))
		assert.Equal(t, h.fixture.Instructor.ID, slot.InstructorId)
		assert.Equal(t, h.fixture.Aircraft.ID, slot.AircraftId)
	}
}

func TestFindCandidateSlotsSkipsBusyResources(t *testing.T) {
	h := newHarness(t)
	h.pattern(t, time.Tuesday, "09:00", "13:00")
	h.pattern(t, time.Wednesday, "09:00", "12:00")
	// instructor busy 11:00-12:00 Tuesday, touching the 09:00 slot only at its end
	h.fixture.Booking(t, h.db, at(11, 11), time.Hour)

	// aircraft busy Wednesday morning with another crew
	other := dbtest.Seed(t, h.db, "private_pilot")
	other.Aircraft = h.fixture.Aircraft
	other.Booking(t, h.db, at(12, 9), 30*time.Minute)

	// cancelled bookings never block
	cancelled := h.fixture.Booking(t, h.db, at(12, 10), 2*time.Hour)
	require.NoError(t, h.db.Model(cancelled).Update("status", BookingStatusCancelled).Error)

	slots, err := h.finder(time.UTC, 20).FindCandidateSlots(h.held, 7)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{at(11, 9), at(12, 10)}, starts(slots))
}

func TestFindCandidateSlotsHonoursValidity(t *testing.T) {
	h := newHarness(t)
	until := at(14, 0)
	h.pattern(t, time.Tuesday, "09:00", "11:00", func(p *AvailabilityPattern) { p.ValidUntil = &until })
	h.pattern(t, time.Sunday, "09:00", "11:00", func(p *AvailabilityPattern) { p.ValidUntil = &until })
	from := at(15, 0)
	h.pattern(t, time.Saturday, "14:00", "16:00", func(p *AvailabilityPattern) {
		p.IsRecurring = false
		p.ValidFrom = &from
	})
	h.pattern(t, time.Friday, "14:00", "16:00", func(p *AvailabilityPattern) { p.IsRecurring = false })

	slots, err := h.finder(time.UTC, 20).FindCandidateSlots(h.held, 7)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{at(11, 9), at(15, 14)}, starts(slots))
}

func TestFindCandidateSlotsTruncatesAndDeduplicates(t *testing.T) {
	h := newHarness(t)
	for _, day := range []time.Weekday{time.Tuesday, time.Wednesday, time.Thursday} {
		h.pattern(t, day, "06:00", "18:00")
		h.pattern(t, day, "06:00", "18:00")
	}

	slots, err := h.finder(time.UTC, 20).FindCandidateSlots(h.held, 7)
	require.NoError(t, err)
	require.Len(t, slots, 20)
	assert.Equal(t, at(11, 6), slots[0].Start)
	for i := 1; i < len(slots); i++ {
		assert.True(t, slots[i].Start.After(slots[i-1].Start))
	}
}

func TestFindCandidateSlotsUsesSchoolTimezone(t *testing.T) {
	h := newHarness(t)
	h.pattern(t, time.Tuesday, "09:00", "11:00")

	slots, err := h.finder(time.FixedZone("CST", -6*3600), 20).FindCandidateSlots(h.held, 7)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{at(11, 15)}, starts(slots))
	assert.Equal(t, time.UTC, slots[0].Start.Location())
}

func TestFindCandidateSlotsWithoutAvailability(t *testing.T) {
	h := newHarness(t)

	slots, err := h.finder(time.UTC, 20).FindCandidateSlots(h.held, 7)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestOverlaps(t *testing.T) {
	testCases := []struct {
		name                 string
		otherStart, otherEnd time.Time
		want                 bool
	}{
		{"touching before", at(11, 8), at(11, 9), false},
		{"touching after", at(11, 11), at(11, 12), false},
		{"inside", at(11, 9), at(11, 10), true},
		{"covering", at(11, 8), at(11, 12), true},
		{"straddling start", at(11, 8), at(11, 10), true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Overlaps(at(11, 9), at(11, 11), tc.otherStart, tc.otherEnd))
		})
	}
}
