// Package slot
package slot

import (
	"fmt"
	"slices"
	"time"

	"github.com/half-nothing/simple-wxguard/internal/interfaces/log"
	. "github.com/half-nothing/simple-wxguard/internal/interfaces/operation"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/pipeline"
	"github.com/samber/lo"
)

const clockLayout = "15:04"

type Finder struct {
	logger        log.LoggerInterface
	bookings      BookingOperationInterface
	availability  AvailabilityOperationInterface
	location      *time.Location
	step          time.Duration
	maxCandidates int
	now           func() time.Time
}

func NewFinder(
	logger log.LoggerInterface,
	bookings BookingOperationInterface,
	availability AvailabilityOperationInterface,
	location *time.Location,
	step time.Duration,
	maxCandidates int,
) *Finder {
	if location == nil {
		location = time.UTC
	}
	return &Finder{
		logger:        logger,
		bookings:      bookings,
		availability:  availability,
		location:      location,
		step:          step,
		maxCandidates: maxCandidates,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// FindCandidateSlots proposes windows of the booking's duration on the days
// after today, keeping the original instructor and aircraft. Returned slots
// are chronological and never overlap an active booking of either resource.
func (finder *Finder) FindCandidateSlots(booking *Booking, horizonDays int) ([]pipeline.CandidateSlot, error) {
	duration := booking.Duration()
	if duration <= 0 {
		return nil, fmt.Errorf("booking %d has non-positive duration %s", booking.ID, duration)
	}

	patterns, err := finder.availability.GetInstructorPatterns(booking.InstructorId)
	if err != nil {
		return nil, fmt.Errorf("load availability: %w", err)
	}

	now := finder.now().In(finder.location)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, finder.location)
	horizonStart := today.AddDate(0, 0, 1)
	horizonEnd := today.AddDate(0, 0, horizonDays+1)

	busy, err := finder.bookings.GetActiveBookingsOverlapping(booking.InstructorId, booking.AircraftId, horizonStart.UTC(), horizonEnd.UTC(), booking.ID)
	if err != nil {
		return nil, fmt.Errorf("load busy bookings: %w", err)
	}

	slots := make([]pipeline.CandidateSlot, 0)
	for day := horizonStart; day.Before(horizonEnd); day = day.AddDate(0, 0, 1) {
		for _, pattern := range patterns {
			if !Applies(pattern, day) {
				continue
			}
			windows, err := finder.windows(pattern, day, duration)
			if err != nil {
				finder.logger.WarnF("Finder.FindCandidateSlots skip pattern %d: %v", pattern.ID, err)
				continue
			}
			for _, start := range windows {
				end := start.Add(duration)
				if overlapsAny(busy, start, end) {
					continue
				}
				slots = append(slots, pipeline.CandidateSlot{
					Start:        start.UTC(),
					End:          end.UTC(),
					InstructorId: booking.InstructorId,
					AircraftId:   booking.AircraftId,
				})
			}
		}
	}

	slices.SortStableFunc(slots, func(a, b pipeline.CandidateSlot) int { return a.Start.Compare(b.Start) })
	slots = lo.UniqBy(slots, func(slot pipeline.CandidateSlot) int64 { return slot.Start.Unix() })
	if len(slots) > finder.maxCandidates {
		slots = slots[:finder.maxCandidates]
	}
	finder.logger.DebugF("Finder.FindCandidateSlots booking %d: %d candidates from %d patterns", booking.ID, len(slots), len(patterns))
	return slots, nil
}

// Applies reports whether the pattern is open on the given local date.
// A non-recurring pattern only applies on the date of its ValidFrom.
func Applies(pattern *AvailabilityPattern, day time.Time) bool {
	if time.Weekday(pattern.DayOfWeek) != day.Weekday() {
		return false
	}
	date := dateOf(day, day.Location())
	if !pattern.IsRecurring {
		return pattern.ValidFrom != nil && dateOf(*pattern.ValidFrom, day.Location()).Equal(date)
	}
	if pattern.ValidFrom != nil && date.Before(dateOf(*pattern.ValidFrom, day.Location())) {
		return false
	}
	if pattern.ValidUntil != nil && date.After(dateOf(*pattern.ValidUntil, day.Location())) {
		return false
	}
	return true
}

// windows slides a window of duration over the pattern at the finder step,
// a start s is kept only while s+duration <= pattern end
func (finder *Finder) windows(pattern *AvailabilityPattern, day time.Time, duration time.Duration) ([]time.Time, error) {
	open, err := atClock(day, pattern.StartTime)
	if err != nil {
		return nil, err
	}
	closing, err := atClock(day, pattern.EndTime)
	if err != nil {
		return nil, err
	}
	if !closing.After(open) {
		return nil, fmt.Errorf("end %s is not after start %s", pattern.EndTime, pattern.StartTime)
	}
	starts := make([]time.Time, 0)
	for start := open; !start.Add(duration).After(closing); start = start.Add(finder.step) {
		starts = append(starts, start)
	}
	return starts, nil
}

// Overlaps is the half-open interval test, touching endpoints do not overlap
func Overlaps(start, end, otherStart, otherEnd time.Time) bool {
	return otherStart.Before(end) && otherEnd.After(start)
}

func overlapsAny(busy []*Booking, start, end time.Time) bool {
	return lo.SomeBy(busy, func(booking *Booking) bool {
		return Overlaps(start, end, booking.ScheduledStart, booking.ScheduledEnd)
	})
}

func atClock(day time.Time, clock string) (time.Time, error) {
	parsed, err := time.Parse(clockLayout, clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid clock %q: %w", clock, err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), parsed.Hour(), parsed.Minute(), 0, 0, day.Location()), nil
}

func dateOf(t time.Time, location *time.Location) time.Time {
	t = t.In(location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, location)
}
