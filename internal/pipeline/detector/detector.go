// Package detector
package detector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/half-nothing/simple-wxguard/internal/interfaces/dispatch"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/log"
	. "github.com/half-nothing/simple-wxguard/internal/interfaces/operation"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/pipeline"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/weather"
	wx "github.com/half-nothing/simple-wxguard/internal/weather"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

type Detector struct {
	logger        log.LoggerInterface
	bookings      BookingOperationInterface
	conflicts     ConflictOperationInterface
	gateway       weather.GatewayInterface
	minima        *wx.MinimaTable
	dispatcher    dispatch.DispatcherInterface
	lookahead     time.Duration
	maxConcurrent int
}

func NewDetector(
	logger log.LoggerInterface,
	bookings BookingOperationInterface,
	conflicts ConflictOperationInterface,
	gateway weather.GatewayInterface,
	minima *wx.MinimaTable,
	dispatcher dispatch.DispatcherInterface,
	lookahead time.Duration,
	maxConcurrent int,
) *Detector {
	return &Detector{
		logger:        logger,
		bookings:      bookings,
		conflicts:     conflicts,
		gateway:       gateway,
		minima:        minima,
		dispatcher:    dispatcher,
		lookahead:     lookahead,
		maxConcurrent: max(maxConcurrent, 1),
	}
}

// Checkpoints lists where weather is evaluated: departure, destination for
// cross-country flights and the middle waypoint of long cross-country routes
func Checkpoints(booking *Booking) []string {
	checkpoints := []string{booking.DepartureAirport}
	crossCountry := booking.FlightType == FlightTypeShortCrossCountry || booking.FlightType == FlightTypeLongCrossCountry
	if booking.FlightType == FlightTypeLongCrossCountry && len(booking.Waypoints) > 0 {
		checkpoints = append(checkpoints, booking.Waypoints[len(booking.Waypoints)/2])
	}
	if crossCountry && booking.DestinationAirport != "" {
		checkpoints = append(checkpoints, booking.DestinationAirport)
	}
	checkpoints = lo.Map(checkpoints, func(code string, _ int) string { return strings.ToUpper(strings.TrimSpace(code)) })
	return lo.Uniq(lo.Compact(checkpoints))
}

func (detector *Detector) RunDetectionPass(ctx context.Context, now time.Time) (*pipeline.DetectionReport, error) {
	now = now.UTC()
	bookings, err := detector.bookings.GetUpcomingBookings(now, now.Add(detector.lookahead))
	if err != nil {
		return nil, fmt.Errorf("select upcoming bookings: %w", err)
	}

	report := &pipeline.DetectionReport{
		StartedAt: now,
		Created:   make([]*pipeline.ConflictCreated, 0),
		Failed:    make([]*pipeline.BookingFailure, 0),
	}
	for _, booking := range bookings {
		if ctx.Err() != nil {
			report.Failed = append(report.Failed, &pipeline.BookingFailure{BookingId: booking.ID, Error: ctx.Err().Error()})
			continue
		}
		report.Checked++
		created, clear, err := detector.checkBooking(ctx, booking, now)
		switch {
		case err != nil:
			detector.logger.ErrorF("Detector.RunDetectionPass booking %d failed: %v", booking.ID, err)
			report.Failed = append(report.Failed, &pipeline.BookingFailure{BookingId: booking.ID, Error: err.Error()})
		case clear:
			report.Clear++
		case created != nil:
			report.Created = append(report.Created, created)
		default:
			report.Existing++
		}
	}

	detector.logger.InfoF("Detection pass checked %d bookings: %d clear, %d new conflicts, %d existing, %d failed",
		report.Checked, report.Clear, len(report.Created), report.Existing, len(report.Failed))
	return report, nil
}

// observe fetches every checkpoint concurrently, failures become unknown checkpoints
func (detector *Detector) observe(ctx context.Context, booking *Booking) []weather.CheckpointObservation {
	checkpoints := Checkpoints(booking)
	results := make([]weather.CheckpointObservation, len(checkpoints))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(detector.maxConcurrent)
	for i, checkpoint := range checkpoints {
		group.Go(func() error {
			results[i] = weather.CheckpointObservation{Checkpoint: checkpoint}
			observation, err := detector.gateway.GetObservation(groupCtx, checkpoint, booking.ScheduledStart)
			if err != nil {
				detector.logger.WarnF("Detector booking %d checkpoint %s unavailable: %v", booking.ID, checkpoint, err)
				results[i].Error = err.Error()
				return nil
			}
			results[i].Observation = observation
			return nil
		})
	}
	_ = group.Wait()
	return results
}

// checkBooking returns the new conflict, clear when the booking is within
// minima, or neither when an open conflict already covers it
func (detector *Detector) checkBooking(ctx context.Context, booking *Booking, now time.Time) (created *pipeline.ConflictCreated, clear bool, err error) {
	observations := detector.observe(ctx, booking)

	var level string
	if booking.Student != nil {
		level = booking.Student.TrainingLevel
	}
	var override *weather.MinimaProfile
	if booking.Aircraft != nil {
		override = booking.Aircraft.Minima
	}
	violations := wx.Evaluate(detector.minima.Effective(level, override), observations)

	if len(violations) == 0 {
		if err := detector.bookings.UpdateWeatherSnapshot(booking, observations, now); err != nil {
			return nil, false, fmt.Errorf("write snapshot: %w", err)
		}
		return nil, true, nil
	}

	existing, err := detector.conflicts.GetOpenConflictByBooking(booking.ID)
	switch {
	case err == nil:
		return nil, false, detector.repair(ctx, booking, existing, observations, now)
	case !errors.Is(err, ErrConflictNotFound):
		return nil, false, fmt.Errorf("lookup open conflict: %w", err)
	}

	conflict := &WeatherConflict{
		DetectedAt:    now,
		OriginalStart: booking.ScheduledStart,
		Observations:  observations,
		Violations:    violations,
	}
	if err := detector.conflicts.CreateConflictAndHold(conflict, booking); err != nil {
		if errors.Is(err, ErrConflictExists) {
			// a concurrent pass won the race
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("create conflict: %w", err)
	}
	if err := detector.bookings.UpdateWeatherSnapshot(booking, observations, now); err != nil {
		detector.logger.WarnF("Detector booking %d snapshot not written: %v", booking.ID, err)
	}
	detector.logger.InfoF("Weather conflict %d created for booking %d with %d violations", conflict.ID, booking.ID, len(violations))

	if err := detector.dispatcher.Dispatch(ctx, dispatch.StageRank, conflict.ID); err != nil {
		// the conflict stays detected and is picked up by the stale re-drive
		detector.logger.ErrorF("Detector conflict %d rank dispatch failed: %v", conflict.ID, err)
	}
	return &pipeline.ConflictCreated{ConflictId: conflict.ID, BookingId: booking.ID, Violations: violations}, false, nil
}

// repair finishes an episode whose booking still reads scheduled while its
// conflict is open, no second conflict is created
func (detector *Detector) repair(ctx context.Context, booking *Booking, conflict *WeatherConflict, observations []weather.CheckpointObservation, now time.Time) error {
	detector.logger.WarnF("Booking %d already has open conflict %d, holding booking", booking.ID, conflict.ID)
	if err := detector.bookings.TransitBookingStatus(booking, BookingStatusScheduled, BookingStatusWeatherHold); err != nil && !errors.Is(err, ErrInvalidTransition) {
		return fmt.Errorf("hold booking: %w", err)
	}
	if err := detector.bookings.UpdateWeatherSnapshot(booking, observations, now); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if conflict.Status == ConflictStatusDetected {
		if err := detector.dispatcher.Dispatch(ctx, dispatch.StageRank, conflict.ID); err != nil {
			detector.logger.ErrorF("Detector conflict %d rank dispatch failed: %v", conflict.ID, err)
		}
	}
	return nil
}
