// Package operation
package operation

const (
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

const (
	FlightTypeLocal             = "local"
	FlightTypeShortCrossCountry = "short_cross_country"
	FlightTypeLongCrossCountry  = "long_cross_country"
)

const (
	BookingStatusScheduled   = "scheduled"
	BookingStatusWeatherHold = "weather_hold"
	BookingStatusCompleted   = "completed"
	BookingStatusCancelled   = "cancelled"
)

// BookingActiveStatuses block instructor and aircraft time
var BookingActiveStatuses = []string{BookingStatusScheduled, BookingStatusWeatherHold}

const (
	ConflictStatusDetected       = "detected"
	ConflictStatusAiProcessing   = "ai_processing"
	ConflictStatusProposalsReady = "proposals_ready"
	ConflictStatusResolved       = "resolved"
)

const (
	ResolutionRescheduled      = "rescheduled"
	ResolutionCancelled        = "cancelled"
	ResolutionNoSlotsAvailable = "no_slots_available"
)

const (
	ResponsePending  = "pending"
	ResponseAccepted = "accepted"
	ResponseRejected = "rejected"
)

const (
	NotificationProposalsReady      = "proposals_ready"
	NotificationNoSlotsAvailable    = "no_slots_available"
	NotificationRescheduleConfirmed = "reschedule_confirmed"
	NotificationBookingCancelled    = "booking_cancelled"
)

type EventType string

const (
	AuditEventDetectionTriggered EventType = "DetectionTriggered"
	AuditEventConflictRedriven   EventType = "ConflictRedriven"
	AuditEventProposalResponded  EventType = "ProposalResponded"
	AuditEventBookingRescheduled EventType = "BookingRescheduled"
	AuditEventBookingCancelled   EventType = "BookingCancelled"
)
