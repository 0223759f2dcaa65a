// Package operation
package operation

import (
	"time"

	"github.com/half-nothing/simple-wxguard/internal/interfaces/weather"
	"gorm.io/datatypes"
)

type User struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	Name          string    `gorm:"size:64;not null" json:"name"`
	Email         string    `gorm:"size:128;uniqueIndex;not null" json:"email"`
	Role          string    `gorm:"size:16;index;not null" json:"role"`
	TrainingLevel string    `gorm:"size:32;not null;default:''" json:"training_level"`
	CreatedAt     time.Time `json:"-"`
	UpdatedAt     time.Time `json:"-"`
}

type Aircraft struct {
	ID           uint                   `gorm:"primarykey" json:"id"`
	Registration string                 `gorm:"size:16;uniqueIndex;not null" json:"registration"`
	Model        string                 `gorm:"size:32;not null" json:"model"`
	Minima       *weather.MinimaProfile `gorm:"serializer:json" json:"minima,omitempty"`
	CreatedAt    time.Time              `json:"-"`
	UpdatedAt    time.Time              `json:"-"`
}

type Booking struct {
	ID                 uint                                               `gorm:"primarykey" json:"id"`
	StudentId          uint                                               `gorm:"index;not null" json:"student_id"`
	InstructorId       uint                                               `gorm:"index;not null" json:"instructor_id"`
	AircraftId         uint                                               `gorm:"index;not null" json:"aircraft_id"`
	ScheduledStart     time.Time                                          `gorm:"index:idx_booking_status_start,priority:2;not null" json:"scheduled_start"`
	ScheduledEnd       time.Time                                          `gorm:"not null" json:"scheduled_end"`
	DepartureAirport   string                                             `gorm:"size:4;not null" json:"departure_airport"`
	DestinationAirport string                                             `gorm:"size:4;not null;default:''" json:"destination_airport"`
	Waypoints          datatypes.JSONSlice[string]                        `json:"waypoints"`
	FlightType         string                                             `gorm:"size:32;not null" json:"flight_type"`
	Status             string                                             `gorm:"size:16;index:idx_booking_status_start,priority:1;not null" json:"status"`
	LastWeatherCheck   *time.Time                                         `json:"last_weather_check"`
	WeatherSnapshot    datatypes.JSONSlice[weather.CheckpointObservation] `json:"weather_snapshot"`
	Student            *User                                              `gorm:"foreignKey:StudentId" json:"student,omitempty"`
	Instructor         *User                                              `gorm:"foreignKey:InstructorId" json:"instructor,omitempty"`
	Aircraft           *Aircraft                                          `gorm:"foreignKey:AircraftId" json:"aircraft,omitempty"`
	CreatedAt          time.Time                                          `json:"-"`
	UpdatedAt          time.Time                                          `json:"-"`
}

func (b *Booking) Duration() time.Duration {
	return b.ScheduledEnd.Sub(b.ScheduledStart)
}

// AvailabilityPattern is a free window of an instructor, StartTime and
// EndTime are "15:04" in the school timezone
type AvailabilityPattern struct {
	ID           uint       `gorm:"primarykey" json:"id"`
	InstructorId uint       `gorm:"index;not null" json:"instructor_id"`
	DayOfWeek    int        `gorm:"not null" json:"day_of_week"`
	StartTime    string     `gorm:"size:5;not null" json:"start_time"`
	EndTime      string     `gorm:"size:5;not null" json:"end_time"`
	IsRecurring  bool       `gorm:"not null" json:"is_recurring"`
	ValidFrom    *time.Time `json:"valid_from"`
	ValidUntil   *time.Time `json:"valid_until"`
	CreatedAt    time.Time  `json:"-"`
	UpdatedAt    time.Time  `json:"-"`
}

// WeatherConflict.OpenBookingId holds BookingId while the conflict is unresolved
// and NULL afterwards, the unique index keeps at most one open conflict per booking
type WeatherConflict struct {
	ID                  uint                                               `gorm:"primarykey" json:"id"`
	OpenBookingId       *uint                                              `gorm:"uniqueIndex" json:"-"`
	BookingId           uint                                               `gorm:"index;not null" json:"booking_id"`
	DetectedAt          time.Time                                          `gorm:"not null" json:"detected_at"`
	OriginalStart       time.Time                                          `json:"original_start"`
	Status              string                                             `gorm:"size:16;index;not null" json:"status"`
	Observations        datatypes.JSONSlice[weather.CheckpointObservation] `json:"observations"`
	Violations          datatypes.JSONSlice[string]                        `json:"violations"`
	ResolutionMethod    string                                             `gorm:"size:32;not null;default:''" json:"resolution_method"`
	ResolvedAt          *time.Time                                         `json:"resolved_at"`
	ProcessingStartedAt *time.Time                                         `json:"processing_started_at"`
	ProcessingEndedAt   *time.Time                                         `json:"processing_ended_at"`
	Booking             *Booking                                           `gorm:"foreignKey:BookingId" json:"booking,omitempty"`
	Proposals           []*RescheduleProposal                              `gorm:"foreignKey:ConflictId" json:"proposals"`
	CreatedAt           time.Time                                          `json:"-"`
	UpdatedAt           time.Time                                          `json:"-"`
}

type RescheduleProposal struct {
	ID                    uint             `gorm:"primarykey" json:"id"`
	ConflictId            uint             `gorm:"index;not null" json:"conflict_id"`
	Rank                  int              `gorm:"column:ranking;not null" json:"rank"`
	ProposedStart         time.Time        `gorm:"not null" json:"proposed_start"`
	ProposedEnd           time.Time        `gorm:"not null" json:"proposed_end"`
	InstructorId          uint             `gorm:"not null" json:"instructor_id"`
	AircraftId            uint             `gorm:"not null" json:"aircraft_id"`
	Score                 int              `gorm:"not null" json:"score"`
	Rationale             string           `gorm:"type:text;not null" json:"rationale"`
	StudentResponse       string           `gorm:"size:16;not null;default:'pending'" json:"student_response"`
	StudentRespondedAt    *time.Time       `json:"student_responded_at"`
	InstructorResponse    string           `gorm:"size:16;not null;default:'pending'" json:"instructor_response"`
	InstructorRespondedAt *time.Time       `json:"instructor_responded_at"`
	Conflict              *WeatherConflict `gorm:"foreignKey:ConflictId" json:"-"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"-"`
}

type Notification struct {
	ID        string         `gorm:"primarykey;size:36" json:"id"`
	UserId    uint           `gorm:"index;not null" json:"user_id"`
	Type      string         `gorm:"size:32;not null" json:"type"`
	Title     string         `gorm:"size:128;not null" json:"title"`
	Message   string         `gorm:"type:text;not null" json:"message"`
	Metadata  datatypes.JSON `json:"metadata"`
	ReadAt    *time.Time     `json:"read_at"`
	CreatedAt time.Time      `json:"created_at"`
}

type WeatherCache struct {
	ID           uint                                    `gorm:"primarykey"`
	AirportCode  string                                  `gorm:"size:4;uniqueIndex:idx_weather_cache_key;not null"`
	ForecastHour time.Time                               `gorm:"uniqueIndex:idx_weather_cache_key;not null"`
	Observation  datatypes.JSONType[weather.Observation] `gorm:"not null"`
	FetchedAt    time.Time                               `gorm:"not null"`
	ExpiresAt    time.Time                               `gorm:"index;not null"`
}

type AuditLog struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	EventType string         `gorm:"size:32;index;not null" json:"event_type"`
	Subject   uint           `gorm:"index;not null" json:"subject"`
	Object    string         `gorm:"size:64;not null" json:"object"`
	Ip        string         `gorm:"size:64;not null" json:"ip"`
	UserAgent string         `gorm:"size:256;not null" json:"user_agent"`
	Details   datatypes.JSON `json:"details"`
	CreatedAt time.Time      `json:"created_at"`
}
