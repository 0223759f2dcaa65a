// Package dbtest opens throwaway sqlite databases for package tests
package dbtest

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/half-nothing/simple-wxguard/internal/database"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/operation"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var counter atomic.Int64

// Open returns a migrated in-memory database private to the calling test
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:wxguard_test_%d?mode=memory&cache=shared", counter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	pool, err := db.DB()
	require.NoError(t, err)
	pool.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = pool.Close() })
	require.NoError(t, db.AutoMigrate(database.Models()...))
	return db
}

// Operations wires every gorm operation against a fresh database
func Operations(t testing.TB) (*gorm.DB, *operation.DatabaseOperations) {
	db := Open(t)
	return db, database.NewOperations(db, 5*time.Second)
}

// Fixture is the smallest consistent school: one student, one instructor and one aircraft
type Fixture struct {
	Student    *operation.User
	Instructor *operation.User
	Aircraft   *operation.Aircraft
}

func Seed(t testing.TB, db *gorm.DB, trainingLevel string) *Fixture {
	t.Helper()
	fixture := &Fixture{
		Student: &operation.User{
			Name:          "Sam Student",
			Email:         fmt.Sprintf("student%d@example.com", counter.Add(1)),
			Role:          operation.RoleStudent,
			TrainingLevel: trainingLevel,
		},
		Instructor: &operation.User{
			Name:  "Ivy Instructor",
			Email: fmt.Sprintf("instructor%d@example.com", counter.Add(1)),
			Role:  operation.RoleInstructor,
		},
		Aircraft: &operation.Aircraft{
			Registration: fmt.Sprintf("N%dWX", counter.Add(1)),
			Model:        "C172",
		},
	}
	require.NoError(t, db.Create(fixture.Student).Error)
	require.NoError(t, db.Create(fixture.Instructor).Error)
	require.NoError(t, db.Create(fixture.Aircraft).Error)
	return fixture
}

// Booking inserts a scheduled local flight from KAUS starting at start
func (f *Fixture) Booking(t testing.TB, db *gorm.DB, start time.Time, duration time.Duration) *operation.Booking {
	t.Helper()
	booking := &operation.Booking{
		StudentId:        f.Student.ID,
		InstructorId:     f.Instructor.ID,
		AircraftId:       f.Aircraft.ID,
		ScheduledStart:   start.UTC(),
		ScheduledEnd:     start.Add(duration).UTC(),
		DepartureAirport: "KAUS",
		FlightType:       operation.FlightTypeLocal,
		Status:           operation.BookingStatusScheduled,
	}
	require.NoError(t, db.Omit("Student", "Instructor", "Aircraft").Create(booking).Error)
	return booking
}
