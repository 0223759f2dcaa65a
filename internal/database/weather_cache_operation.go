// Package database
package database

import (
	"context"
	"errors"
	"time"

	. "github.com/half-nothing/simple-wxguard/internal/interfaces/operation"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/weather"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WeatherCacheOperation struct {
	db           *gorm.DB
	queryTimeout time.Duration
}

func NewWeatherCacheOperation(db *gorm.DB, queryTimeout time.Duration) *WeatherCacheOperation {
	return &WeatherCacheOperation{db: db, queryTimeout: queryTimeout}
}

func (weatherCacheOperation *WeatherCacheOperation) GetCachedObservation(airportCode string, forecastHour, now time.Time) (observation *weather.Observation, err error) {
	entry := &WeatherCache{}
	ctx, cancel := context.WithTimeout(context.Background(), weatherCacheOperation.queryTimeout)
	defer cancel()
	err = weatherCacheOperation.db.WithContext(ctx).
		Where("airport_code = ? AND forecast_hour = ? AND expires_at > ?", airportCode, forecastHour.UTC(), now).
		First(entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	cached := entry.Observation.Data()
	return &cached, nil
}

func (weatherCacheOperation *WeatherCacheOperation) UpsertCachedObservation(observation *weather.Observation, fetchedAt, expiresAt time.Time) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), weatherCacheOperation.queryTimeout)
	defer cancel()
	entry := &WeatherCache{
		AirportCode:  observation.AirportCode,
		ForecastHour: observation.ForecastHour.UTC(),
		Observation:  datatypes.NewJSONType(*observation),
		FetchedAt:    fetchedAt,
		ExpiresAt:    expiresAt,
	}
	return weatherCacheOperation.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "airport_code"}, {Name: "forecast_hour"}},
			DoUpdates: clause.AssignmentColumns([]string{"observation", "fetched_at", "expires_at"}),
		}).
		Create(entry).Error
}

func (weatherCacheOperation *WeatherCacheOperation) PurgeExpired(before time.Time) (rows int64, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), weatherCacheOperation.queryTimeout)
	defer cancel()
	result := weatherCacheOperation.db.WithContext(ctx).
		Where("expires_at < ?", before).
		Delete(&WeatherCache{})
	return result.RowsAffected, result.Error
}
