// Package weather
package weather

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/half-nothing/simple-wxguard/internal/interfaces/log"
	. "github.com/half-nothing/simple-wxguard/internal/interfaces/weather"
)

// Gateway serves observations cache-first, keyed by airport and forecast hour
type Gateway struct {
	logger   log.LoggerInterface
	provider ProviderInterface
	cache    CacheInterface
	ttl      time.Duration
	now      func() time.Time
}

func NewGateway(logger log.LoggerInterface, provider ProviderInterface, cache CacheInterface, ttl time.Duration) *Gateway {
	return &Gateway{
		logger:   logger,
		provider: provider,
		cache:    cache,
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (gateway *Gateway) GetObservation(ctx context.Context, airportCode string, at time.Time) (*Observation, error) {
	code := strings.ToUpper(strings.TrimSpace(airportCode))
	if len(code) < 3 || len(code) > 4 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAirport, airportCode)
	}
	hour := at.UTC().Truncate(time.Hour)
	now := gateway.now()

	cached, err := gateway.cache.GetCachedObservation(code, hour, now)
	if err != nil {
		gateway.logger.WarnF("Gateway.GetObservation cache read for %s@%s failed, fetching from provider: %v", code, hour.Format(time.RFC3339), err)
	} else if cached != nil {
		return cached, nil
	}

	observation, err := gateway.provider.Fetch(ctx, code, at)
	if err != nil {
		return nil, fmt.Errorf("fetch %s@%s: %w", code, hour.Format(time.RFC3339), err)
	}
	observation.AirportCode = code
	observation.ForecastHour = hour

	if err := gateway.cache.UpsertCachedObservation(observation, now, now.Add(gateway.ttl)); err != nil {
		gateway.logger.WarnF("Gateway.GetObservation cache write for %s@%s failed: %v", code, hour.Format(time.RFC3339), err)
	}
	return observation, nil
}
