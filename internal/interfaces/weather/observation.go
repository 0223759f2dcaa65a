// Package weather
package weather

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnknownAirport 机场代码未在机场数据中登记
	ErrUnknownAirport = errors.New("airport code is not in airport data")
	// ErrProviderStatus 气象服务返回非2xx状态
	ErrProviderStatus = errors.New("weather provider returned unexpected status")
	// ErrMalformedObservation 气象服务返回的数据缺少必要字段
	ErrMalformedObservation = errors.New("weather provider returned malformed observation")
)

// Observation is an immutable weather sample for one station at one hour.
// Ceiling nil means unlimited, WindGust nil means no gust reported.
type Observation struct {
	AirportCode     string    `json:"airport_code"`
	ForecastHour    time.Time `json:"forecast_hour"`
	VisibilityMiles float64   `json:"visibility_miles"`
	CeilingFeet     *int      `json:"ceiling_feet"`
	WindSpeedKnots  float64   `json:"wind_speed_knots"`
	WindGustKnots   *float64  `json:"wind_gust_knots"`
	WindDirection   int       `json:"wind_direction"`
	CloudCover      int       `json:"cloud_cover"`
	TemperatureC    float64   `json:"temperature_c"`
	DewPointC       float64   `json:"dew_point_c"`
	ConditionCode   int       `json:"condition_code"`
	Condition       string    `json:"condition"`
	Description     string    `json:"description"`
	HasThunderstorm bool      `json:"has_thunderstorm"`
	HasIcing        bool      `json:"has_icing"`
	Estimated       bool      `json:"estimated"`
	ObservedAt      time.Time `json:"observed_at"`
}

// EffectiveWindKnots is the larger of sustained wind and gust
func (o *Observation) EffectiveWindKnots() float64 {
	if o.WindGustKnots != nil && *o.WindGustKnots > o.WindSpeedKnots {
		return *o.WindGustKnots
	}
	return o.WindSpeedKnots
}

// CheckpointObservation is the weather at one checkpoint of a lesson.
// Observation is nil when the gateway could not provide data.
type CheckpointObservation struct {
	Checkpoint  string       `json:"checkpoint"`
	Observation *Observation `json:"observation,omitempty"`
	Error       string       `json:"error,omitempty"`
}

func (c *CheckpointObservation) Unknown() bool { return c.Observation == nil }

// GatewayInterface 气象数据网关
type GatewayInterface interface {
	// GetObservation 获取机场在指定时刻的气象数据, 优先读取缓存
	GetObservation(ctx context.Context, airportCode string, at time.Time) (*Observation, error)
}

// ProviderInterface 外部气象数据源, 不带缓存
type ProviderInterface interface {
	// Fetch 返回指定时刻的观测或预报, 超出预报范围时返回当前实况
	Fetch(ctx context.Context, airportCode string, at time.Time) (*Observation, error)
}

// CacheInterface 气象缓存存储, 按(机场, 预报小时)唯一
type CacheInterface interface {
	// GetCachedObservation 读取未过期的缓存, 未命中时返回 (nil, nil)
	GetCachedObservation(airportCode string, forecastHour time.Time, now time.Time) (observation *Observation, err error)
	// UpsertCachedObservation 写入或覆盖缓存
	UpsertCachedObservation(observation *Observation, fetchedAt time.Time, expiresAt time.Time) (err error)
}
