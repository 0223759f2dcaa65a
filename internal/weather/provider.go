// Package weather
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/half-nothing/simple-wxguard/internal/interfaces/config"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/log"
	. "github.com/half-nothing/simple-wxguard/internal/interfaces/weather"
)

const (
	knotsPerMeterPerSecond = 1.94384
	metersPerStatuteMile   = 1609.344
	// provider reports at most 10 km and omits the field in clear air
	defaultVisibilityMeters = 10000
	ceilingCloudCover       = 50
	// temperature-dewpoint spread closes about 2.5 °C per 1000 ft of lift
	spreadPerThousandFeet = 2.5
	icingMinTemperature   = -20.0
	icingMaxTemperature   = 2.0
	freezingRainCode      = 511
	maxResponseBytes      = 4 << 20
)

type owmCondition struct {
	Id          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
}

type owmSample struct {
	Dt         int64          `json:"dt"`
	Temp       *float64       `json:"temp"`
	DewPoint   *float64       `json:"dew_point"`
	Clouds     *int           `json:"clouds"`
	Visibility *float64       `json:"visibility"`
	WindSpeed  *float64       `json:"wind_speed"`
	WindGust   *float64       `json:"wind_gust"`
	WindDeg    int            `json:"wind_deg"`
	Weather    []owmCondition `json:"weather"`
}

func (s *owmSample) validate() error {
	switch {
	case s.Dt == 0:
		return fmt.Errorf("%w: missing dt", ErrMalformedObservation)
	case s.Temp == nil:
		return fmt.Errorf("%w: missing temp", ErrMalformedObservation)
	case s.DewPoint == nil:
		return fmt.Errorf("%w: missing dew_point", ErrMalformedObservation)
	case s.Clouds == nil:
		return fmt.Errorf("%w: missing clouds", ErrMalformedObservation)
	case s.WindSpeed == nil:
		return fmt.Errorf("%w: missing wind_speed", ErrMalformedObservation)
	case len(s.Weather) == 0:
		return fmt.Errorf("%w: missing weather condition", ErrMalformedObservation)
	}
	return nil
}

type oneCallResponse struct {
	Current *owmSample   `json:"current"`
	Hourly  []*owmSample `json:"hourly"`
}

// OpenWeatherProvider reads the One Call endpoint: current conditions plus hourly forecast
type OpenWeatherProvider struct {
	logger   log.LoggerInterface
	client   *http.Client
	baseUrl  string
	apiKey   string
	horizon  time.Duration
	airports map[string]*config.AirportData
	now      func() time.Time
}

func NewOpenWeatherProvider(logger log.LoggerInterface, config *config.WeatherConfig) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		logger:   logger,
		client:   &http.Client{Timeout: config.RequestDuration},
		baseUrl:  strings.TrimRight(config.BaseUrl, "/"),
		apiKey:   config.ApiKey,
		horizon:  config.ForecastHorizonDuration,
		airports: config.Airports,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (provider *OpenWeatherProvider) Fetch(ctx context.Context, airportCode string, at time.Time) (*Observation, error) {
	airport, ok := provider.airports[strings.ToUpper(airportCode)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAirport, airportCode)
	}

	response, err := provider.request(ctx, airport)
	if err != nil {
		return nil, err
	}
	if response.Current == nil {
		return nil, fmt.Errorf("%w: missing current conditions", ErrMalformedObservation)
	}

	sample, estimated := provider.pick(response, at)
	if err := sample.validate(); err != nil {
		return nil, err
	}
	observation := convertSample(sample)
	observation.AirportCode = strings.ToUpper(airportCode)
	observation.ForecastHour = at.UTC().Truncate(time.Hour)
	observation.Estimated = estimated
	return observation, nil
}

func (provider *OpenWeatherProvider) request(ctx context.Context, airport *config.AirportData) (*oneCallResponse, error) {
	query := url.Values{}
	query.Set("lat", fmt.Sprintf("%.4f", airport.Lat))
	query.Set("lon", fmt.Sprintf("%.4f", airport.Lon))
	query.Set("exclude", "minutely,daily,alerts")
	query.Set("units", "metric")
	query.Set("appid", provider.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, provider.baseUrl+"/onecall?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create weather request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := provider.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: %d %s", ErrProviderStatus, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	response := &oneCallResponse{}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(response); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedObservation, err)
	}
	return response, nil
}

// pick returns current conditions for the past and the current hour, the
// matching hourly forecast inside the horizon, and current conditions
// flagged as an estimate beyond it
func (provider *OpenWeatherProvider) pick(response *oneCallResponse, at time.Time) (*owmSample, bool) {
	now := provider.now()
	hour := at.UTC().Truncate(time.Hour)
	if !hour.After(now.Truncate(time.Hour)) {
		return response.Current, false
	}
	if at.Sub(now) > provider.horizon {
		return response.Current, true
	}
	for _, sample := range response.Hourly {
		if sample != nil && time.Unix(sample.Dt, 0).UTC().Truncate(time.Hour).Equal(hour) {
			return sample, false
		}
	}
	provider.logger.DebugF("no hourly forecast for %s, falling back to current conditions", hour.Format(time.RFC3339))
	return response.Current, true
}

func convertSample(sample *owmSample) *Observation {
	visibility := float64(defaultVisibilityMeters)
	if sample.Visibility != nil {
		visibility = *sample.Visibility
	}
	condition := sample.Weather[0]
	observation := &Observation{
		VisibilityMiles: round(visibility/metersPerStatuteMile, 2),
		WindSpeedKnots:  round(*sample.WindSpeed*knotsPerMeterPerSecond, 1),
		WindDirection:   sample.WindDeg,
		CloudCover:      *sample.Clouds,
		TemperatureC:    *sample.Temp,
		DewPointC:       *sample.DewPoint,
		ConditionCode:   condition.Id,
		Condition:       condition.Main,
		Description:     condition.Description,
		ObservedAt:      time.Unix(sample.Dt, 0).UTC(),
	}
	if sample.WindGust != nil {
		gust := round(*sample.WindGust*knotsPerMeterPerSecond, 1)
		observation.WindGustKnots = &gust
	}
	observation.CeilingFeet = estimateCeiling(observation.CloudCover, observation.TemperatureC, observation.DewPointC)
	for _, c := range sample.Weather {
		if c.Id >= 200 && c.Id < 300 {
			observation.HasThunderstorm = true
		}
	}
	observation.HasIcing = icingLikely(observation.TemperatureC, observation.CloudCover, sample.Weather)
	return observation
}

// estimateCeiling derives a cloud base from the temperature-dewpoint spread,
// nil means no ceiling layer
func estimateCeiling(cloudCover int, temperature, dewPoint float64) *int {
	if cloudCover < ceilingCloudCover {
		return nil
	}
	spread := math.Max(temperature-dewPoint, 0)
	feet := int(math.Round(spread/spreadPerThousandFeet*10)) * 100
	feet = max(feet, 100)
	return &feet
}

func icingLikely(temperature float64, cloudCover int, conditions []owmCondition) bool {
	for _, c := range conditions {
		if c.Id == freezingRainCode {
			return true
		}
	}
	if temperature < icingMinTemperature || temperature > icingMaxTemperature {
		return false
	}
	if cloudCover >= ceilingCloudCover {
		return true
	}
	for _, c := range conditions {
		group := c.Id / 100
		if group == 3 || group == 5 || group == 6 {
			return true
		}
	}
	return false
}

func round(value float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(value*factor) / factor
}
