// Package config
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/half-nothing/simple-wxguard/internal/interfaces/log"
)

const maxForecastHorizon = 72 * time.Hour

type AirportData struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Alt  float64 `json:"alt"`
}

var defaultAirportData = map[string]*AirportData{
	"KAUS": {Name: "Austin-Bergstrom International", Lat: 30.1945, Lon: -97.6699, Alt: 542},
	"KEDC": {Name: "Austin Executive", Lat: 30.3978, Lon: -97.5664, Alt: 620},
	"KGTU": {Name: "Georgetown Municipal", Lat: 30.6788, Lon: -97.6794, Alt: 790},
	"KSAT": {Name: "San Antonio International", Lat: 29.5337, Lon: -98.4698, Alt: 809},
	"KHYI": {Name: "San Marcos Regional", Lat: 29.8927, Lon: -97.8630, Alt: 597},
	"KACT": {Name: "Waco Regional", Lat: 31.6113, Lon: -97.2305, Alt: 516},
	"KDFW": {Name: "Dallas/Fort Worth International", Lat: 32.8998, Lon: -97.0403, Alt: 607},
	"KIAH": {Name: "Houston George Bush Intercontinental", Lat: 29.9844, Lon: -95.3414, Alt: 97},
}

type WeatherConfig struct {
	BaseUrl                 string                  `json:"base_url"`
	ApiKey                  string                  `json:"api_key"`
	RequestTimeout          string                  `json:"request_timeout"`
	RequestDuration         time.Duration           `json:"-"`
	CacheTTL                string                  `json:"cache_ttl"`
	CacheDuration           time.Duration           `json:"-"`
	ForecastHorizon         string                  `json:"forecast_horizon"`
	ForecastHorizonDuration time.Duration           `json:"-"`
	MaxConcurrentFetches    int                     `json:"max_concurrent_fetches"`
	AirportDataFile         string                  `json:"airport_data_file"`
	Airports                map[string]*AirportData `json:"-"`
}

func defaultWeatherConfig() *WeatherConfig {
	return &WeatherConfig{
		BaseUrl:              "https://api.openweathermap.org/data/3.0",
		ApiKey:               "",
		RequestTimeout:       "10s",
		CacheTTL:             "30m",
		ForecastHorizon:      "48h",
		MaxConcurrentFetches: 5,
		AirportDataFile:      "data/airports.json",
	}
}

func (config *WeatherConfig) checkValid(logger log.LoggerInterface) *ValidResult {
	if config.ApiKey == "" {
		logger.Warn("weather.api_key is empty, every checkpoint will be reported as unverifiable")
	}
	if result := parseDuration("weather.request_timeout", config.RequestTimeout, &config.RequestDuration); result.IsFail() {
		return result
	}
	if result := parseDuration("weather.cache_ttl", config.CacheTTL, &config.CacheDuration); result.IsFail() {
		return result
	}
	if result := parseDuration("weather.forecast_horizon", config.ForecastHorizon, &config.ForecastHorizonDuration); result.IsFail() {
		return result
	}
	if config.ForecastHorizonDuration > maxForecastHorizon {
		return ValidFail(fmt.Errorf("invalid json field weather.forecast_horizon, value must not exceed %v", maxForecastHorizon))
	}
	if config.MaxConcurrentFetches <= 0 {
		return ValidFail(errors.New("invalid json field weather.max_concurrent_fetches, value must larger than 0"))
	}

	defaultContent, _ := json.MarshalIndent(defaultAirportData, "", "\t")
	content, err := seededContent(logger, config.AirportDataFile, defaultContent)
	if err != nil {
		return ValidFailWith(errors.New("fail to load airport_data_file"), err)
	}
	airports := make(map[string]*AirportData)
	if err := json.Unmarshal(content, &airports); err != nil {
		return ValidFailWith(errors.New("airport_data_file does not contain valid JSON"), err)
	}
	config.Airports = make(map[string]*AirportData, len(airports))
	for code, airport := range airports {
		config.Airports[strings.ToUpper(code)] = airport
	}
	logger.InfoF("Loaded %d airports from %s", len(config.Airports), config.AirportDataFile)
	return ValidPass()
}
