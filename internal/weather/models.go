package weather

import (
	"strings"
	"time"
)

// CityKey is the normalized identifier for a geocoded city. Two searches that
// resolve to the same location normalize to the same key.
type CityKey string

// NormalizeCity lowercases, trims and collapses whitespace in a raw search
// string, so "  New   York " and "new york" address the same records.
func NormalizeCity(raw string) CityKey {
	fields := strings.Fields(strings.ToLower(raw))
	return CityKey(strings.Join(fields, " "))
}

// GeoPoint is a geocoded location for a CityKey.
type GeoPoint struct {
	Name       string    `json:"name"`
	Country    string    `json:"country"`
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	ResolvedAt time.Time `json:"resolvedAt"` // always UTC
}

// Snapshot is the current-conditions view for a city at a point in time.
// Numeric fields are canonical metric; display conversion happens at the edge.
// A Snapshot is immutable once created: it is superseded, never mutated.
type Snapshot struct {
	City        CityKey   `json:"city"`
	FetchedAt   time.Time `json:"fetchedAt"` // always UTC
	TempC       float64   `json:"tempC"`
	FeelsLikeC  float64   `json:"feelsLikeC"`
	Humidity    int       `json:"humidityPercent"`
	PressureHPa float64   `json:"pressureHpa"`
	WindSpeedMS float64   `json:"windSpeedMs"`
	WindDeg     float64   `json:"windDeg"`
	Description string    `json:"description"`
	IconCode    int       `json:"iconCode"` // provider condition code
	SunriseUTC  time.Time `json:"sunriseUtc"`
	SunsetUTC   time.Time `json:"sunsetUtc"`
	AQI         int       `json:"aqi"` // 1 (good) .. 5 (very poor), 0 when unknown
}

// DayForecast is a single aggregated forecast day.
type DayForecast struct {
	Date     string  `json:"date"` // YYYY-MM-DD in the city's local time
	MinC     float64 `json:"minC"`
	MaxC     float64 `json:"maxC"`
	IconCode int     `json:"iconCode"`
}

// Forecast is the short-range forecast for a city, up to five days, ordered
// by date ascending.
type Forecast struct {
	City      CityKey       `json:"city"`
	FetchedAt time.Time     `json:"fetchedAt"` // always UTC
	Days      []DayForecast `json:"days"`
}

// ForecastPoint is a normalized intra-day provider reading that daily
// aggregation consumes.
type ForecastPoint struct {
	Time     time.Time // UTC
	TempC    float64
	IconCode int
}
