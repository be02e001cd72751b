package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"weatherdesk/internal/weather"
)

// Default OpenWeatherMap endpoints.
const (
	owmGeoDefault      = "https://api.openweathermap.org/geo/1.0/direct"
	owmForecastDefault = "https://api.openweathermap.org/data/2.5/forecast"
	owmAirDefault      = "https://api.openweathermap.org/data/2.5/air_pollution"
)

const forecastDays = 5

// Client fetches geocoding, forecast and air-quality data from
// OpenWeatherMap. All requests share one circuit breaker since they target
// the same host.
type Client struct {
	apiKey      string
	geoURL      string
	forecastURL string
	airURL      string
	httpClient  *http.Client
	backoff     BackoffConfig
	circuit     *gobreaker.CircuitBreaker
	log         *zap.Logger
}

// NewClient constructs a Client against the production OpenWeatherMap API.
func NewClient(httpClient *http.Client, apiKey string, log *zap.Logger) *Client {
	return &Client{
		apiKey:      apiKey,
		geoURL:      owmGeoDefault,
		forecastURL: owmForecastDefault,
		airURL:      owmAirDefault,
		httpClient:  httpClient,
		backoff:     defaultBackoff,
		circuit:     newBreaker("openweather"),
		log:         log,
	}
}

// NewClientWithURLs constructs a Client pointing at custom endpoints (for
// tests). Retries are disabled so failure tests stay fast.
func NewClientWithURLs(httpClient *http.Client, apiKey, geoURL, forecastURL, airURL string, log *zap.Logger) *Client {
	c := NewClient(httpClient, apiKey, log)
	c.geoURL = geoURL
	c.forecastURL = forecastURL
	c.airURL = airURL
	c.backoff = BackoffConfig{MaxRetries: 0, InitialInterval: time.Millisecond}
	return c
}

// Geocode resolves a city name to coordinates. An empty result maps to
// ErrCityNotFound.
func (c *Client) Geocode(ctx context.Context, city string) (weather.GeoPoint, error) {
	q := url.Values{}
	q.Set("q", city)
	q.Set("limit", "1")
	q.Set("appid", c.apiKey)

	var payload []struct {
		Name    string  `json:"name"`
		Country string  `json:"country"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
	}
	if err := getJSON(ctx, c.httpClient, c.circuit, c.backoff, c.geoURL+"?"+q.Encode(), &payload); err != nil {
		return weather.GeoPoint{}, fmt.Errorf("geocoding %s: %w", city, err)
	}
	if len(payload) == 0 {
		return weather.GeoPoint{}, fmt.Errorf("geocoding %s: %w", city, ErrCityNotFound)
	}

	return weather.GeoPoint{
		Name:       payload[0].Name,
		Country:    payload[0].Country,
		Lat:        payload[0].Lat,
		Lon:        payload[0].Lon,
		ResolvedAt: time.Now().UTC(),
	}, nil
}

// owmForecastResponse is the subset of the 5-day/3-hour forecast payload the
// client consumes.
type owmForecastResponse struct {
	City struct {
		Timezone int   `json:"timezone"` // seconds east of UTC
		Sunrise  int64 `json:"sunrise"`
		Sunset   int64 `json:"sunset"`
	} `json:"city"`
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			Humidity  int     `json:"humidity"`
			Pressure  float64 `json:"pressure"`
		} `json:"main"`
		Weather []struct {
			ID          int    `json:"id"`
			Description string `json:"description"`
		} `json:"weather"`
		Wind struct {
			Speed float64 `json:"speed"`
			Deg   float64 `json:"deg"`
		} `json:"wind"`
	} `json:"list"`
}

type owmAirResponse struct {
	List []struct {
		Main struct {
			AQI int `json:"aqi"`
		} `json:"main"`
	} `json:"list"`
}

// FetchBundle retrieves the forecast and air-quality index for a geocoded
// location in parallel and assembles the current-conditions snapshot plus
// the 5-day forecast. The forecast call is required; the air-quality call is
// best effort and leaves AQI at 0 on failure.
func (c *Client) FetchBundle(ctx context.Context, geo weather.GeoPoint) (weather.Snapshot, weather.Forecast, error) {
	var (
		fc  owmForecastResponse
		air owmAirResponse
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		q := url.Values{}
		q.Set("lat", fmt.Sprintf("%f", geo.Lat))
		q.Set("lon", fmt.Sprintf("%f", geo.Lon))
		q.Set("units", "metric")
		q.Set("appid", c.apiKey)
		return getJSON(gCtx, c.httpClient, c.circuit, c.backoff, c.forecastURL+"?"+q.Encode(), &fc)
	})

	g.Go(func() error {
		q := url.Values{}
		q.Set("lat", fmt.Sprintf("%f", geo.Lat))
		q.Set("lon", fmt.Sprintf("%f", geo.Lon))
		q.Set("appid", c.apiKey)
		if err := getJSON(gCtx, c.httpClient, c.circuit, c.backoff, c.airURL+"?"+q.Encode(), &air); err != nil {
			c.log.Warn("air quality fetch failed", zap.String("city", geo.Name), zap.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return weather.Snapshot{}, weather.Forecast{}, fmt.Errorf("fetching forecast for %s: %w", geo.Name, err)
	}
	if len(fc.List) == 0 {
		return weather.Snapshot{}, weather.Forecast{}, fmt.Errorf("fetching forecast for %s: empty forecast list: %w", geo.Name, ErrUpstream)
	}

	now := time.Now().UTC()
	cur := fc.List[0]

	snap := weather.Snapshot{
		FetchedAt:   now,
		TempC:       cur.Main.Temp,
		FeelsLikeC:  cur.Main.FeelsLike,
		Humidity:    cur.Main.Humidity,
		PressureHPa: cur.Main.Pressure,
		WindSpeedMS: cur.Wind.Speed,
		WindDeg:     cur.Wind.Deg,
		SunriseUTC:  time.Unix(fc.City.Sunrise, 0).UTC(),
		SunsetUTC:   time.Unix(fc.City.Sunset, 0).UTC(),
	}
	if len(cur.Weather) > 0 {
		snap.Description = cur.Weather[0].Description
		snap.IconCode = cur.Weather[0].ID
	}
	if len(air.List) > 0 {
		snap.AQI = air.List[0].Main.AQI
	}

	points := make([]weather.ForecastPoint, 0, len(fc.List))
	for _, it := range fc.List {
		p := weather.ForecastPoint{
			Time:  time.Unix(it.Dt, 0).UTC(),
			TempC: it.Main.Temp,
		}
		if len(it.Weather) > 0 {
			p.IconCode = it.Weather[0].ID
		}
		points = append(points, p)
	}

	forecast := weather.Forecast{
		FetchedAt: now,
		Days:      weather.AggregateDaily(points, time.Duration(fc.City.Timezone)*time.Second, forecastDays),
	}

	return snap, forecast, nil
}
