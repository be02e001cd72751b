package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"weatherdesk/internal/weather"
)

func testGeoPoint() weather.GeoPoint {
	return weather.GeoPoint{Name: "Paris", Country: "FR", Lat: 48.8566, Lon: 2.3522}
}

const geoBody = `[{"name":"Paris","country":"FR","lat":48.8566,"lon":2.3522}]`

const forecastBody = `{
  "city": {"timezone": 7200, "sunrise": 1755480000, "sunset": 1755530000},
  "list": [
    {"dt": 1755500400, "main": {"temp": 21.5, "feels_like": 20.9, "humidity": 55, "pressure": 1014},
     "weather": [{"id": 800, "description": "clear sky"}], "wind": {"speed": 3.2, "deg": 90}},
    {"dt": 1755511200, "main": {"temp": 24.0, "feels_like": 23.1, "humidity": 48, "pressure": 1013},
     "weather": [{"id": 801, "description": "few clouds"}], "wind": {"speed": 4.0, "deg": 120}},
    {"dt": 1755586800, "main": {"temp": 17.0, "feels_like": 16.2, "humidity": 70, "pressure": 1010},
     "weather": [{"id": 500, "description": "light rain"}], "wind": {"speed": 5.5, "deg": 200}}
  ]
}`

const airBody = `{"list":[{"main":{"aqi":2}}]}`

func newTestClient(t *testing.T, geo, forecast, air http.HandlerFunc) *Client {
	t.Helper()

	geoSrv := httptest.NewServer(geo)
	fcSrv := httptest.NewServer(forecast)
	airSrv := httptest.NewServer(air)
	t.Cleanup(geoSrv.Close)
	t.Cleanup(fcSrv.Close)
	t.Cleanup(airSrv.Close)

	return NewClientWithURLs(http.DefaultClient, "test-key", geoSrv.URL, fcSrv.URL, airSrv.URL, zap.NewNop())
}

func serveJSON(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}

func serveStatus(code int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
	}
}

func TestGeocode(t *testing.T) {
	var gotQuery string
	c := newTestClient(t,
		func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query().Get("q")
			serveJSON(geoBody)(w, r)
		},
		serveJSON(forecastBody),
		serveJSON(airBody),
	)

	geo, err := c.Geocode(context.Background(), "Paris")
	require.NoError(t, err)

	assert.Equal(t, "Paris", gotQuery)
	assert.Equal(t, "Paris", geo.Name)
	assert.Equal(t, "FR", geo.Country)
	assert.InDelta(t, 48.8566, geo.Lat, 1e-6)
	assert.InDelta(t, 2.3522, geo.Lon, 1e-6)
	assert.False(t, geo.ResolvedAt.IsZero())
}

func TestGeocodeUnknownCity(t *testing.T) {
	c := newTestClient(t, serveJSON(`[]`), serveJSON(forecastBody), serveJSON(airBody))

	_, err := c.Geocode(context.Background(), "Atlantis")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCityNotFound))
}

func TestFetchBundle(t *testing.T) {
	c := newTestClient(t, serveJSON(geoBody), serveJSON(forecastBody), serveJSON(airBody))

	snap, fc, err := c.FetchBundle(context.Background(), testGeoPoint())
	require.NoError(t, err)

	assert.InDelta(t, 21.5, snap.TempC, 1e-9)
	assert.InDelta(t, 20.9, snap.FeelsLikeC, 1e-9)
	assert.Equal(t, 55, snap.Humidity)
	assert.InDelta(t, 1014, snap.PressureHPa, 1e-9)
	assert.InDelta(t, 3.2, snap.WindSpeedMS, 1e-9)
	assert.Equal(t, "clear sky", snap.Description)
	assert.Equal(t, 800, snap.IconCode)
	assert.Equal(t, 2, snap.AQI)
	assert.False(t, snap.SunriseUTC.IsZero())

	// Three points spanning two local days aggregate into two buckets.
	require.Len(t, fc.Days, 2)
	assert.InDelta(t, 21.5, fc.Days[0].MinC, 1e-9)
	assert.InDelta(t, 24.0, fc.Days[0].MaxC, 1e-9)
	assert.InDelta(t, 17.0, fc.Days[1].MinC, 1e-9)
	assert.InDelta(t, 17.0, fc.Days[1].MaxC, 1e-9)
}

func TestFetchBundleAirFailureIsNonFatal(t *testing.T) {
	c := newTestClient(t, serveJSON(geoBody), serveJSON(forecastBody), serveStatus(http.StatusInternalServerError))

	snap, fc, err := c.FetchBundle(context.Background(), testGeoPoint())
	require.NoError(t, err)

	assert.Equal(t, 0, snap.AQI)
	assert.NotEmpty(t, fc.Days)
}

func TestFetchBundleForecastFailure(t *testing.T) {
	c := newTestClient(t, serveJSON(geoBody), serveStatus(http.StatusInternalServerError), serveJSON(airBody))

	_, _, err := c.FetchBundle(context.Background(), testGeoPoint())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUpstream))
}

func TestGetJSONRetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		serveJSON(`{"ok":true}`)(w, r)
	}))
	defer srv.Close()

	cfg := BackoffConfig{MaxRetries: 3, InitialInterval: 1}
	var dst struct {
		OK bool `json:"ok"`
	}
	err := getJSON(context.Background(), http.DefaultClient, newBreaker("test"), cfg, srv.URL, &dst)
	require.NoError(t, err)
	assert.True(t, dst.OK)
	assert.Equal(t, 3, calls)
}

func TestGetJSONNotFoundSkipsRetry(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cfg := BackoffConfig{MaxRetries: 3, InitialInterval: 1}
	var dst struct{}
	err := getJSON(context.Background(), http.DefaultClient, newBreaker("test-404"), cfg, srv.URL, &dst)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCityNotFound))
	assert.Equal(t, 1, calls)
}

func TestLocate(t *testing.T) {
	srv := httptest.NewServer(serveJSON(`{"city":"Berlin","country":"DE"}`))
	defer srv.Close()

	l := NewLocatorWithURL(srv.URL, http.DefaultClient)
	city, err := l.Locate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Berlin", city)
}

func TestLocateEmptyCity(t *testing.T) {
	srv := httptest.NewServer(serveJSON(`{"ip":"1.2.3.4"}`))
	defer srv.Close()

	l := NewLocatorWithURL(srv.URL, http.DefaultClient)
	_, err := l.Locate(context.Background())
	require.Error(t, err)
}
