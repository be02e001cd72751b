package daylight

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Paris, mid-latitude: a rise/set pair exists every day of the year.
const (
	parisLat = 48.8566
	parisLon = 2.3522
)

func TestSunriseSunset(t *testing.T) {
	date := time.Date(2026, 6, 21, 0, 0, 0, 0, time.UTC)

	rise, set, ok := SunriseSunset(parisLat, parisLon, date)
	require.True(t, ok)
	assert.True(t, rise.Before(set))
	assert.Equal(t, date.Day(), rise.Day())
}

func TestSunriseSunsetPolarNight(t *testing.T) {
	// Svalbard in December: the sun never rises.
	date := time.Date(2026, 12, 21, 0, 0, 0, 0, time.UTC)

	_, _, ok := SunriseSunset(78.22, 15.63, date)
	assert.False(t, ok)
}

func TestIsDaytime(t *testing.T) {
	date := time.Date(2026, 6, 21, 0, 0, 0, 0, time.UTC)
	rise, set, ok := SunriseSunset(parisLat, parisLon, date)
	require.True(t, ok)

	assert.False(t, IsDaytime(parisLat, parisLon, rise.Add(-time.Hour)))
	assert.True(t, IsDaytime(parisLat, parisLon, rise.Add(time.Hour)))
	assert.False(t, IsDaytime(parisLat, parisLon, set.Add(time.Hour)))

	// Boundary: sunrise itself counts as day, sunset does not.
	assert.True(t, IsDaytime(parisLat, parisLon, rise))
	assert.False(t, IsDaytime(parisLat, parisLon, set))
}

func TestIsDaytimePolarFallback(t *testing.T) {
	// Polar night: elevation stays negative all day.
	assert.False(t, IsDaytime(78.22, 15.63, time.Date(2026, 12, 21, 12, 0, 0, 0, time.UTC)))

	// Polar day: elevation stays positive all day.
	assert.True(t, IsDaytime(78.22, 15.63, time.Date(2026, 6, 21, 0, 30, 0, 0, time.UTC)))
}

func TestResolveTheme(t *testing.T) {
	noon := time.Date(2026, 6, 21, 12, 0, 0, 0, time.UTC)
	midnight := time.Date(2026, 6, 21, 0, 0, 0, 0, time.UTC)

	// Explicit modes win regardless of sun position.
	assert.Equal(t, ThemeLight, ResolveTheme(ThemeLight, parisLat, parisLon, midnight))
	assert.Equal(t, ThemeDark, ResolveTheme(ThemeDark, parisLat, parisLon, noon))

	assert.Equal(t, ThemeLight, ResolveTheme(ThemeAuto, parisLat, parisLon, noon))
	assert.Equal(t, ThemeDark, ResolveTheme(ThemeAuto, parisLat, parisLon, midnight))
}
