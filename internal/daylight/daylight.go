// Package daylight computes day/night state and resolves the auto theme from
// sunrise/sunset at a coordinate. All functions are pure.
package daylight

import (
	"time"

	"github.com/nathan-osman/go-sunrise"
)

// Theme modes accepted in settings.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
	ThemeAuto  = "auto"
)

// SunriseSunset returns the UTC sunrise and sunset for the UTC calendar day
// of date at the given coordinate. ok is false during polar day or polar
// night, when no rise/set pair exists within that day.
func SunriseSunset(lat, lon float64, date time.Time) (rise, set time.Time, ok bool) {
	d := date.UTC()
	rise, set = sunrise.SunriseSunset(lat, lon, d.Year(), d.Month(), d.Day())
	if rise.IsZero() && set.IsZero() {
		return time.Time{}, time.Time{}, false
	}
	return rise, set, true
}

// IsDaytime reports whether the sun is up at the given coordinate and
// instant. The sunrise boundary is inclusive, sunset exclusive. During polar
// day/night the decision falls back to solar elevation at the query time, so
// the caller always gets an answer.
func IsDaytime(lat, lon float64, now time.Time) bool {
	now = now.UTC()
	rise, set, ok := SunriseSunset(lat, lon, now)
	if !ok {
		return sunrise.Elevation(lat, lon, now) > 0
	}
	return !now.Before(rise) && now.Before(set)
}

// ResolveTheme returns the theme to present. An explicit light/dark mode wins
// regardless of sun position; auto derives from day/night state.
func ResolveTheme(mode string, lat, lon float64, now time.Time) string {
	switch mode {
	case ThemeLight, ThemeDark:
		return mode
	}
	if IsDaytime(lat, lon, now) {
		return ThemeLight
	}
	return ThemeDark
}
