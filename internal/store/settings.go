package store

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	"weatherdesk/internal/daylight"
	"weatherdesk/internal/weather"
)

var validate = validator.New()

// Settings is the user configuration. Field values are validated against the
// tags below; anything out of domain falls back to the default for that field
// only.
type Settings struct {
	UnitSystem             string `json:"unitSystem" validate:"oneof=metric imperial"`
	WindSpeedUnit          string `json:"windSpeedUnit" validate:"oneof=kmh mph"`
	ThemeMode              string `json:"themeMode" validate:"oneof=light dark auto"`
	ShowAQI                bool   `json:"showAqi"`
	RefreshIntervalMinutes int    `json:"refreshIntervalMinutes" validate:"min=0,max=1440"` // 0 disables auto-refresh
	CacheTTLMinutes        int    `json:"cacheTtlMinutes" validate:"min=1,max=1440"`
}

// DefaultSettings returns the first-run configuration.
func DefaultSettings() Settings {
	return Settings{
		UnitSystem:             weather.UnitsMetric,
		WindSpeedUnit:          weather.WindKMH,
		ThemeMode:              daylight.ThemeAuto,
		ShowAQI:                true,
		RefreshIntervalMinutes: 30,
		CacheTTLMinutes:        30,
	}
}

// SettingsPatch carries a partial settings update; nil fields are left
// untouched.
type SettingsPatch struct {
	UnitSystem             *string `json:"unitSystem"`
	WindSpeedUnit          *string `json:"windSpeedUnit"`
	ThemeMode              *string `json:"themeMode"`
	ShowAQI                *bool   `json:"showAqi"`
	RefreshIntervalMinutes *int    `json:"refreshIntervalMinutes"`
	CacheTTLMinutes        *int    `json:"cacheTtlMinutes"`
}

// ValidationError reports the single settings field a patch was rejected for.
type ValidationError struct {
	Field string
	Value any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid value %v for settings field %s", e.Value, e.Field)
}

// SettingsStore holds the live configuration. It is the single process-wide
// owner; components read through Current so a change is visible on their next
// call.
type SettingsStore struct {
	mu  sync.RWMutex
	cur Settings
}

// NewSettingsStore creates a store seeded with the given settings.
func NewSettingsStore(s Settings) *SettingsStore {
	return &SettingsStore{cur: s}
}

// Current returns a copy of the active settings.
func (s *SettingsStore) Current() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Apply merges a partial update into the active settings. Each provided field
// is validated against its domain independently: invalid fields are rejected
// and keep their stored values while the valid fields of the same patch still
// apply. The first rejected field is reported.
func (s *SettingsStore) Apply(p SettingsPatch) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cur
	if p.UnitSystem != nil {
		next.UnitSystem = *p.UnitSystem
	}
	if p.WindSpeedUnit != nil {
		next.WindSpeedUnit = *p.WindSpeedUnit
	}
	if p.ThemeMode != nil {
		next.ThemeMode = *p.ThemeMode
	}
	if p.ShowAQI != nil {
		next.ShowAQI = *p.ShowAQI
	}
	if p.RefreshIntervalMinutes != nil {
		next.RefreshIntervalMinutes = *p.RefreshIntervalMinutes
	}
	if p.CacheTTLMinutes != nil {
		next.CacheTTLMinutes = *p.CacheTTLMinutes
	}

	var verr *ValidationError
	if err := validate.Struct(next); err != nil {
		errs, ok := err.(validator.ValidationErrors)
		if !ok {
			return s.cur, err
		}
		for _, f := range errs {
			if verr == nil {
				verr = &ValidationError{Field: f.Field(), Value: f.Value()}
			}
			switch f.Field() {
			case "UnitSystem":
				next.UnitSystem = s.cur.UnitSystem
			case "WindSpeedUnit":
				next.WindSpeedUnit = s.cur.WindSpeedUnit
			case "ThemeMode":
				next.ThemeMode = s.cur.ThemeMode
			case "RefreshIntervalMinutes":
				next.RefreshIntervalMinutes = s.cur.RefreshIntervalMinutes
			case "CacheTTLMinutes":
				next.CacheTTLMinutes = s.cur.CacheTTLMinutes
			}
		}
	}

	s.cur = next
	if verr != nil {
		return next, verr
	}
	return next, nil
}

// SanitizeSettings resets every invalid field of a loaded settings value to
// its default, returning the cleaned settings and the names of the fields
// that were reset. A half-corrupt settings file keeps its valid fields.
func SanitizeSettings(in Settings) (Settings, []string) {
	out := in
	var reset []string

	err := validate.Struct(in)
	if err == nil {
		return out, nil
	}

	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return DefaultSettings(), []string{"all"}
	}

	def := DefaultSettings()
	for _, f := range errs {
		reset = append(reset, f.Field())
		switch f.Field() {
		case "UnitSystem":
			out.UnitSystem = def.UnitSystem
		case "WindSpeedUnit":
			out.WindSpeedUnit = def.WindSpeedUnit
		case "ThemeMode":
			out.ThemeMode = def.ThemeMode
		case "RefreshIntervalMinutes":
			out.RefreshIntervalMinutes = def.RefreshIntervalMinutes
		case "CacheTTLMinutes":
			out.CacheTTLMinutes = def.CacheTTLMinutes
		}
	}

	return out, reset
}
