package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"weatherdesk/internal/weather"
)

// Durable unit filenames under the data directory.
const (
	settingsFile = "settings.json"
	cacheFile    = "weather_cache.json"
	historyFile  = "history.json"
)

// ErrPersist marks a failed durable write. The failure is logged and retried
// on the next mutation; it never aborts the foreground flow.
var ErrPersist = errors.New("persist failed")

// Stores bundles the four in-memory stores that share a lifecycle.
type Stores struct {
	Settings  *SettingsStore
	Cache     *Cache
	History   *History
	Favorites *Favorites
}

// cachePayload is the on-disk shape of weather_cache.json.
type cachePayload struct {
	Entries map[weather.CityKey]Entry            `json:"entries"`
	Geocode map[weather.CityKey]weather.GeoPoint `json:"geocode"`
}

// journalPayload is the on-disk shape of history.json. Favorites are
// co-located with history: both are small lists of city references.
type journalPayload struct {
	History   []HistoryRecord  `json:"history"`
	Favorites []FavoriteRecord `json:"favorites"`
}

// Manager serializes the stores to three independent JSON files. Each unit
// loads and saves on its own: a corrupt history file never blocks cache or
// settings.
type Manager struct {
	dir string
	log *zap.Logger
}

// NewManager creates a Manager rooted at dir, creating it if needed.
func NewManager(dir string, log *zap.Logger) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir %s: %w", dir, err)
	}
	return &Manager{dir: dir, log: log}, nil
}

// LoadAll reads every durable unit and builds the store bundle. A missing or
// corrupt unit degrades that one store to empty/default; corruption is logged
// once, non-blocking.
func (m *Manager) LoadAll() *Stores {
	s := DefaultSettings()
	if err := m.readJSON(settingsFile, &s); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			m.log.Warn("settings file unreadable, using defaults", zap.Error(err))
		}
		s = DefaultSettings()
	} else if clean, reset := SanitizeSettings(s); len(reset) > 0 {
		m.log.Warn("invalid settings fields reset to defaults", zap.Strings("fields", reset))
		s = clean
	}

	settings := NewSettingsStore(s)
	cache := NewCache(settings)
	history := NewHistory()
	favorites := NewFavorites()

	var cp cachePayload
	if err := m.readJSON(cacheFile, &cp); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			m.log.Warn("weather cache unreadable, starting empty", zap.Error(err))
		}
	} else {
		cache.restore(cp.Entries, cp.Geocode)
	}

	var jp journalPayload
	if err := m.readJSON(historyFile, &jp); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			m.log.Warn("history file unreadable, starting empty", zap.Error(err))
		}
	} else {
		history.restore(jp.History)
		favorites.restore(jp.Favorites)
	}

	return &Stores{
		Settings:  settings,
		Cache:     cache,
		History:   history,
		Favorites: favorites,
	}
}

// SaveAll writes every durable unit. Units are written independently; one
// failed write does not block the others. The combined error wraps ErrPersist.
func (m *Manager) SaveAll(st *Stores) error {
	var errs error
	errs = multierr.Append(errs, m.SaveSettings(st))
	errs = multierr.Append(errs, m.SaveCache(st))
	errs = multierr.Append(errs, m.SaveJournal(st))
	return errs
}

// SaveSettings persists settings.json.
func (m *Manager) SaveSettings(st *Stores) error {
	return m.writeJSON(settingsFile, st.Settings.Current())
}

// SaveCache persists weather_cache.json.
func (m *Manager) SaveCache(st *Stores) error {
	entries, geo := st.Cache.snapshot()
	return m.writeJSON(cacheFile, cachePayload{Entries: entries, Geocode: geo})
}

// SaveJournal persists history.json (history plus favorites).
func (m *Manager) SaveJournal(st *Stores) error {
	return m.writeJSON(historyFile, journalPayload{
		History:   st.History.List(),
		Favorites: st.Favorites.List(),
	})
}

// ResetAll deletes all persisted state. A subsequent LoadAll returns fully
// default/empty stores.
func (m *Manager) ResetAll() error {
	var errs error
	for _, name := range []string{settingsFile, cacheFile, historyFile} {
		if err := os.Remove(filepath.Join(m.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = multierr.Append(errs, fmt.Errorf("%w: removing %s: %v", ErrPersist, name, err))
		}
	}
	return errs
}

func (m *Manager) readJSON(name string, v any) error {
	b, err := os.ReadFile(filepath.Join(m.dir, name))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decoding %s: %w", name, err)
	}
	return nil
}

// writeJSON writes atomically: marshal to a temp file in the same directory,
// then rename over the target, so a crash mid-write never leaves a truncated
// unit behind.
func (m *Manager) writeJSON(name string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding %s: %v", ErrPersist, name, err)
	}

	path := filepath.Join(m.dir, name)
	tmp, err := os.CreateTemp(m.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: creating temp for %s: %v", ErrPersist, name, err)
	}

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: writing %s: %v", ErrPersist, name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: closing %s: %v", ErrPersist, name, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: replacing %s: %v", ErrPersist, name, err)
	}
	return nil
}
