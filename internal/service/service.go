// Package service orchestrates searches across the cache, the upstream
// provider and the durable stores. It owns the freshness decision and the
// deduplication of concurrent fetches.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"weatherdesk/internal/daylight"
	"weatherdesk/internal/store"
	"weatherdesk/internal/weather"
)

// ErrEmptyQuery is returned when a search normalizes to nothing.
var ErrEmptyQuery = errors.New("empty city query")

// Provider resolves city names and fetches weather bundles.
type Provider interface {
	Geocode(ctx context.Context, city string) (weather.GeoPoint, error)
	FetchBundle(ctx context.Context, geo weather.GeoPoint) (weather.Snapshot, weather.Forecast, error)
}

// Result is the outcome of a search.
type Result struct {
	Entry store.Entry

	// Stale is set when the entry is an aged cache fallback served because
	// a live fetch failed.
	Stale bool

	// Fetched is set when the entry came from a live upstream fetch rather
	// than the cache.
	Fetched bool

	// Superseded is set when another city was requested while this fetch
	// was in flight. The caller should not present this entry as current.
	Superseded bool
}

// Service is the application core behind both the HTTP surface and the
// auto-refresh scheduler.
type Service struct {
	provider Provider
	persist  *store.Manager
	log      *zap.Logger

	group singleflight.Group

	// mu guards latest and the stores pointer; Reset swaps the whole
	// bundle so readers always see a consistent set.
	mu     sync.Mutex
	stores *store.Stores
	latest weather.CityKey

	refreshHook func(time.Duration)

	now func() time.Time
}

// New wires a Service over the given provider and stores.
func New(provider Provider, stores *store.Stores, persist *store.Manager, log *zap.Logger) *Service {
	return &Service{
		provider: provider,
		stores:   stores,
		persist:  persist,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Stores exposes the underlying store bundle for shutdown persistence.
func (s *Service) Stores() *store.Stores {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stores
}

// SetRefreshHook registers a callback invoked with the new interval whenever
// the refresh interval setting changes.
func (s *Service) SetRefreshHook(fn func(time.Duration)) {
	s.refreshHook = fn
}

// Search resolves raw to a city and returns its weather, serving from cache
// while the entry is within TTL. force bypasses the freshness check and
// always fetches. Concurrent searches for the same city share one upstream
// fetch.
func (s *Service) Search(ctx context.Context, raw string, force bool) (Result, error) {
	key := weather.NormalizeCity(raw)
	if key == "" {
		return Result{}, ErrEmptyQuery
	}

	st := s.markLatest(key)
	now := s.now()

	if !force {
		if e, ok := st.Cache.Get(key, now); ok {
			s.recordSearch(st, key, now)
			return Result{Entry: e}, nil
		}
	}

	v, err, _ := s.group.Do(string(key), func() (any, error) {
		return s.fetch(ctx, st, key)
	})
	if err != nil {
		if e, ok := st.Cache.StaleFallback(key); ok {
			s.log.Warn("fetch failed, serving stale entry",
				zap.String("city", string(key)), zap.Error(err))
			s.recordSearch(st, key, s.now())
			return Result{Entry: e, Stale: true, Superseded: s.latestCity() != key}, nil
		}
		return Result{}, err
	}

	entry := v.(store.Entry)
	s.recordSearch(st, key, s.now())
	return Result{Entry: entry, Fetched: true, Superseded: s.latestCity() != key}, nil
}

// fetch resolves coordinates, pulls a fresh bundle and installs it in the
// cache. Runs inside singleflight, one in-flight call per city.
func (s *Service) fetch(ctx context.Context, st *store.Stores, key weather.CityKey) (store.Entry, error) {
	now := s.now()

	geo, ok := st.Cache.Geo(key, now)
	if !ok {
		var err error
		geo, err = s.provider.Geocode(ctx, string(key))
		if err != nil {
			return store.Entry{}, err
		}
		st.Cache.PutGeo(key, geo)
	}

	snap, fc, err := s.provider.FetchBundle(ctx, geo)
	if err != nil {
		return store.Entry{}, err
	}
	snap.City = key
	fc.City = key

	now = s.now()
	st.Cache.Put(key, snap, fc, now)
	if err := s.persist.SaveCache(st); err != nil {
		s.log.Error("persisting cache", zap.Error(err))
	}

	e, _ := st.Cache.StaleFallback(key)
	return e, nil
}

// recordSearch moves key to the front of the history ledger and persists the
// journal. Persistence failures are logged, never surfaced.
func (s *Service) recordSearch(st *store.Stores, key weather.CityKey, now time.Time) {
	st.History.Record(key, now)
	if err := s.persist.SaveJournal(st); err != nil {
		s.log.Error("persisting history", zap.Error(err))
	}
}

// markLatest records key as the most recently requested city and returns the
// store bundle active at that moment.
func (s *Service) markLatest(key weather.CityKey) *store.Stores {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = key
	return s.stores
}

// LatestCity returns the most recently requested city, if any.
func (s *Service) LatestCity() (weather.CityKey, bool) {
	key := s.latestCity()
	return key, key != ""
}

func (s *Service) latestCity() weather.CityKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// Theme resolves the presentation theme for a city right now. With cached
// coordinates the auto mode follows sunrise/sunset; without them it falls
// back to treating 08:00 through 18:00 as day.
func (s *Service) Theme(key weather.CityKey) string {
	st := s.Stores()
	mode := st.Settings.Current().ThemeMode
	if mode != daylight.ThemeAuto {
		return mode
	}

	now := s.now()
	if geo, ok := st.Cache.GeoAny(key); ok {
		return daylight.ResolveTheme(mode, geo.Lat, geo.Lon, now)
	}

	h := now.Hour()
	if h >= 8 && h <= 18 {
		return daylight.ThemeLight
	}
	return daylight.ThemeDark
}

// UpdateSettings applies a partial settings update. Invalid fields are
// rejected individually and reported while the valid fields of the patch
// still apply and persist; the refresh hook fires when the interval changed.
func (s *Service) UpdateSettings(p store.SettingsPatch) (store.Settings, error) {
	st := s.Stores()
	before := st.Settings.Current()
	next, err := st.Settings.Apply(p)

	if next != before {
		if perr := s.persist.SaveSettings(st); perr != nil {
			s.log.Error("persisting settings", zap.Error(perr))
		}
		if s.refreshHook != nil && next.RefreshIntervalMinutes != before.RefreshIntervalMinutes {
			s.refreshHook(time.Duration(next.RefreshIntervalMinutes) * time.Minute)
		}
	}
	return next, err
}

// Settings returns the active configuration.
func (s *Service) Settings() store.Settings {
	return s.Stores().Settings.Current()
}

// History returns the search ledger, most recent first.
func (s *Service) History() []store.HistoryRecord {
	return s.Stores().History.List()
}

// ClearHistory empties the search ledger and persists the journal.
func (s *Service) ClearHistory() error {
	st := s.Stores()
	st.History.Clear()
	if err := s.persist.SaveJournal(st); err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}
	return nil
}

// Favorites returns the pinned cities in sort order.
func (s *Service) Favorites() []store.FavoriteRecord {
	return s.Stores().Favorites.List()
}

// AddFavorite pins a city and persists the journal.
func (s *Service) AddFavorite(raw string) error {
	key := weather.NormalizeCity(raw)
	if key == "" {
		return ErrEmptyQuery
	}
	st := s.Stores()
	st.Favorites.Add(key)
	if err := s.persist.SaveJournal(st); err != nil {
		return fmt.Errorf("persisting favorites: %w", err)
	}
	return nil
}

// RemoveFavorite unpins a city and persists the journal.
func (s *Service) RemoveFavorite(raw string) error {
	key := weather.NormalizeCity(raw)
	if key == "" {
		return ErrEmptyQuery
	}
	st := s.Stores()
	st.Favorites.Remove(key)
	if err := s.persist.SaveJournal(st); err != nil {
		return fmt.Errorf("persisting favorites: %w", err)
	}
	return nil
}

// Reset deletes all persisted state and swaps in a fresh default store
// bundle. The refresh hook is notified with the default interval.
func (s *Service) Reset() error {
	if err := s.persist.ResetAll(); err != nil {
		return err
	}

	fresh := s.persist.LoadAll()

	s.mu.Lock()
	s.stores = fresh
	s.latest = ""
	s.mu.Unlock()

	if s.refreshHook != nil {
		iv := fresh.Settings.Current().RefreshIntervalMinutes
		s.refreshHook(time.Duration(iv) * time.Minute)
	}
	return nil
}

// RefreshCurrent force-refreshes the most recently requested city, falling
// back to the history front. Used by the auto-refresh scheduler; a no-op when
// nothing has been searched yet.
func (s *Service) RefreshCurrent(ctx context.Context) error {
	key, ok := s.LatestCity()
	if !ok {
		key, ok = s.Stores().History.Front()
	}
	if !ok {
		return nil
	}

	_, err := s.Search(ctx, string(key), true)
	return err
}
