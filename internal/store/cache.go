package store

import (
	"sync"
	"time"

	"weatherdesk/internal/weather"
)

// geoTTL is how long a geocoding result is reused before the provider is
// asked again. City coordinates do not move; a day is generous.
const geoTTL = 24 * time.Hour

// Entry is one cached fetch result. Weather and forecast are replaced
// together on Put, never individually.
type Entry struct {
	City     weather.CityKey  `json:"city"`
	Weather  weather.Snapshot `json:"weather"`
	Forecast weather.Forecast `json:"forecast"`
	CachedAt time.Time        `json:"cachedAt"` // always UTC
}

// Cache maps CityKey to the most recent fetched entry plus a geocode
// side-table. Freshness is decided against the live settings TTL at call
// time, so a TTL change reclassifies existing entries on the next Get without
// rewriting them. Stale entries are retained for fallback.
type Cache struct {
	mu       sync.RWMutex
	entries  map[weather.CityKey]Entry
	geo      map[weather.CityKey]weather.GeoPoint
	settings *SettingsStore
}

// NewCache creates an empty cache reading its TTL from the given settings
// store.
func NewCache(settings *SettingsStore) *Cache {
	return &Cache{
		entries:  make(map[weather.CityKey]Entry),
		geo:      make(map[weather.CityKey]weather.GeoPoint),
		settings: settings,
	}
}

// ttl returns the freshness window configured right now.
func (c *Cache) ttl() time.Duration {
	return time.Duration(c.settings.Current().CacheTTLMinutes) * time.Minute
}

// Get returns the entry for key only while it is fresh: its age at now must
// not exceed the configured TTL. A stale entry is a miss here but remains
// available through StaleFallback.
func (c *Cache) Get(key weather.CityKey, now time.Time) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return Entry{}, false
	}
	if now.UTC().Sub(e.CachedAt) > c.ttl() {
		return Entry{}, false
	}
	return e, true
}

// StaleFallback returns the last known entry for key regardless of age. Used
// when a live fetch fails so the caller can degrade gracefully.
func (c *Cache) StaleFallback(key weather.CityKey) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	return e, ok
}

// Put replaces any prior entry for key with a new weather/forecast pair.
func (c *Cache) Put(key weather.CityKey, snap weather.Snapshot, fc weather.Forecast, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = Entry{
		City:     key,
		Weather:  snap,
		Forecast: fc,
		CachedAt: now.UTC(),
	}
}

// Geo returns the cached geocode for key while it is younger than geoTTL.
func (c *Cache) Geo(key weather.CityKey, now time.Time) (weather.GeoPoint, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	gp, ok := c.geo[key]
	if !ok || now.UTC().Sub(gp.ResolvedAt) > geoTTL {
		return weather.GeoPoint{}, false
	}
	return gp, true
}

// GeoAny returns the cached geocode for key regardless of age. Theme
// resolution only needs coordinates, which do not go stale.
func (c *Cache) GeoAny(key weather.CityKey) (weather.GeoPoint, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	gp, ok := c.geo[key]
	return gp, ok
}

// PutGeo stores a geocode result for key.
func (c *Cache) PutGeo(key weather.CityKey, gp weather.GeoPoint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.geo[key] = gp
}

// snapshot copies the cache contents for persistence.
func (c *Cache) snapshot() (map[weather.CityKey]Entry, map[weather.CityKey]weather.GeoPoint) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries := make(map[weather.CityKey]Entry, len(c.entries))
	for k, v := range c.entries {
		entries[k] = v
	}
	geo := make(map[weather.CityKey]weather.GeoPoint, len(c.geo))
	for k, v := range c.geo {
		geo[k] = v
	}
	return entries, geo
}

// restore replaces the cache contents from persisted state.
func (c *Cache) restore(entries map[weather.CityKey]Entry, geo map[weather.CityKey]weather.GeoPoint) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[weather.CityKey]Entry, len(entries))
	for k, v := range entries {
		c.entries[k] = v
	}
	c.geo = make(map[weather.CityKey]weather.GeoPoint, len(geo))
	for k, v := range geo {
		c.geo[k] = v
	}
}
