package store

import (
	"sort"
	"sync"

	"weatherdesk/internal/weather"
)

// FavoriteRecord is one pinned city with its user-assigned position.
type FavoriteRecord struct {
	City      weather.CityKey `json:"city"`
	SortOrder int             `json:"sortOrder"`
}

// Favorites is the set of pinned cities. Independent of history and cache:
// removing a favorite touches neither.
type Favorites struct {
	mu     sync.RWMutex
	byCity map[weather.CityKey]int
}

// NewFavorites creates an empty registry.
func NewFavorites() *Favorites {
	return &Favorites{byCity: make(map[weather.CityKey]int)}
}

// Add pins a city, assigning the next sort order. Adding an existing favorite
// is a no-op, keeping its position.
func (f *Favorites) Add(key weather.CityKey) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.byCity[key]; ok {
		return
	}

	next := 0
	for _, ord := range f.byCity {
		if ord >= next {
			next = ord + 1
		}
	}
	f.byCity[key] = next
}

// Remove unpins a city. Remaining sort orders are not renumbered; removing an
// absent key is a no-op.
func (f *Favorites) Remove(key weather.CityKey) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byCity, key)
}

// Contains reports whether the city is pinned.
func (f *Favorites) Contains(key weather.CityKey) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.byCity[key]
	return ok
}

// List returns the favorites sorted by sort order ascending.
func (f *Favorites) List() []FavoriteRecord {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]FavoriteRecord, 0, len(f.byCity))
	for city, ord := range f.byCity {
		out = append(out, FavoriteRecord{City: city, SortOrder: ord})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out
}

// restore replaces the registry contents from persisted state.
func (f *Favorites) restore(records []FavoriteRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.byCity = make(map[weather.CityKey]int, len(records))
	for _, r := range records {
		f.byCity[r.City] = r.SortOrder
	}
}
