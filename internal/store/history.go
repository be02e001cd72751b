package store

import (
	"sync"
	"time"

	"weatherdesk/internal/weather"
)

// historyCap bounds the search history ledger.
const historyCap = 10

// HistoryRecord is one remembered search.
type HistoryRecord struct {
	City         weather.CityKey `json:"city"`
	LastSearched time.Time       `json:"lastSearched"` // always UTC
}

// History is the bounded, most-recent-first search ledger, deduplicated by
// CityKey.
type History struct {
	mu      sync.RWMutex
	records []HistoryRecord
}

// NewHistory creates an empty ledger.
func NewHistory() *History {
	return &History{}
}

// Record inserts key at the front with the given timestamp. An existing
// record for the same key is moved, not duplicated; when two records carry
// the same timestamp the later insertion ranks first because insertion is
// always at the front. Oldest entries are evicted past capacity.
func (h *History) Record(key weather.CityKey, now time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()

	kept := h.records[:0]
	for _, r := range h.records {
		if r.City != key {
			kept = append(kept, r)
		}
	}
	h.records = append([]HistoryRecord{{City: key, LastSearched: now.UTC()}}, kept...)

	if len(h.records) > historyCap {
		h.records = h.records[:historyCap]
	}
}

// List returns the records most-recent-first. The returned slice is a copy;
// repeated calls without mutation yield identical order.
func (h *History) List() []HistoryRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]HistoryRecord, len(h.records))
	copy(out, h.records)
	return out
}

// Front returns the most recently searched city, if any.
func (h *History) Front() (weather.CityKey, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.records) == 0 {
		return "", false
	}
	return h.records[0].City, true
}

// Clear empties the ledger.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = nil
}

// restore replaces the ledger contents from persisted state, re-applying the
// capacity bound in case the file was written by a looser version.
func (h *History) restore(records []HistoryRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(records) > historyCap {
		records = records[:historyCap]
	}
	h.records = make([]HistoryRecord, len(records))
	copy(h.records, records)
}
