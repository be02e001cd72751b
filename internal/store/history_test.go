package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weatherdesk/internal/weather"
)

func TestHistoryMoveToFront(t *testing.T) {
	h := NewHistory()
	now := time.Now().UTC()

	h.Record("paris", now)
	h.Record("oslo", now.Add(time.Minute))
	h.Record("paris", now.Add(2*time.Minute))

	list := h.List()
	require.Len(t, list, 2)
	assert.Equal(t, weather.CityKey("paris"), list[0].City)
	assert.Equal(t, weather.CityKey("oslo"), list[1].City)
	assert.Equal(t, now.Add(2*time.Minute), list[0].LastSearched)
}

func TestHistoryCapEvictsOldest(t *testing.T) {
	h := NewHistory()
	now := time.Now().UTC()

	for i := 0; i < 12; i++ {
		h.Record(weather.CityKey(fmt.Sprintf("city-%d", i)), now.Add(time.Duration(i)*time.Minute))
	}

	list := h.List()
	require.Len(t, list, 10)
	assert.Equal(t, weather.CityKey("city-11"), list[0].City)
	assert.Equal(t, weather.CityKey("city-2"), list[9].City)
}

func TestHistoryStableOrderWithoutMutation(t *testing.T) {
	h := NewHistory()
	now := time.Now().UTC()

	h.Record("a", now)
	h.Record("b", now) // same timestamp: later insertion ranks first

	first := h.List()
	second := h.List()
	assert.Equal(t, first, second)
	assert.Equal(t, weather.CityKey("b"), first[0].City)
}

func TestHistoryFrontAndClear(t *testing.T) {
	h := NewHistory()

	_, ok := h.Front()
	assert.False(t, ok)

	h.Record("paris", time.Now().UTC())
	front, ok := h.Front()
	require.True(t, ok)
	assert.Equal(t, weather.CityKey("paris"), front)

	h.Clear()
	assert.Empty(t, h.List())
	_, ok = h.Front()
	assert.False(t, ok)
}

func TestHistoryRestoreReappliesCap(t *testing.T) {
	var records []HistoryRecord
	for i := 0; i < 15; i++ {
		records = append(records, HistoryRecord{
			City:         weather.CityKey(fmt.Sprintf("city-%d", i)),
			LastSearched: time.Now().UTC(),
		})
	}

	h := NewHistory()
	h.restore(records)
	assert.Len(t, h.List(), 10)
}

func TestFavoritesOrderAndIdempotency(t *testing.T) {
	f := NewFavorites()

	f.Add("oslo")
	f.Add("lima")
	f.Add("oslo") // no-op, keeps position

	list := f.List()
	require.Len(t, list, 2)
	assert.Equal(t, weather.CityKey("oslo"), list[0].City)
	assert.Equal(t, weather.CityKey("lima"), list[1].City)
	assert.True(t, f.Contains("oslo"))

	f.Remove("oslo")
	f.Remove("oslo") // absent, no-op

	list = f.List()
	require.Len(t, list, 1)
	assert.Equal(t, weather.CityKey("lima"), list[0].City)
	assert.False(t, f.Contains("oslo"))

	// New additions slot after the highest surviving order.
	f.Add("quito")
	list = f.List()
	require.Len(t, list, 2)
	assert.Equal(t, weather.CityKey("lima"), list[0].City)
	assert.Equal(t, weather.CityKey("quito"), list[1].City)
}
