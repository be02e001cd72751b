package weather

import (
	"sort"
	"time"
)

// AggregateDaily buckets intra-day readings into per-day min/max entries.
// Readings are grouped by calendar date after shifting into the city's local
// time; each day's icon is taken from the middle reading so it reflects
// midday conditions rather than the 3 AM slot. At most maxDays days are
// returned, ordered by date ascending.
func AggregateDaily(points []ForecastPoint, tzOffset time.Duration, maxDays int) []DayForecast {
	if len(points) == 0 || maxDays <= 0 {
		return nil
	}

	type bucket struct {
		temps []float64
		icons []int
	}
	days := make(map[string]*bucket)

	for _, p := range points {
		local := p.Time.UTC().Add(tzOffset)
		k := local.Format("2006-01-02")

		b, ok := days[k]
		if !ok {
			b = &bucket{}
			days[k] = b
		}
		b.temps = append(b.temps, p.TempC)
		b.icons = append(b.icons, p.IconCode)
	}

	keys := make([]string, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]DayForecast, 0, maxDays)
	for _, k := range keys {
		if len(out) >= maxDays {
			break
		}
		b := days[k]

		minT, maxT := b.temps[0], b.temps[0]
		for _, t := range b.temps[1:] {
			if t < minT {
				minT = t
			}
			if t > maxT {
				maxT = t
			}
		}

		out = append(out, DayForecast{
			Date:     k,
			MinC:     minT,
			MaxC:     maxT,
			IconCode: b.icons[len(b.icons)/2],
		})
	}

	return out
}
