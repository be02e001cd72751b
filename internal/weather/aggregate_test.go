package weather

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pt(t time.Time, temp float64, icon int) ForecastPoint {
	return ForecastPoint{Time: t, TempC: temp, IconCode: icon}
}

func TestAggregateDaily(t *testing.T) {
	day1 := time.Date(2026, 8, 24, 3, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)

	points := []ForecastPoint{
		pt(day1, 12, 500),
		pt(day1.Add(6*time.Hour), 18, 801),
		pt(day1.Add(12*time.Hour), 21, 800),
		pt(day2, 15, 802),
	}

	days := AggregateDaily(points, 0, 5)
	require.Len(t, days, 2)

	assert.Equal(t, "2026-08-24", days[0].Date)
	assert.InDelta(t, 12.0, days[0].MinC, 1e-9)
	assert.InDelta(t, 21.0, days[0].MaxC, 1e-9)
	assert.Equal(t, 801, days[0].IconCode) // middle of three readings

	assert.Equal(t, "2026-08-25", days[1].Date)
	assert.InDelta(t, 15.0, days[1].MinC, 1e-9)
	assert.InDelta(t, 15.0, days[1].MaxC, 1e-9)
}

func TestAggregateDailyTimezoneShiftsBucket(t *testing.T) {
	// 23:00 UTC lands on the next local day at UTC+2.
	late := time.Date(2026, 8, 24, 23, 0, 0, 0, time.UTC)

	days := AggregateDaily([]ForecastPoint{pt(late, 10, 800)}, 2*time.Hour, 5)
	require.Len(t, days, 1)
	assert.Equal(t, "2026-08-25", days[0].Date)

	days = AggregateDaily([]ForecastPoint{pt(late, 10, 800)}, 0, 5)
	require.Len(t, days, 1)
	assert.Equal(t, "2026-08-24", days[0].Date)
}

func TestAggregateDailyCapsDays(t *testing.T) {
	base := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	var points []ForecastPoint
	for i := 0; i < 7; i++ {
		points = append(points, pt(base.AddDate(0, 0, i), float64(10+i), 800))
	}

	days := AggregateDaily(points, 0, 5)
	require.Len(t, days, 5)
	assert.Equal(t, "2026-08-20", days[0].Date)
	assert.Equal(t, "2026-08-24", days[4].Date)
}

func TestAggregateDailyEmpty(t *testing.T) {
	assert.Nil(t, AggregateDaily(nil, 0, 5))
	assert.Nil(t, AggregateDaily([]ForecastPoint{pt(time.Now(), 10, 800)}, 0, 0))
}
