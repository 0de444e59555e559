package performance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moneta-app/moneta-backend/internal/domain"
)

func points(values ...int64) []domain.ChartDataPoint {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]domain.ChartDataPoint, len(values))
	for i, v := range values {
		out[i] = domain.ChartDataPoint{Date: base.AddDate(0, 0, i), Value: decimal.NewFromInt(v)}
	}
	return out
}

func TestFingerprint_SensitiveToValueAndDate(t *testing.T) {
	a := fingerprintPoints(points(100, 200))
	b := fingerprintPoints(points(100, 201))
	assert.NotEqual(t, a, b)

	shifted := points(100, 200)
	shifted[1].Date = shifted[1].Date.Add(time.Hour)
	assert.NotEqual(t, a, fingerprintPoints(shifted))

	assert.Equal(t, a, fingerprintPoints(points(100, 200)))
}

func TestResultCache_ServesOnlyMatchingFingerprint(t *testing.T) {
	cache := newResultCache()
	key := cacheKey{scope: "account:x", period: PeriodOneMonth}
	result := Result{Percentage: 5, HasData: true, Absolute: decimal.NewFromInt(50)}

	cache.put(key, 42, result)

	cached, ok := cache.get(key, 42)
	require.True(t, ok)
	assert.Equal(t, result.Percentage, cached.Percentage)

	// A changed fingerprint rejects the entry instead of serving stale data.
	_, ok = cache.get(key, 43)
	assert.False(t, ok)

	// A different period is a different entry.
	_, ok = cache.get(cacheKey{scope: "account:x", period: PeriodAllTime}, 42)
	assert.False(t, ok)
}

func TestResultCache_Clear(t *testing.T) {
	cache := newResultCache()
	key := cacheKey{scope: "portfolio", period: PeriodAllTime}
	cache.put(key, 7, Result{HasData: true, Absolute: decimal.Zero})

	cache.clear()

	_, ok := cache.get(key, 7)
	assert.False(t, ok)
}
