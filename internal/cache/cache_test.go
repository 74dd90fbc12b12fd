package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kcloud-opt/loadsched/internal/types"
)

func TestPriceCacheInsertIsIdempotentOnTimestamp(t *testing.T) {
	c := NewPriceCache()
	base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, c.Insert([]types.PricePoint{
		{Time: base, Price: 1.0},
		{Time: base.Add(time.Hour), Price: 2.0},
	}))
	require.NoError(t, c.Insert([]types.PricePoint{
		{Time: base, Price: 9.0},
		{Time: base.Add(2 * time.Hour), Price: 3.0},
	}))

	points := c.Get(base)
	require.Len(t, points, 3)
	assert.Equal(t, 9.0, points[0].Price)
	assert.Equal(t, 2.0, points[1].Price)
	assert.Equal(t, 3.0, points[2].Price)
}

func TestPriceCacheGetFiltersAndOrders(t *testing.T) {
	c := NewPriceCache()
	base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, c.Insert([]types.PricePoint{
		{Time: base, Price: 1.0},
		{Time: base.Add(time.Hour), Price: 2.0},
		{Time: base.Add(2 * time.Hour), Price: 3.0},
	}))

	points := c.Get(base.Add(time.Hour))
	require.Len(t, points, 2)
	assert.Equal(t, 2.0, points[0].Price)
	assert.Equal(t, 3.0, points[1].Price)
}

func TestPriceCacheEarliestAndLatestOnEmptyCache(t *testing.T) {
	c := NewPriceCache()
	assert.True(t, c.Earliest().IsZero())
	assert.True(t, c.Latest().IsZero())
}

func TestPriceCacheInsertRejectsEmptyBatch(t *testing.T) {
	c := NewPriceCache()
	err := c.Insert(nil)
	assert.Error(t, err)
}

func TestPriceCacheHorizonBeforeReleaseReturnsTodaysRelease(t *testing.T) {
	c := NewPriceCache()
	now := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)
	horizon := c.Horizon(now, 13)
	assert.Equal(t, time.Date(2026, 7, 1, 13, 0, 0, 0, time.UTC), horizon)
}

func TestPriceCacheHorizonAfterReleaseReturnsEndOfDayAfterTomorrow(t *testing.T) {
	c := NewPriceCache()
	now := time.Date(2026, 7, 1, 14, 0, 0, 0, time.UTC)
	horizon := c.Horizon(now, 13)
	assert.Equal(t, time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC), horizon)
}

func TestEmissionCacheInsertIsIdempotentOnTimestamp(t *testing.T) {
	c := NewEmissionCache()
	base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, c.Insert([]types.EmissionPoint{
		{Time: base, Intensity: 100},
		{Time: base.Add(time.Hour), Intensity: 200},
	}))
	require.NoError(t, c.Insert([]types.EmissionPoint{
		{Time: base, Intensity: 50},
	}))

	points := c.Get(base)
	require.Len(t, points, 2)
	assert.Equal(t, 50.0, points[0].Intensity)
	assert.Equal(t, 200.0, points[1].Intensity)
	assert.Equal(t, base.Add(time.Hour), c.Latest())
}
