// Package cache holds the spot-price and carbon-intensity series the
// engine reads its inputs from: a sorted, mutex-guarded in-memory series
// per metric with idempotent insert and a freshness policy.
package cache

import (
	"sort"
	"sync"
	"time"

	"github.com/kcloud-opt/loadsched/internal/types"
)

// PriceCache holds day-ahead spot-price points. One mutex per cache
// serializes writers: Inserts are applied one at a time, and readers see
// only fully merged rows. The lock is held only for the in-memory merge,
// not for the upstream fetch that precedes it, so concurrent requests
// can each run a backfill fetch at the same time.
type PriceCache struct {
	mu     sync.RWMutex
	points []types.PricePoint
}

// NewPriceCache returns an empty price cache.
func NewPriceCache() *PriceCache { return &PriceCache{} }

// Insert merges points into the series, idempotent on timestamp: a point
// with a timestamp already present replaces the stored value rather than
// duplicating it.
func (c *PriceCache) Insert(points []types.PricePoint) error {
	if err := types.ValidatePricePoints(points); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	byTime := make(map[int64]types.PricePoint, len(c.points)+len(points))
	for _, p := range c.points {
		byTime[p.Time.Unix()] = p
	}
	for _, p := range points {
		byTime[p.Time.Unix()] = p
	}

	merged := make([]types.PricePoint, 0, len(byTime))
	for _, p := range byTime {
		merged = append(merged, p)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Time.Before(merged[j].Time) })
	c.points = merged
	return nil
}

// Get returns every point at or after from, oldest first.
func (c *PriceCache) Get(from time.Time) []types.PricePoint {
	c.mu.RLock()
	defer c.mu.RUnlock()

	idx := sort.Search(len(c.points), func(i int) bool { return !c.points[i].Time.Before(from) })
	out := make([]types.PricePoint, len(c.points)-idx)
	copy(out, c.points[idx:])
	return out
}

// Earliest returns the oldest cached instant, or the zero time if empty.
func (c *PriceCache) Earliest() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.points) == 0 {
		return time.Time{}
	}
	return c.points[0].Time
}

// Latest returns the newest cached instant, or the zero time if empty.
func (c *PriceCache) Latest() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.points) == 0 {
		return time.Time{}
	}
	return c.points[len(c.points)-1].Time
}

// Horizon applies the day-ahead release calendar: prices release once
// daily at a fixed UTC hour, so the effective horizon is the next release
// time if now is within today's pre-release window, otherwise the end of
// the day after tomorrow (the already-released batch covers through the
// end of tomorrow).
func (c *PriceCache) Horizon(now time.Time, releaseHour int) time.Time {
	releaseToday := time.Date(now.Year(), now.Month(), now.Day(), releaseHour, 0, 0, 0, time.UTC)
	if now.Before(releaseToday) {
		return releaseToday
	}
	endOfDayAfterTomorrow := time.Date(now.Year(), now.Month(), now.Day()+2, 0, 0, 0, 0, time.UTC)
	return endOfDayAfterTomorrow
}

// EmissionCache holds carbon-intensity forecast points, with the same
// writer serialization as PriceCache (and the same limit: the lock does
// not cover the upstream fetch).
type EmissionCache struct {
	mu     sync.RWMutex
	points []types.EmissionPoint
}

// NewEmissionCache returns an empty emission cache.
func NewEmissionCache() *EmissionCache { return &EmissionCache{} }

// Insert merges points into the series, idempotent on timestamp.
func (c *EmissionCache) Insert(points []types.EmissionPoint) error {
	if err := types.ValidateEmissionPoints(points); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	byTime := make(map[int64]types.EmissionPoint, len(c.points)+len(points))
	for _, p := range c.points {
		byTime[p.Time.Unix()] = p
	}
	for _, p := range points {
		byTime[p.Time.Unix()] = p
	}

	merged := make([]types.EmissionPoint, 0, len(byTime))
	for _, p := range byTime {
		merged = append(merged, p)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Time.Before(merged[j].Time) })
	c.points = merged
	return nil
}

// Get returns every point at or after from, oldest first.
func (c *EmissionCache) Get(from time.Time) []types.EmissionPoint {
	c.mu.RLock()
	defer c.mu.RUnlock()

	idx := sort.Search(len(c.points), func(i int) bool { return !c.points[i].Time.Before(from) })
	out := make([]types.EmissionPoint, len(c.points)-idx)
	copy(out, c.points[idx:])
	return out
}

// Earliest returns the oldest cached instant, or the zero time if empty.
func (c *EmissionCache) Earliest() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.points) == 0 {
		return time.Time{}
	}
	return c.points[0].Time
}

// Latest returns the newest cached instant, or the zero time if empty.
func (c *EmissionCache) Latest() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.points) == 0 {
		return time.Time{}
	}
	return c.points[len(c.points)-1].Time
}
