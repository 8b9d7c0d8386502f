package engine

import (
	"time"

	"github.com/goobie-bot/goobie/expiration"
	"github.com/goobie-bot/goobie/types"
)

/*
CacheEngine is the behavior layer of the cache. It holds the rules, not the data.

It decides:
- Which TTL a write gets, from its category
- When an entry counts as expired
- What a successful read does to an entry
- Where lifecycle events are reported

It does NOT:
- Store data
- Lock anything (the manager calls it with its own lock held)
- Pick eviction victims
*/
type CacheEngine struct {

	// TTLs maps categories to TTLs. It is consulted on every write and may be
	// swapped at runtime; entries already written keep the TTL they got.
	TTLs *expiration.Table

	// Metrics receives lifecycle events. Never nil.
	Metrics types.Metrics

	// Now is the clock. Tests replace it to move time without sleeping.
	Now func() time.Time
}

// NewCacheEngine fills in defaults for any nil argument.
func NewCacheEngine(ttls *expiration.Table, metrics types.Metrics, now func() time.Time) *CacheEngine {
	if ttls == nil {
		ttls = expiration.DefaultTable()
	}
	if metrics == nil {
		metrics = types.NoopMetrics{}
	}
	if now == nil {
		now = time.Now
	}
	return &CacheEngine{TTLs: ttls, Metrics: metrics, Now: now}
}

// ResolveTTL returns the TTL for category and whether the category is known.
// Unknown categories get no TTL.
func (e *CacheEngine) ResolveTTL(category string) (time.Duration, bool) {
	return e.TTLs.Lookup(category)
}

// NewEntry builds the entry for a write and reports the write to Metrics.
func (e *CacheEngine) NewEntry(key string, value any, category string) (*types.CacheEntry, bool) {
	ttl, known := e.ResolveTTL(category)
	e.Metrics.Set(category)
	return types.NewCacheEntry(key, value, category, ttl, e.Now()), known
}

// IsExpired checks ent against the engine clock.
func (e *CacheEngine) IsExpired(ent *types.CacheEntry) bool {
	return ent.IsExpired(e.Now())
}

// OnRead records a hit on ent and returns its value.
func (e *CacheEngine) OnRead(ent *types.CacheEntry) any {
	e.Metrics.Hit()
	return ent.Access(e.Now())
}
