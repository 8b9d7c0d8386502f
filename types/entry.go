package types

import "time"

/*
CacheEntry wraps one cached value with its timing and access bookkeeping.

ExpiresAt is computed once, when the entry is built, and never moves. There is
no way to extend or shorten the life of an entry in place: replacing the value
means building a new entry and overwriting the old one.

AccessCount and LastAccessedAt are mutated only while the owning manager holds
its lock, so the entry itself carries no synchronization.
*/
type CacheEntry struct {
	Key      string
	Value    any
	Category string

	CreatedAt time.Time
	TTL       time.Duration // zero => never expires
	ExpiresAt time.Time     // zero => no TTL

	AccessCount    uint64
	LastAccessedAt time.Time
}

// NewCacheEntry builds an entry created at now. A ttl <= 0 means the entry never expires.
func NewCacheEntry(key string, value any, category string, ttl time.Duration, now time.Time) *CacheEntry {
	ent := &CacheEntry{
		Key:            key,
		Value:          value,
		Category:       category,
		CreatedAt:      now,
		LastAccessedAt: now,
	}
	if ttl > 0 {
		ent.TTL = ttl
		ent.ExpiresAt = now.Add(ttl)
	}
	return ent
}

// IsExpired reports whether the entry has a TTL and now is past its expiry.
func (e *CacheEntry) IsExpired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

/*
Access records one successful logical read and returns the value.

It must be called exactly once per hit, never on a miss and never on a read
that found the entry expired.
*/
func (e *CacheEntry) Access(now time.Time) any {
	e.AccessCount++
	e.LastAccessedAt = now
	return e.Value
}

// EntryInfo is a read-only view of an entry for admin listings.
type EntryInfo struct {
	Category       string        `json:"category"`
	CreatedAt      time.Time     `json:"created_at"`
	TTL            time.Duration `json:"ttl"`
	ExpiresAt      *time.Time    `json:"expires_at,omitempty"`
	AccessCount    uint64        `json:"access_count"`
	LastAccessedAt time.Time     `json:"last_accessed"`
	Expired        bool          `json:"is_expired"`
}

// Info snapshots the entry as seen at now. The value itself is left out.
func (e *CacheEntry) Info(now time.Time) EntryInfo {
	info := EntryInfo{
		Category:       e.Category,
		CreatedAt:      e.CreatedAt,
		TTL:            e.TTL,
		AccessCount:    e.AccessCount,
		LastAccessedAt: e.LastAccessedAt,
		Expired:        e.IsExpired(now),
	}
	if !e.ExpiresAt.IsZero() {
		exp := e.ExpiresAt
		info.ExpiresAt = &exp
	}
	return info
}
