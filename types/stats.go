package types

import "math"

// Stats is a point-in-time snapshot of the cache counters.
type Stats struct {
	Hits        uint64 `json:"hits"`
	Misses      uint64 `json:"misses"`
	Sets        uint64 `json:"sets"`
	Deletes     uint64 `json:"deletes"`
	Clears      uint64 `json:"clears"`
	Evictions   uint64 `json:"evictions"`
	Expirations uint64 `json:"expirations"`

	// HitRate is a percentage rounded to two decimals, 0 when nothing was requested.
	HitRate       float64 `json:"hit_rate"`
	TotalEntries  int     `json:"total_entries"`
	TotalRequests uint64  `json:"total_requests"`

	// Limits the cache was configured with. MemoryLimitMB is advisory only.
	MaxEntries    int `json:"max_entries"`
	MemoryLimitMB int `json:"memory_limit_mb"`
}

// HitRate returns hits/(hits+misses) as a percentage rounded to two decimals.
func HitRate(hits, misses uint64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return math.Round(float64(hits)/float64(total)*100*100) / 100
}
