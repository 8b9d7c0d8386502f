// This file defines how long cached data stays valid, per category.

package expiration

import (
	"sort"
	"time"
)

// Categories the fetchers write under. Anything else falls into Default.
const (
	GameData     = "game_data"
	TeamLogos    = "team_logos"
	VenueData    = "venue_data"
	TeamMetadata = "team_metadata"
	TeamNames    = "team_names"

	// Default is the bucket for unrecognized categories. It has no TTL.
	Default = "default"
)

/*
Table maps a category label to a TTL.

Upstream sports data changes at very different rates: a logo practically
never changes, a "next game" lookup should pick up reschedules. Rather than
one global TTL, every write names a category and the manager looks its TTL up
here at Set time. The TTL is then frozen into the entry.

A TTL of zero means "never expires". A category missing from the table also
never expires; Lookup reports it as unknown so callers can log it.

A Table is immutable once built. Reconfiguring means building a new one with
With and handing it to the manager.
*/
type Table struct {
	ttls map[string]time.Duration
}

// DefaultTable returns the production TTLs, sized for small hosts.
func DefaultTable() *Table {
	return NewTable(map[string]time.Duration{
		GameData:     30 * time.Minute,
		TeamLogos:    24 * time.Hour,
		VenueData:    24 * time.Hour,
		TeamMetadata: 2 * time.Hour,
		TeamNames:    24 * time.Hour,
	})
}

// NewTable copies ttls into a new Table. Negative durations are stored as zero.
func NewTable(ttls map[string]time.Duration) *Table {
	t := &Table{ttls: make(map[string]time.Duration, len(ttls))}
	for category, ttl := range ttls {
		if ttl < 0 {
			ttl = 0
		}
		t.ttls[category] = ttl
	}
	return t
}

/*
Lookup returns the TTL for category.

  - known category     → (ttl, true); ttl may be zero for "permanent"
  - unknown / Default  → (0, false)

A nil Table knows no categories.
*/
func (t *Table) Lookup(category string) (time.Duration, bool) {
	if t == nil {
		return 0, false
	}
	ttl, ok := t.ttls[category]
	return ttl, ok
}

// With returns a new Table holding t's entries overlaid with overrides.
func (t *Table) With(overrides map[string]time.Duration) *Table {
	merged := t.Map()
	for category, ttl := range overrides {
		merged[category] = ttl
	}
	return NewTable(merged)
}

// Map returns a copy of the table.
func (t *Table) Map() map[string]time.Duration {
	out := make(map[string]time.Duration)
	if t == nil {
		return out
	}
	for category, ttl := range t.ttls {
		out[category] = ttl
	}
	return out
}

// Categories lists the known categories in sorted order.
func (t *Table) Categories() []string {
	if t == nil {
		return nil
	}
	out := make([]string, 0, len(t.ttls))
	for category := range t.ttls {
		out = append(out, category)
	}
	sort.Strings(out)
	return out
}
