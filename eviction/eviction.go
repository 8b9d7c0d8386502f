package eviction

import (
	"fmt"
	"strings"
)

/*
This file defines how the cache decides what to drop when it holds more
entries than it is allowed to.

TTL is the main way entries leave the cache. Eviction only matters on hosts
that set an entry limit: once the limit is reached, a new key pushes out one
live key picked by the configured policy.
*/

/*
Policy tracks keys so it can name a victim when the cache is full.

The manager calls these methods while holding its own lock, so policies carry
no locking of their own.
*/
type Policy interface {

	// OnGet is called for every hit, and for an overwrite of an existing key.
	OnGet(string)

	// OnPut is called when a key enters the cache.
	OnPut(string)

	// Remove is called when a key leaves the cache for any reason other than
	// Evict (delete, clear, expiry). Unknown keys are ignored.
	Remove(string)

	// Evict picks a key, forgets it, and returns it. It returns "" when
	// nothing is tracked.
	Evict() string

	// Len returns how many keys are tracked.
	Len() int
}

// PolicyType names a supported eviction strategy.
type PolicyType string

const (
	// None disables eviction: the entry limit is advisory only.
	None PolicyType = "none"

	// LRU drops the key read or written least recently.
	LRU PolicyType = "lru"

	// LFU drops the key read the fewest times, oldest first on ties.
	LFU PolicyType = "lfu"

	// FIFO drops the key inserted first, regardless of reads.
	FIFO PolicyType = "fifo"
)

// ParsePolicyType accepts a policy name in any case. The empty string means None.
func ParsePolicyType(s string) (PolicyType, error) {
	switch t := PolicyType(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return None, nil
	case None, LRU, LFU, FIFO:
		return t, nil
	default:
		return "", fmt.Errorf("unknown eviction policy %q", s)
	}
}

// New creates a fresh policy of type t. None yields nil.
func New(t PolicyType) Policy {
	switch t {
	case None, "":
		return nil
	case LRU:
		return newLRU()
	case LFU:
		return newLFU()
	case FIFO:
		return newFIFO()
	default:
		panic("unknown eviction policy: " + string(t))
	}
}
