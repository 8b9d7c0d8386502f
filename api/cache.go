package api

import "github.com/goobie-bot/goobie/types"

/*
Cache is the surface the fetchers see: look a key up, store a result, drop a
key. All of the details (locking, TTL policy, eviction, statistics) stay
behind it, so fetchers and the memoizing wrapper can be tested against any
implementation.

Every method is safe to call from many goroutines and none of them fail: a
miss is the (nil, false) result, not an error.
*/
type Cache interface {

	/*
		Get returns the live value stored at key.

		BEHAVIOR:
		-------------------
		1. Key present and not expired:
		   - Counts a hit, records the access on the entry
		   - Returns (value, true)

		2. Key absent:
		   - Counts a miss
		   - Returns (nil, false)

		3. Key present but expired:
		   - Removes the entry (lazy expiry) in the same critical section
		   - Counts a miss
		   - Returns (nil, false)
	*/
	Get(key string) (any, bool)

	/*
		Set stores value at key, overwriting whatever was there.

		The TTL comes from category. An unknown category is not an error: the
		entry simply never expires, so callers that want expiry must use one of
		the known categories.
	*/
	Set(key string, value any, category string)

	/*
		Delete removes key and reports whether anything was removed.
		Deleting a missing key is safe and changes no counters.
	*/
	Delete(key string) bool
}

/*
Admin is the privileged surface used by the admin commands. Callers must have
passed a permission check before reaching it.
*/
type Admin interface {

	// Stats returns a consistent snapshot of counters and the live entry count.
	Stats() types.Stats

	/*
		Clear removes entries and returns how many went.

		- category == "" → every entry
		- otherwise      → only entries written under that category
	*/
	Clear(category string) int

	// CleanupExpired removes every expired entry and returns the count.
	// It is not a read: hit/miss counters and access bookkeeping are untouched.
	CleanupExpired() int

	// Info lists every entry's bookkeeping, keyed by cache key.
	Info() map[string]types.EntryInfo
}
