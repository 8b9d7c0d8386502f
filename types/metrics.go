package types

// This file defines how the cache reports what it is doing.

/*
Metrics receives one call per event in the cache lifecycle.

The manager keeps its own counters for Stats; Metrics is the hook for
exporting the same events somewhere else (Prometheus, logs, tests).
Implementations must be safe for concurrent use.
*/
type Metrics interface {

	// Hit is called when a read returns a live value.
	Hit()

	// Miss is called when a read finds nothing, or finds an expired entry.
	Miss()

	// Set is called for every write, labelled with the category the caller asked for.
	Set(category string)

	// Delete is called when an explicit delete removed an entry.
	Delete()

	// Clear is called once per clear operation, whatever it removed.
	Clear()

	// Eviction is called when a live entry is dropped to stay under the entry limit.
	Eviction()

	// Expire is called for every entry removed because its TTL passed,
	// whether found on read or by a sweep.
	Expire()
}

/*
NoopMetrics ignores every event. It is the default so the manager never has
to check for a nil Metrics.
*/
type NoopMetrics struct{}

func (NoopMetrics) Hit()       {}
func (NoopMetrics) Miss()      {}
func (NoopMetrics) Set(string) {}
func (NoopMetrics) Delete()    {}
func (NoopMetrics) Clear()     {}
func (NoopMetrics) Eviction()  {}
func (NoopMetrics) Expire()    {}
