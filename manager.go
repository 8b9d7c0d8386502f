package cache

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/goobie-bot/goobie/api"
	"github.com/goobie-bot/goobie/engine"
	"github.com/goobie-bot/goobie/eviction"
	"github.com/goobie-bot/goobie/expiration"
	"github.com/goobie-bot/goobie/store"
	"github.com/goobie-bot/goobie/types"
)

// Limits the original deployment ran with on small hosts.
const (
	DefaultMaxEntries    = 100
	DefaultMemoryLimitMB = 512
)

var (
	_ api.Cache = (*Manager)(nil)
	_ api.Admin = (*Manager)(nil)
)

/*
Manager is the process-wide result cache. It is built once at startup and
handed to every component that needs it.

It connects:
- one Store holding every entry
- the engine (TTL table, clock, metrics)
- an optional eviction policy enforcing the entry limit
- the statistics counters

A single mutex guards the store, the eviction bookkeeping and the counters
together. Every operation is a short in-memory critical section, and the lock
is never held while anything talks to the network.
*/
type Manager struct {
	mu sync.Mutex

	store  store.Store
	engine *engine.CacheEngine

	// policyType is kept so Clear can start a fresh policy.
	policyType eviction.PolicyType
	eviction   eviction.Policy

	// maxEntries caps live entries when eviction is enabled; 0 means no cap.
	maxEntries int

	// memoryLimitMB is reported in Stats only. Nothing enforces it.
	memoryLimitMB int

	// prefixClear makes Clear(category) match keys starting with
	// "category_" instead of the category the entry was written under.
	prefixClear bool

	stats counters
	log   *slog.Logger
}

// counters only ever grow for the life of the manager.
type counters struct {
	hits, misses, sets, deletes, clears, evictions, expirations uint64
}

// Option configures a Manager.
type Option func(*options)

type options struct {
	ttls          *expiration.Table
	metrics       types.Metrics
	now           func() time.Time
	logger        *slog.Logger
	maxEntries    int
	memoryLimitMB int
	policy        eviction.PolicyType
	prefixClear   bool
}

// WithTTLTable sets the category → TTL table. Defaults to expiration.DefaultTable.
func WithTTLTable(t *expiration.Table) Option {
	return func(o *options) { o.ttls = t }
}

// WithMetrics exports cache events to m as well as to Stats.
func WithMetrics(m types.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMaxEntries caps live entries. It only takes effect together with an
// eviction policy other than eviction.None; n <= 0 removes the cap.
func WithMaxEntries(n int) Option {
	return func(o *options) { o.maxEntries = n }
}

// WithMemoryLimitMB records an advisory memory budget shown in Stats.
func WithMemoryLimitMB(mb int) Option {
	return func(o *options) { o.memoryLimitMB = mb }
}

// WithEvictionPolicy picks how a full cache makes room. Defaults to eviction.LRU.
func WithEvictionPolicy(t eviction.PolicyType) Option {
	return func(o *options) { o.policy = t }
}

// WithPrefixClear restores key-prefix matching for Clear(category).
func WithPrefixClear() Option {
	return func(o *options) { o.prefixClear = true }
}

// NewManager builds an empty cache and logs its policy.
func NewManager(opts ...Option) *Manager {
	o := options{
		maxEntries:    DefaultMaxEntries,
		memoryLimitMB: DefaultMemoryLimitMB,
		policy:        eviction.LRU,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.maxEntries < 0 {
		o.maxEntries = 0
	}

	m := &Manager{
		store:         store.NewMapStore(),
		engine:        engine.NewCacheEngine(o.ttls, o.metrics, o.now),
		policyType:    o.policy,
		eviction:      eviction.New(o.policy),
		maxEntries:    o.maxEntries,
		memoryLimitMB: o.memoryLimitMB,
		prefixClear:   o.prefixClear,
		log:           o.logger.With("component", "cache"),
	}
	m.logPolicy()
	return m
}

func (m *Manager) logPolicy() {
	for _, category := range m.engine.TTLs.Categories() {
		ttl, _ := m.engine.TTLs.Lookup(category)
		if ttl == 0 {
			m.log.Info("cache ttl", "category", category, "ttl", "permanent")
			continue
		}
		m.log.Info("cache ttl", "category", category, "ttl", ttl.String())
	}
	m.log.Info("cache limits",
		"max_entries", m.maxEntries,
		"eviction", string(m.policyType),
		"memory_limit_mb", m.memoryLimitMB,
	)
}

/*
Get retrieves a live value.

The existence check, the expiry check, the removal of an expired entry and the
access bookkeeping all happen under one lock, so two readers can never both
see an entry that one of them is about to drop.
*/
func (m *Manager) Get(key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ent, ok := m.store.Get(key)
	if !ok {
		m.stats.misses++
		m.engine.Metrics.Miss()
		m.log.Debug("cache miss", "key", key)
		return nil, false
	}

	if m.engine.IsExpired(ent) {
		m.removeLocked(key)
		m.stats.misses++
		m.stats.expirations++
		m.engine.Metrics.Expire()
		m.engine.Metrics.Miss()
		m.log.Debug("cache entry expired", "key", key)
		return nil, false
	}

	v := m.engine.OnRead(ent)
	m.stats.hits++
	if m.eviction != nil {
		m.eviction.OnGet(key)
	}
	m.log.Debug("cache hit", "key", key, "access_count", ent.AccessCount)
	return v, true
}

/*
Set stores value at key with the TTL of category, replacing any existing entry.

If the cache is at its entry limit and key is new, expired entries are purged
first; only if that frees nothing does the eviction policy drop a live entry.
*/
func (m *Manager) Set(key string, value any, category string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ent, known := m.engine.NewEntry(key, value, category)
	if !known {
		m.log.Debug("cache category has no ttl", "key", key, "category", category)
	}

	_, exists := m.store.Get(key)
	if !exists {
		m.makeRoomLocked()
	}

	m.store.Put(key, ent)
	m.stats.sets++
	if m.eviction != nil {
		if exists {
			m.eviction.OnGet(key)
		} else {
			m.eviction.OnPut(key)
		}
	}
	m.log.Debug("cache set", "key", key, "category", category, "ttl", ent.TTL.String())
}

// makeRoomLocked frees one slot when a new key would exceed maxEntries.
func (m *Manager) makeRoomLocked() {
	if m.eviction == nil || m.maxEntries <= 0 || m.store.Len() < m.maxEntries {
		return
	}
	if n := m.removeExpiredLocked(); n > 0 {
		m.log.Info("cache full, purged expired entries", "removed", n)
	}
	for m.store.Len() >= m.maxEntries {
		victim := m.eviction.Evict()
		if victim == "" {
			return
		}
		m.store.Delete(victim)
		m.stats.evictions++
		m.engine.Metrics.Eviction()
		m.log.Info("cache evicted entry", "key", victim, "policy", string(m.policyType))
	}
}

// Delete removes key. Only a delete that removed something is counted.
func (m *Manager) Delete(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.removeLocked(key) {
		m.log.Debug("cache delete of missing key", "key", key)
		return false
	}
	m.stats.deletes++
	m.engine.Metrics.Delete()
	m.log.Info("cache deleted", "key", key)
	return true
}

/*
Clear removes entries and returns how many were removed.

With category == "" everything goes. Otherwise only entries written under
category go, unless the manager was built WithPrefixClear, in which case keys
starting with "category_" go.

Counters are never reset; only the entry count drops.
*/
func (m *Manager) Clear(category string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.clears++
	m.engine.Metrics.Clear()

	if category == "" {
		n := m.store.Reset()
		m.eviction = eviction.New(m.policyType)
		m.log.Info("cache cleared", "removed", n)
		return n
	}

	prefix := category + "_"
	var doomed []string
	m.store.Range(func(key string, ent *types.CacheEntry) bool {
		match := ent.Category == category
		if m.prefixClear {
			match = strings.HasPrefix(key, prefix)
		}
		if match {
			doomed = append(doomed, key)
		}
		return true
	})
	for _, key := range doomed {
		m.removeLocked(key)
	}
	m.log.Info("cache cleared category", "category", category, "removed", len(doomed))
	return len(doomed)
}

// CleanupExpired removes every entry expired right now and returns the count.
func (m *Manager) CleanupExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.removeExpiredLocked()
	if n > 0 {
		m.log.Info("cache cleanup", "removed", n)
	} else {
		m.log.Debug("cache cleanup found nothing expired")
	}
	return n
}

func (m *Manager) removeExpiredLocked() int {
	now := m.engine.Now()
	var expired []string
	m.store.Range(func(key string, ent *types.CacheEntry) bool {
		if ent.IsExpired(now) {
			expired = append(expired, key)
		}
		return true
	})
	for _, key := range expired {
		m.removeLocked(key)
		m.stats.expirations++
		m.engine.Metrics.Expire()
	}
	return len(expired)
}

// removeLocked drops key from the store and the eviction policy.
func (m *Manager) removeLocked(key string) bool {
	if !m.store.Delete(key) {
		return false
	}
	if m.eviction != nil {
		m.eviction.Remove(key)
	}
	return true
}

// Stats returns a snapshot taken under the lock, so it never mixes states.
func (m *Manager) Stats() types.Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.stats
	return types.Stats{
		Hits:          s.hits,
		Misses:        s.misses,
		Sets:          s.sets,
		Deletes:       s.deletes,
		Clears:        s.clears,
		Evictions:     s.evictions,
		Expirations:   s.expirations,
		HitRate:       types.HitRate(s.hits, s.misses),
		TotalEntries:  m.store.Len(),
		TotalRequests: s.hits + s.misses,
		MaxEntries:    m.maxEntries,
		MemoryLimitMB: m.memoryLimitMB,
	}
}

// Info lists the bookkeeping of every entry, expired ones included.
func (m *Manager) Info() map[string]types.EntryInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.engine.Now()
	out := make(map[string]types.EntryInfo, m.store.Len())
	m.store.Range(func(key string, ent *types.CacheEntry) bool {
		out[key] = ent.Info(now)
		return true
	})
	return out
}

// Len returns the number of stored entries, expired or not.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Len()
}

// SetTTLTable swaps the category → TTL table. Existing entries keep their TTL.
func (m *Manager) SetTTLTable(t *expiration.Table) {
	if t == nil {
		return
	}
	m.mu.Lock()
	m.engine.TTLs = t
	m.mu.Unlock()
	m.log.Info("cache ttl table replaced", "categories", len(t.Categories()))
}

// TTLTable returns the table new writes are using.
func (m *Manager) TTLTable() *expiration.Table {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engine.TTLs
}

/*
GetAs reads key from c and asserts the value to V.

A value of another type counts as absent for the caller, although the cache
has already recorded the read as a hit.
*/
func GetAs[V any](c api.Cache, key string) (V, bool) {
	var zero V
	v, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(V)
	if !ok {
		return zero, false
	}
	return typed, true
}
