package store

import "github.com/goobie-bot/goobie/types"

/*
This file defines where entries actually live.

The manager keeps every entry in one Store and guards it with one lock, so a
Store does no locking of its own. It is a plain map behind an interface so
the manager's bookkeeping reads the same whatever backs it.
*/

// Store is the key → entry mapping owned by a cache manager.
type Store interface {

	// Get returns the entry for key.
	Get(string) (*types.CacheEntry, bool)

	// Put inserts or replaces the entry for key.
	Put(string, *types.CacheEntry)

	// Delete removes key and reports whether it was present.
	Delete(string) bool

	// Len returns how many entries are stored.
	Len() int

	// Range calls fn for each entry until fn returns false.
	// fn must not modify the store.
	Range(fn func(key string, ent *types.CacheEntry) bool)

	// Reset drops every entry and returns how many there were.
	Reset() int
}

type mapStore struct {
	data map[string]*types.CacheEntry
}

// NewMapStore returns an empty map-backed Store.
func NewMapStore() Store {
	return &mapStore{data: make(map[string]*types.CacheEntry)}
}

func (s *mapStore) Get(key string) (*types.CacheEntry, bool) {
	ent, ok := s.data[key]
	return ent, ok
}

func (s *mapStore) Put(key string, ent *types.CacheEntry) {
	s.data[key] = ent
}

func (s *mapStore) Delete(key string) bool {
	if _, ok := s.data[key]; !ok {
		return false
	}
	delete(s.data, key)
	return true
}

func (s *mapStore) Len() int {
	return len(s.data)
}

func (s *mapStore) Range(fn func(string, *types.CacheEntry) bool) {
	for k, ent := range s.data {
		if !fn(k, ent) {
			return
		}
	}
}

func (s *mapStore) Reset() int {
	n := len(s.data)
	s.data = make(map[string]*types.CacheEntry)
	return n
}
