// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package keylock

import (
	"slices"
	"sync"
)

type entry struct {
	mu   sync.Mutex
	refs int
}

// Set is a keyed mutex. Entries are created on demand and dropped when the
// last holder or waiter releases them, so the map only holds contended keys.
type Set struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func New() *Set {
	return &Set{entries: make(map[string]*entry)}
}

func (s *Set) acquire(key string) *entry {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		e = &entry{}
		s.entries[key] = e
	}
	e.refs++
	s.mu.Unlock()

	e.mu.Lock()
	return e
}

func (s *Set) release(key string, e *entry) {
	e.mu.Unlock()

	s.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(s.entries, key)
	}
	s.mu.Unlock()
}

// Lock acquires every key and returns a function releasing them. Keys are
// deduplicated and taken in sorted order, so two callers locking
// overlapping sets cannot deadlock each other.
func (s *Set) Lock(keys ...string) (unlock func()) {
	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	held := make([]*entry, len(sorted))
	for i, k := range sorted {
		held[i] = s.acquire(k)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			for i := len(sorted) - 1; i >= 0; i-- {
				s.release(sorted[i], held[i])
			}
		})
	}
}

// Len returns the number of keys currently held or waited on.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
