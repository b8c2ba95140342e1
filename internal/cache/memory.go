// Copyright 2025 Certen Protocol
//
// In-memory resolver cache
// The default trustchain.Cache backend: a mutex-guarded map, insert-once
// per DID (a resolved document is never overwritten once cached, mirroring
// the no-re-resolution-mid-chain-build guarantee trustchain.BuildChain
// relies on).

package cache

import (
	"sync"

	"github.com/gobengo/trustchain/internal/trustchain"
)

// Memory is a process-local trustchain.Cache backed by a mutex-guarded map.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*trustchain.ResolvedDID
}

// NewMemory constructs an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]*trustchain.ResolvedDID)}
}

// Get implements trustchain.Cache.
func (m *Memory) Get(did string) (*trustchain.ResolvedDID, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.entries[did]
	return r, ok
}

// Put implements trustchain.Cache. A DID already present is left
// untouched; resolved DID documents are immutable once cached.
func (m *Memory) Put(did string, resolved *trustchain.ResolvedDID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.entries[did]; exists {
		return
	}
	m.entries[did] = resolved
}
