// Copyright 2025 Certen Protocol
//
// KV-backed resolver cache
// Wraps a CometBFT dbm.DB (the same embedded key-value store the
// teacher's ledger package persists state in) so a resolver cache can
// survive process restarts without standing up Postgres or Firestore.

package cache

import (
	"encoding/json"

	dbm "github.com/cometbft/cometbft-db"

	"github.com/gobengo/trustchain/internal/trustchain"
)

// KV is a trustchain.Cache backed by a CometBFT dbm.DB.
type KV struct {
	db dbm.DB
}

// NewKV constructs a KV cache over an already-open dbm.DB.
func NewKV(db dbm.DB) *KV {
	return &KV{db: db}
}

// Get implements trustchain.Cache.
func (k *KV) Get(did string) (*trustchain.ResolvedDID, bool) {
	raw, err := k.db.Get([]byte(did))
	if err != nil || raw == nil {
		return nil, false
	}
	var resolved trustchain.ResolvedDID
	if err := json.Unmarshal(raw, &resolved); err != nil {
		return nil, false
	}
	return &resolved, true
}

// Put implements trustchain.Cache. Mirrors Memory's insert-once
// semantics: a DID already present in the store is left untouched.
func (k *KV) Put(did string, resolved *trustchain.ResolvedDID) {
	if existing, err := k.db.Get([]byte(did)); err == nil && existing != nil {
		return
	}
	raw, err := json.Marshal(resolved)
	if err != nil {
		return
	}
	_ = k.db.SetSync([]byte(did), raw)
}
