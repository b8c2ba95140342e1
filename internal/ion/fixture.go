// Copyright 2025 Certen Protocol
//
// Fixture Fetchers
// This module ships no IPFS/Bitcoin network transport; these
// fixture-backed implementations of IPFSFetcher and BitcoinFetcher read
// pre-fetched raw bytes from a directory, for tests and
// cmd/trustchain's offline demonstration mode.

package ion

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
)

// FixtureIPFS resolves CIDs to files named <cid> under dir.
type FixtureIPFS struct {
	dir string
}

// NewFixtureIPFS constructs a FixtureIPFS reading raw object bytes from dir.
func NewFixtureIPFS(dir string) *FixtureIPFS {
	return &FixtureIPFS{dir: dir}
}

// Get implements IPFSFetcher.
func (f *FixtureIPFS) Get(ctx context.Context, cid string) ([]byte, error) {
	raw, err := os.ReadFile(filepath.Join(f.dir, cid))
	if err != nil {
		return nil, fmt.Errorf("fixture ipfs: read %s: %w", cid, err)
	}
	return raw, nil
}

// FixtureBitcoin resolves blocks/transactions to files named
// <blockHash>.header and <blockHash>.tx.<index> under dir, and block
// height/time to a flat <blockHash>.meta file: 4 bytes height followed
// by 4 bytes Unix time, both big-endian uint32.
type FixtureBitcoin struct {
	dir string
}

// NewFixtureBitcoin constructs a FixtureBitcoin reading raw chain data
// from dir.
func NewFixtureBitcoin(dir string) *FixtureBitcoin {
	return &FixtureBitcoin{dir: dir}
}

// Transaction implements BitcoinFetcher.
func (f *FixtureBitcoin) Transaction(ctx context.Context, blockHash string, txIndex int) ([]byte, error) {
	path := filepath.Join(f.dir, fmt.Sprintf("%s.tx.%d", blockHash, txIndex))
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fixture bitcoin: read transaction: %w", err)
	}
	return raw, nil
}

// BlockHeader implements BitcoinFetcher.
func (f *FixtureBitcoin) BlockHeader(ctx context.Context, blockHash string) ([80]byte, error) {
	var header [80]byte
	raw, err := os.ReadFile(filepath.Join(f.dir, blockHash+".header"))
	if err != nil {
		return header, fmt.Errorf("fixture bitcoin: read header: %w", err)
	}
	if len(raw) != 80 {
		return header, fmt.Errorf("fixture bitcoin: header file must be exactly 80 bytes, got %d", len(raw))
	}
	copy(header[:], raw)
	return header, nil
}

// BlockHeight implements BitcoinFetcher.
func (f *FixtureBitcoin) BlockHeight(ctx context.Context, blockHash string) (uint32, error) {
	meta, err := f.readMeta(blockHash)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(meta[0:4]), nil
}

// HeightToUnixTime implements BitcoinFetcher. The fixture format keys
// its meta file by block hash rather than height, so this fake assumes
// one block's meta file is consulted per verification run (true for
// every scenario this module tests, since a single root anchor names
// exactly one block).
func (f *FixtureBitcoin) HeightToUnixTime(ctx context.Context, height uint32) (uint32, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return 0, fmt.Errorf("fixture bitcoin: read dir: %w", err)
	}
	for _, e := range entries {
		name := e.Name()
		if len(name) < 5 || name[len(name)-5:] != ".meta" {
			continue
		}
		blockHash := name[:len(name)-5]
		meta, err := f.readMeta(blockHash)
		if err != nil {
			continue
		}
		if binary.BigEndian.Uint32(meta[0:4]) == height {
			return binary.BigEndian.Uint32(meta[4:8]), nil
		}
	}
	return 0, fmt.Errorf("fixture bitcoin: no meta file names height %d", height)
}

func (f *FixtureBitcoin) readMeta(blockHash string) ([]byte, error) {
	raw, err := os.ReadFile(filepath.Join(f.dir, blockHash+".meta"))
	if err != nil {
		return nil, fmt.Errorf("fixture bitcoin: read meta: %w", err)
	}
	if len(raw) != 8 {
		return nil, fmt.Errorf("fixture bitcoin: meta file must be exactly 8 bytes, got %d", len(raw))
	}
	return raw, nil
}
