// Copyright 2025 Certen Protocol

package ion

import (
	"context"
	"fmt"

	cid "github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"

	"github.com/gobengo/trustchain/internal/canon"
	"github.com/gobengo/trustchain/internal/commitment"
)

// IPFSFetcher retrieves the raw gzip-compressed bytes an IPFS CID names.
// This module ships no transport implementation; callers supply one (an
// HTTP gateway client, a local daemon client, a fixture for tests).
type IPFSFetcher interface {
	Get(ctx context.Context, cid string) ([]byte, error)
}

// ipfsHash computes the CIDv0 (sha256 multihash, base58btc, "Qm..."
// prefix) of raw bytes, matching what an ION node's IPFS writes for
// these files in practice, so verification against those wire-compatible
// CIDs actually succeeds.
func ipfsHash(data []byte) (string, error) {
	digest, err := mh.Sum(data, mh.SHA2_256, -1)
	if err != nil {
		return "", fmt.Errorf("ipfs hash: multihash: %w", err)
	}
	return cid.NewCidV0(digest).String(), nil
}

// decodeGzipJSON gunzips data then parses it as JSON, the decoder shared
// by every ION file commitment (chunk, provisional index, core index).
func decodeGzipJSON(data []byte) (interface{}, error) {
	raw, err := canon.Gunzip(data)
	if err != nil {
		return nil, err
	}
	return jsonDecode(raw)
}

// NewIPFSTrivial constructs an un-promoted commitment over raw
// gzip-compressed IPFS object bytes, for use with
// commitment.ChainedCommitment.Append.
func NewIPFSTrivial(candidate []byte) commitment.TrivialCommitment {
	return commitment.NewTrivial(candidate, ipfsHash, decodeGzipJSON)
}

// NewIPFSCommitment constructs an already-promoted IPFS commitment with a
// caller-known expected structural fragment (the S1-S3 style fixtures:
// target and expected are both known up front, independent of any
// surrounding chain).
func NewIPFSCommitment(candidate []byte, expected interface{}) commitment.Commitment {
	return commitment.NewCommitment(candidate, ipfsHash, decodeGzipJSON, expected)
}
