// Copyright 2025 Certen Protocol

package ion

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/wire"

	"github.com/gobengo/trustchain/internal/commitment"
)

// blockHash computes a block header's double-SHA-256 block hash,
// displayed in Bitcoin's conventional little-endian hex form.
func blockHash(candidate []byte) (string, error) {
	header, err := decodeBlockHeader(candidate)
	if err != nil {
		return "", fmt.Errorf("block hash: %w", err)
	}
	return header.BlockHash().String(), nil
}

// decodeBlock exposes a raw 80-byte block header's merkle root,
// timestamp and previous block hash. The merkle root field is treated
// as the directly-verifiable value binding a block to the transaction it
// anchors, propagated via the same ChainedCommitment.Append
// hash-chaining mechanism used for every other link, under a
// single-transaction-per-anchor-block model (see DESIGN.md). A
// multi-transaction anchor block would instead supply a Merkle inclusion
// proof from the anchoring txid up to this root.
func decodeBlock(candidate []byte) (interface{}, error) {
	header, err := decodeBlockHeader(candidate)
	if err != nil {
		return nil, fmt.Errorf("block decode: %w", err)
	}
	return map[string]interface{}{
		"merkleRoot":    header.MerkleRoot.String(),
		"timestamp":     header.Timestamp.Unix(),
		"prevBlockHash": header.PrevBlock.String(),
	}, nil
}

func decodeBlockHeader(candidate []byte) (*wire.BlockHeader, error) {
	if len(candidate) != 80 {
		return nil, fmt.Errorf("expected an 80-byte block header, got %d bytes", len(candidate))
	}
	var header wire.BlockHeader
	if err := header.Deserialize(bytes.NewReader(candidate)); err != nil {
		return nil, fmt.Errorf("deserialize: %w", err)
	}
	return &header, nil
}

// NewBlockTrivial constructs an un-promoted commitment over a raw
// Bitcoin block header, for use with commitment.ChainedCommitment.Append.
func NewBlockTrivial(candidate []byte) commitment.TrivialCommitment {
	return commitment.NewTrivial(candidate, blockHash, decodeBlock)
}

// NewBlockCommitment constructs an already-promoted block commitment
// with a caller-known expected structural fragment.
func NewBlockCommitment(candidate []byte, expected interface{}) commitment.Commitment {
	return commitment.NewCommitment(candidate, blockHash, decodeBlock, expected)
}
