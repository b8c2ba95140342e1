// Copyright 2025 Certen Protocol

package ion

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/gobengo/trustchain/internal/commitment"
)

// BitcoinFetcher retrieves raw Bitcoin chain data. This module ships no
// RPC client implementation; callers supply one.
type BitcoinFetcher interface {
	// Transaction returns the raw serialized transaction at txIndex
	// within the block named by blockHash.
	Transaction(ctx context.Context, blockHash string, txIndex int) ([]byte, error)
	// BlockHeader returns the raw 80-byte header of the block named by
	// blockHash.
	BlockHeader(ctx context.Context, blockHash string) ([80]byte, error)
	// BlockHeight returns the height of the block named by blockHash.
	BlockHeight(ctx context.Context, blockHash string) (uint32, error)
	// HeightToUnixTime converts a block height to its Unix timestamp.
	// This module ships no network-backed implementation; FixtureBitcoin
	// reads it from fixture files.
	HeightToUnixTime(ctx context.Context, height uint32) (uint32, error)
}

// txHash computes a transaction's txid: double-SHA-256 of the canonical
// serialization, displayed in the little-endian hex form Bitcoin tooling
// uses (wire.MsgTx.TxHash already returns a chainhash.Hash, whose String
// performs that byte-order reversal).
func txHash(candidate []byte) (string, error) {
	var tx wire.MsgTx
	if err := tx.Deserialize(bytes.NewReader(candidate)); err != nil {
		return "", fmt.Errorf("tx hash: deserialize: %w", err)
	}
	return tx.TxHash().String(), nil
}

// decodeTx deserializes a Bitcoin transaction, scans its outputs for the
// unique OP_RETURN script whose UTF-8 rendering contains the ION anchor
// prefix "ion:", and extracts the trailing CID from
// "ion:<operation-count>.<cid>" by partitioning on the LAST
// OperationCountDelimiter occurrence, since a CID could in principle
// itself contain characters adjacent to a delimiter, and the
// operation-count prefix never does.
func decodeTx(candidate []byte) (interface{}, error) {
	var tx wire.MsgTx
	if err := tx.Deserialize(bytes.NewReader(candidate)); err != nil {
		return nil, fmt.Errorf("tx decode: deserialize: %w", err)
	}

	var found []string
	for _, out := range tx.TxOut {
		script := out.PkScript
		if len(script) == 0 || script[0] != txscript.OP_RETURN {
			continue
		}
		pushes, err := txscript.PushedData(script)
		if err != nil || len(pushes) == 0 {
			continue
		}
		rendered := string(bytes.Join(pushes, nil))
		if strings.Contains(rendered, OpReturnPrefix) {
			found = append(found, rendered)
		}
	}

	if len(found) != 1 {
		return nil, fmt.Errorf("tx decode: expected exactly one ION OP_RETURN output, found %d", len(found))
	}

	anchor := found[0]
	idx := strings.Index(anchor, OpReturnPrefix)
	suffix := anchor[idx+len(OpReturnPrefix):]
	lastDot := strings.LastIndex(suffix, OperationCountDelimiter)
	if lastDot < 0 || lastDot == len(suffix)-1 {
		return nil, fmt.Errorf("tx decode: malformed ION anchor string %q", anchor)
	}
	cid := suffix[lastDot+1:]

	return map[string]interface{}{CIDKey: cid}, nil
}

// NewTxTrivial constructs an un-promoted commitment over a raw Bitcoin
// transaction, for use with commitment.ChainedCommitment.Append.
func NewTxTrivial(candidate []byte) commitment.TrivialCommitment {
	return commitment.NewTrivial(candidate, txHash, decodeTx)
}

// NewTxCommitment constructs an already-promoted transaction commitment
// with a caller-known expected structural fragment.
func NewTxCommitment(candidate []byte, expected interface{}) commitment.Commitment {
	return commitment.NewCommitment(candidate, txHash, decodeTx, expected)
}
