// Copyright 2025 Certen Protocol
//
// Root Anchor Verifier
// Assembles the chained commitment from a root DID's chunk file down to
// its anchoring Bitcoin block.

package trustchain

import (
	"context"
	"fmt"

	"github.com/gobengo/trustchain/internal/commitment"
	"github.com/gobengo/trustchain/internal/ion"
)

// RootAnchorInputs names the ION file/transaction identifiers a root
// DID's create operation is anchored by. Locating these from a root DID
// is resolver/ION-node-internal logic this module does not implement;
// callers obtain them from their resolver's ION-specific resolution
// metadata and pass them in directly.
type RootAnchorInputs struct {
	ChunkFileCID            string
	ProvisionalIndexFileCID string
	CoreIndexFileCID        string
	BlockHash               string
	TransactionIndex        int
}

// RootAnchorVerifier fetches and assembles the chained commitment
// proving a root DID's document content is committed to by a specific
// Bitcoin block.
type RootAnchorVerifier struct {
	ipfs ion.IPFSFetcher
	btc  ion.BitcoinFetcher
}

// NewRootAnchorVerifier constructs a RootAnchorVerifier over the given
// IPFS/Bitcoin fetchers.
func NewRootAnchorVerifier(ipfs ion.IPFSFetcher, btc ion.BitcoinFetcher) *RootAnchorVerifier {
	return &RootAnchorVerifier{ipfs: ipfs, btc: btc}
}

// VerifyRoot builds DIDCommitment(chunk file) -> IpfsCommitment
// (provisional index) -> IpfsCommitment(core index) -> TxCommitment
// (anchoring tx) -> BlockCommitment(containing block), verifies the
// chain against the block's hash, and additionally verifies a
// TimestampCommitment sharing the block header's candidate against
// expectedTimestamp. The chunk commitment's expected data is built from
// the chunk file's own add-public-keys/add-services patches; the
// resolved root document is not consulted, so its keys and endpoints
// are not checked against the chunk file.
func (v *RootAnchorVerifier) VerifyRoot(ctx context.Context, rootDID string, in RootAnchorInputs, expectedTimestamp int64) error {
	chunkBytes, err := v.ipfs.Get(ctx, in.ChunkFileCID)
	if err != nil {
		return wrap(FailureToGetDIDOperation, fmt.Sprintf("fetch chunk file: %v", err))
	}
	did := ion.NewDIDTrivial(chunkBytes, rootDID)

	keys, err := did.CandidateKeys()
	if err != nil {
		return wrap(InvalidRoot, fmt.Sprintf("derive candidate keys: %v", err))
	}
	endpoints, err := did.CandidateEndpoints()
	if err != nil {
		return wrap(InvalidRoot, fmt.Sprintf("derive candidate endpoints: %v", err))
	}
	c0 := did.ToCommitment(rootDocumentFragment(keys, endpoints))
	chain := commitment.NewChainedCommitment(c0)

	provisionalBytes, err := v.ipfs.Get(ctx, in.ProvisionalIndexFileCID)
	if err != nil {
		return wrap(FailureToGetDIDOperation, fmt.Sprintf("fetch provisional index file: %v", err))
	}
	if err := chain.Append(ion.NewIPFSTrivial(provisionalBytes)); err != nil {
		return toRootError(err)
	}

	coreBytes, err := v.ipfs.Get(ctx, in.CoreIndexFileCID)
	if err != nil {
		return wrap(FailureToGetDIDOperation, fmt.Sprintf("fetch core index file: %v", err))
	}
	if err := chain.Append(ion.NewIPFSTrivial(coreBytes)); err != nil {
		return toRootError(err)
	}

	txBytes, err := v.btc.Transaction(ctx, in.BlockHash, in.TransactionIndex)
	if err != nil {
		return wrap(InvalidTransactionIndex, fmt.Sprintf("fetch transaction: %v", err))
	}
	if err := chain.Append(ion.NewTxTrivial(txBytes)); err != nil {
		return toRootError(err)
	}

	header, err := v.btc.BlockHeader(ctx, in.BlockHash)
	if err != nil {
		return wrap(InvalidBlockHeight, fmt.Sprintf("fetch block header: %v", err))
	}
	blockTrivial := ion.NewBlockTrivial(header[:])
	if err := chain.Append(blockTrivial); err != nil {
		return toRootError(err)
	}

	blockHashTarget, err := blockTrivial.Hash()
	if err != nil {
		return wrap(InvalidRoot, err.Error())
	}
	if err := chain.Verify(blockHashTarget); err != nil {
		return toRootError(err)
	}

	ts := ion.NewTimestampCommitment(blockTrivial, expectedTimestamp)
	if err := ts.Verify(blockHashTarget); err != nil {
		return wrap(InvalidRoot, "timestamp commitment: "+err.Error())
	}

	// Defense in depth alongside the TimestampCommitment's structural
	// check above: independently derive the block's Unix time from its
	// height and require exact equality against expectedTimestamp.
	height, err := v.btc.BlockHeight(ctx, in.BlockHash)
	if err != nil {
		return wrap(FailureToGetBlockHeight, fmt.Sprintf("block height: %v", err))
	}
	unixTime, err := v.btc.HeightToUnixTime(ctx, height)
	if err != nil {
		return wrap(FailureToGetUnixTime, fmt.Sprintf("height to unix time: %v", err))
	}
	if uint32(expectedTimestamp) != unixTime {
		return wrap(InvalidRoot, "block height's unix time does not match expected root timestamp")
	}
	return nil
}

func rootDocumentFragment(keys, endpoints []interface{}) map[string]interface{} {
	var patches []interface{}
	if len(keys) > 0 {
		patches = append(patches, map[string]interface{}{
			"action":     "add-public-keys",
			"publicKeys": keys,
		})
	}
	if len(endpoints) > 0 {
		patches = append(patches, map[string]interface{}{
			"action":   "add-services",
			"services": endpoints,
		})
	}
	return map[string]interface{}{
		"deltas": []interface{}{
			map[string]interface{}{"patches": patches},
		},
	}
}

func toRootError(err error) error {
	if ce, ok := err.(*commitment.Error); ok {
		switch ce.Kind {
		case commitment.FailedHashVerification, commitment.FailedContentVerification:
			return wrap(InvalidRoot, ce.Error())
		case commitment.DataDecoding:
			return wrap(FailureToGetDIDOperation, ce.Error())
		}
	}
	return wrap(InvalidRoot, err.Error())
}
