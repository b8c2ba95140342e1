// Copyright 2025 Certen Protocol
//
// Verification Façade
// The single entry point for a full verification: build the chain,
// verify every non-root link's controller proof, then verify the
// root's anchoring to a specific Bitcoin block, in that order, failing
// closed on the first problem found.

package trustchain

import (
	"context"

	"github.com/gobengo/trustchain/internal/ion"
)

// Verifier ties a Resolver/Cache pair to a RootAnchorVerifier and runs
// the full verification pipeline for a target DID.
type Verifier struct {
	resolver Resolver
	cache    Cache
	root     *RootAnchorVerifier
}

// NewVerifier constructs a Verifier. cache may be nil (no caching).
func NewVerifier(resolver Resolver, cache Cache, ipfs ion.IPFSFetcher, btc ion.BitcoinFetcher) *Verifier {
	return &Verifier{
		resolver: resolver,
		cache:    cache,
		root:     NewRootAnchorVerifier(ipfs, btc),
	}
}

// Verify reconstructs the DID chain rooted at did, verifies every
// downstream link's controller proof, and verifies the root's anchoring
// commitment against anchor/expectedTimestamp. It returns the
// reconstructed chain on success; on a proof or anchor failure it
// returns the reconstructed chain alongside a typed *Error (nil chain if
// chain construction itself failed).
func (v *Verifier) Verify(ctx context.Context, did string, anchor RootAnchorInputs, expectedTimestamp int64) (*DIDChain, error) {
	chain, err := BuildChain(ctx, v.resolver, v.cache, did)
	if err != nil {
		return nil, err
	}

	if err := VerifyChainProofs(chain); err != nil {
		return chain, err
	}

	root := chain.Root()
	if err := v.root.VerifyRoot(ctx, root.DID, anchor, expectedTimestamp); err != nil {
		return chain, err
	}

	return chain, nil
}
