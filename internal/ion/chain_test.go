package ion

import (
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/gobengo/trustchain/internal/commitment"
)

// TestRootAnchorChainVerifies builds a synthetic root anchor chain:
// DIDCommitment(chunk file) -> IpfsCommitment(provisional index) ->
// IpfsCommitment(core index) -> TxCommitment(anchoring tx) ->
// BlockCommitment(containing block), each candidate genuinely
// referencing the previous link's hash the way a real ION chunk/index
// file nests its predecessor's CID.
func TestRootAnchorChainVerifies(t *testing.T) {
	chunkCandidate := gzipJSON(t, chunkFileFixture)
	did := NewDIDTrivial(chunkCandidate, "did:ion:test:abc")
	chunkCID, err := did.Hash()
	if err != nil {
		t.Fatalf("chunk hash: %v", err)
	}

	rootDoc := did // re-derive expected keys/endpoints from the same candidate
	keys, err := rootDoc.CandidateKeys()
	if err != nil {
		t.Fatalf("CandidateKeys: %v", err)
	}
	c0 := did.ToCommitment(map[string]interface{}{
		"deltas": []interface{}{
			map[string]interface{}{
				"patches": []interface{}{
					map[string]interface{}{"action": "add-public-keys", "publicKeys": keys},
				},
			},
		},
	})

	chain := commitment.NewChainedCommitment(c0)

	provisionalCandidate := gzipJSON(t, `{"chunks":[{"chunkFileUri":"`+chunkCID+`"}]}`)
	if err := chain.Append(NewIPFSTrivial(provisionalCandidate)); err != nil {
		t.Fatalf("append provisional: %v", err)
	}
	provisionalCID, err := ipfsHash(provisionalCandidate)
	if err != nil {
		t.Fatalf("provisional hash: %v", err)
	}

	coreCandidate := gzipJSON(t, `{"provisionalIndexFileUri":"`+provisionalCID+`"}`)
	if err := chain.Append(NewIPFSTrivial(coreCandidate)); err != nil {
		t.Fatalf("append core: %v", err)
	}
	coreCID, err := ipfsHash(coreCandidate)
	if err != nil {
		t.Fatalf("core hash: %v", err)
	}

	txCandidate := buildAnchorTx(t, OpReturnPrefix+"1"+OperationCountDelimiter+coreCID)
	if err := chain.Append(NewTxTrivial(txCandidate)); err != nil {
		t.Fatalf("append tx: %v", err)
	}
	txid, err := txHash(txCandidate)
	if err != nil {
		t.Fatalf("tx hash: %v", err)
	}
	txidHash, err := chainhash.NewHashFromStr(txid)
	if err != nil {
		t.Fatalf("parse txid: %v", err)
	}

	blockCandidate := buildBlockHeader(t, *txidHash, time.Unix(1_600_000_000, 0))
	if err := chain.Append(NewBlockTrivial(blockCandidate)); err != nil {
		t.Fatalf("append block: %v", err)
	}
	blockTarget, err := blockHash(blockCandidate)
	if err != nil {
		t.Fatalf("block hash: %v", err)
	}

	if err := chain.Verify(blockTarget); err != nil {
		t.Fatalf("chain.Verify: %v", err)
	}

	// A TimestampCommitment sharing the block header's candidate
	// verifies against the same block hash.
	ts := NewTimestampCommitment(NewBlockTrivial(blockCandidate), 1_600_000_000)
	if err := ts.Verify(blockTarget); err != nil {
		t.Fatalf("TimestampCommitment.Verify: %v", err)
	}
}

func TestRootAnchorChainFailsOnFinalTargetMismatch(t *testing.T) {
	chunkCandidate := gzipJSON(t, chunkFileFixture)
	did := NewDIDTrivial(chunkCandidate, "did:ion:test:abc")
	chunkCID, err := did.Hash()
	if err != nil {
		t.Fatalf("chunk hash: %v", err)
	}
	c0 := did.ToCommitment(map[string]interface{}{})
	chain := commitment.NewChainedCommitment(c0)

	provisionalCandidate := gzipJSON(t, `{"chunks":[{"chunkFileUri":"`+chunkCID+`"}]}`)
	if err := chain.Append(NewIPFSTrivial(provisionalCandidate)); err != nil {
		t.Fatalf("append provisional: %v", err)
	}

	err = chain.Verify("not-a-real-hash")
	if err == nil {
		t.Fatal("expected an error verifying against a bogus final target")
	}
}
