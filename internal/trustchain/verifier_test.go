package trustchain

import (
	"bytes"
	"compress/gzip"
	"context"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/gobengo/trustchain/internal/ion"
)

func gzipJSON(t *testing.T, raw string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(raw)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

func buildAnchorTx(t *testing.T, anchorString string) []byte {
	t.Helper()
	tx := wire.NewMsgTx(wire.TxVersion)
	var zeroHash chainhash.Hash
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: *wire.NewOutPoint(&zeroHash, wire.MaxPrevOutIndex),
		Sequence:         wire.MaxTxInSequenceNum,
	})
	script, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_RETURN).
		AddData([]byte(anchorString)).
		Script()
	if err != nil {
		t.Fatalf("build script: %v", err)
	}
	tx.AddTxOut(wire.NewTxOut(0, script))
	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		t.Fatalf("serialize tx: %v", err)
	}
	return buf.Bytes()
}

func buildBlockHeader(t *testing.T, merkleRoot chainhash.Hash, timestamp time.Time) []byte {
	t.Helper()
	header := wire.BlockHeader{
		Version:    1,
		PrevBlock:  chainhash.Hash{},
		MerkleRoot: merkleRoot,
		Timestamp:  timestamp,
		Bits:       0x1d00ffff,
		Nonce:      0,
	}
	var buf bytes.Buffer
	if err := header.Serialize(&buf); err != nil {
		t.Fatalf("serialize header: %v", err)
	}
	return buf.Bytes()
}

// memIPFS/memBitcoin are in-memory IPFSFetcher/BitcoinFetcher fakes,
// kept local to this test rather than touching disk via
// ion.FixtureIPFS/FixtureBitcoin.
type memIPFS struct {
	objects map[string][]byte
}

func (m *memIPFS) Get(ctx context.Context, cid string) ([]byte, error) {
	raw, ok := m.objects[cid]
	if !ok {
		return nil, &Error{Kind: FailureToGetDIDOperation, Detail: "no object for " + cid}
	}
	return raw, nil
}

type memBitcoin struct {
	blockHash string
	tx        []byte
	header    [80]byte
	height    uint32
	unixTime  uint32
}

func (m *memBitcoin) Transaction(ctx context.Context, blockHash string, txIndex int) ([]byte, error) {
	if blockHash != m.blockHash || txIndex != 0 {
		return nil, &Error{Kind: InvalidTransactionIndex, Detail: "no such transaction"}
	}
	return m.tx, nil
}

func (m *memBitcoin) BlockHeader(ctx context.Context, blockHash string) ([80]byte, error) {
	if blockHash != m.blockHash {
		return [80]byte{}, &Error{Kind: InvalidBlockHeight, Detail: "no such block"}
	}
	return m.header, nil
}

func (m *memBitcoin) BlockHeight(ctx context.Context, blockHash string) (uint32, error) {
	if blockHash != m.blockHash {
		return 0, &Error{Kind: FailureToGetBlockHeight, Detail: "no such block"}
	}
	return m.height, nil
}

func (m *memBitcoin) HeightToUnixTime(ctx context.Context, height uint32) (uint32, error) {
	if height != m.height {
		return 0, &Error{Kind: FailureToGetUnixTime, Detail: "no such height"}
	}
	return m.unixTime, nil
}

// buildAnchorFixture assembles a genuine chunk -> provisional index ->
// core index -> transaction -> block header commitment chain for
// rootDID, anchored at expectedTimestamp, mirroring internal/ion's own
// TestRootAnchorChainVerifies construction.
func buildAnchorFixture(t *testing.T, rootDID string, expectedTimestamp int64) (RootAnchorInputs, *memIPFS, *memBitcoin) {
	t.Helper()

	chunkCandidate := gzipJSON(t, `{"deltas":[{"patches":[{"action":"add-public-keys","publicKeys":[{"id":"key-1","type":"EcdsaSecp256k1VerificationKey2019"}]}]}]}`)
	chunkCID, err := ion.NewIPFSTrivial(chunkCandidate).Hash()
	if err != nil {
		t.Fatalf("chunk hash: %v", err)
	}

	provisionalCandidate := gzipJSON(t, `{"chunks":[{"chunkFileUri":"`+chunkCID+`"}]}`)
	provisionalCID, err := ion.NewIPFSTrivial(provisionalCandidate).Hash()
	if err != nil {
		t.Fatalf("provisional hash: %v", err)
	}

	coreCandidate := gzipJSON(t, `{"provisionalIndexFileUri":"`+provisionalCID+`"}`)
	coreCID, err := ion.NewIPFSTrivial(coreCandidate).Hash()
	if err != nil {
		t.Fatalf("core hash: %v", err)
	}

	txCandidate := buildAnchorTx(t, ion.OpReturnPrefix+"1"+ion.OperationCountDelimiter+coreCID)
	txid, err := ion.NewTxTrivial(txCandidate).Hash()
	if err != nil {
		t.Fatalf("tx hash: %v", err)
	}
	txidHash, err := chainhash.NewHashFromStr(txid)
	if err != nil {
		t.Fatalf("parse txid: %v", err)
	}

	blockCandidate := buildBlockHeader(t, *txidHash, time.Unix(expectedTimestamp, 0))
	if len(blockCandidate) != 80 {
		t.Fatalf("block header must serialize to 80 bytes, got %d", len(blockCandidate))
	}
	var header [80]byte
	copy(header[:], blockCandidate)

	const blockHashFixture = "test-block-hash"
	anchor := RootAnchorInputs{
		ChunkFileCID:            chunkCID,
		ProvisionalIndexFileCID: provisionalCID,
		CoreIndexFileCID:        coreCID,
		BlockHash:               blockHashFixture,
		TransactionIndex:        0,
	}
	ipfs := &memIPFS{objects: map[string][]byte{
		chunkCID:       chunkCandidate,
		provisionalCID: provisionalCandidate,
		coreCID:        coreCandidate,
	}}
	btc := &memBitcoin{
		blockHash: blockHashFixture,
		tx:        txCandidate,
		header:    header,
		height:    800_000,
		unixTime:  uint32(expectedTimestamp),
	}
	return anchor, ipfs, btc
}

func TestVerifierVerifySucceedsEndToEnd(t *testing.T) {
	const rootDID = "did:ion:test:root"
	const expectedTimestamp = int64(1_700_000_000)

	anchor, ipfs, btc := buildAnchorFixture(t, rootDID, expectedTimestamp)
	resolver := &fakeResolver{docs: map[string]*ResolvedDID{
		rootDID: {Document: selfControlledDoc(rootDID)},
	}}

	verifier := NewVerifier(resolver, nil, ipfs, btc)
	chain, err := verifier.Verify(context.Background(), rootDID, anchor, expectedTimestamp)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if chain.Root().DID != rootDID {
		t.Fatalf("chain.Root().DID = %q, want %q", chain.Root().DID, rootDID)
	}
}

func TestVerifierVerifyFailsOnBadChainProofBeforeTouchingAnchor(t *testing.T) {
	chain, _ := buildSignedChain(t)
	other, _ := btcec.NewPrivateKey()
	digest, _ := canonicalDocumentDigest(chain.Links[0].Document)
	chain.Links[0].Metadata.Proof.ProofValue = signDetachedJWS(t, other, digest)

	resolver := &fakeResolver{docs: map[string]*ResolvedDID{
		chain.Links[0].DID: {Document: chain.Links[0].Document, Metadata: chain.Links[0].Metadata},
		chain.Links[1].DID: {Document: chain.Links[1].Document},
	}}
	// An anchor fetcher that would fail loudly if ever called: a broken
	// chain proof must short-circuit before VerifyRoot touches it.
	ipfs := &memIPFS{objects: map[string][]byte{}}
	btc := &memBitcoin{blockHash: "unused"}

	verifier := NewVerifier(resolver, nil, ipfs, btc)
	_, err := verifier.Verify(context.Background(), chain.Links[0].DID, RootAnchorInputs{}, 0)
	verr, ok := err.(*Error)
	if !ok || verr.Kind != InvalidSignature {
		t.Fatalf("err = %v, want InvalidSignature", err)
	}
}

func TestVerifierVerifyFailsOnMismatchedTimestamp(t *testing.T) {
	const rootDID = "did:ion:test:root"
	const expectedTimestamp = int64(1_700_000_000)

	anchor, ipfs, btc := buildAnchorFixture(t, rootDID, expectedTimestamp)
	resolver := &fakeResolver{docs: map[string]*ResolvedDID{
		rootDID: {Document: selfControlledDoc(rootDID)},
	}}

	verifier := NewVerifier(resolver, nil, ipfs, btc)
	_, err := verifier.Verify(context.Background(), rootDID, anchor, expectedTimestamp+1)
	verr, ok := err.(*Error)
	if !ok || verr.Kind != InvalidRoot {
		t.Fatalf("err = %v, want InvalidRoot for a mismatched root timestamp", err)
	}
}
