package trustchain

import (
	"context"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
)

// fakeResolver resolves from an in-memory map, standing in for a
// resolver transport in tests.
type fakeResolver struct {
	docs map[string]*ResolvedDID
}

func (f *fakeResolver) Resolve(ctx context.Context, did string) (*ResolutionMetadata, *Document, *DocumentMetadata, error) {
	r, ok := f.docs[did]
	if !ok {
		return nil, nil, nil, &Error{Kind: UnresolvableDID, Detail: "no fixture for " + did}
	}
	return r.Resolution, r.Document, r.Metadata, nil
}

func selfControlledDoc(did string) *Document {
	return &Document{ID: did}
}

func TestBuildChainSelfControlledRoot(t *testing.T) {
	resolver := &fakeResolver{docs: map[string]*ResolvedDID{
		"did:ion:test:root": {Document: selfControlledDoc("did:ion:test:root")},
	}}
	chain, err := BuildChain(context.Background(), resolver, nil, "did:ion:test:root")
	if err != nil {
		t.Fatalf("BuildChain: %v", err)
	}
	if len(chain.Links) != 1 {
		t.Fatalf("len(Links) = %d, want 1", len(chain.Links))
	}
	if chain.Root().DID != "did:ion:test:root" || chain.Root().Controller != "did:ion:test:root" {
		t.Fatalf("root link = %+v, want self-controlled root", chain.Root())
	}
}

func TestBuildChainMultiHop(t *testing.T) {
	leaf := &Document{ID: "did:ion:test:leaf", Controller: OneOrMany[string]{Values: []string{"did:ion:test:root"}}}
	root := selfControlledDoc("did:ion:test:root")
	resolver := &fakeResolver{docs: map[string]*ResolvedDID{
		"did:ion:test:leaf": {Document: leaf},
		"did:ion:test:root": {Document: root},
	}}
	chain, err := BuildChain(context.Background(), resolver, nil, "did:ion:test:leaf")
	if err != nil {
		t.Fatalf("BuildChain: %v", err)
	}
	if len(chain.Links) != 2 {
		t.Fatalf("len(Links) = %d, want 2", len(chain.Links))
	}
	if chain.Target().DID != "did:ion:test:leaf" || chain.Root().DID != "did:ion:test:root" {
		t.Fatalf("unexpected chain order: %+v", chain.Links)
	}
}

func TestBuildChainDetectsCycle(t *testing.T) {
	a := &Document{ID: "did:ion:test:a", Controller: OneOrMany[string]{Values: []string{"did:ion:test:b"}}}
	b := &Document{ID: "did:ion:test:b", Controller: OneOrMany[string]{Values: []string{"did:ion:test:a"}}}
	resolver := &fakeResolver{docs: map[string]*ResolvedDID{
		"did:ion:test:a": {Document: a},
		"did:ion:test:b": {Document: b},
	}}
	_, err := BuildChain(context.Background(), resolver, nil, "did:ion:test:a")
	verr, ok := err.(*Error)
	if !ok || verr.Kind != ChainBuildFailure {
		t.Fatalf("err = %v, want ChainBuildFailure", err)
	}
}

func TestBuildChainRejectsMultipleControllers(t *testing.T) {
	doc := &Document{ID: "did:ion:test:leaf", Controller: OneOrMany[string]{Values: []string{"did:ion:test:a", "did:ion:test:b"}}}
	resolver := &fakeResolver{docs: map[string]*ResolvedDID{"did:ion:test:leaf": {Document: doc}}}
	_, err := BuildChain(context.Background(), resolver, nil, "did:ion:test:leaf")
	verr, ok := err.(*Error)
	if !ok || verr.Kind != FailureToGetController {
		t.Fatalf("err = %v, want FailureToGetController for a multi-valued controller", err)
	}
}

func TestBuildChainUnresolvableDID(t *testing.T) {
	resolver := &fakeResolver{docs: map[string]*ResolvedDID{}}
	_, err := BuildChain(context.Background(), resolver, nil, "did:ion:test:missing")
	verr, ok := err.(*Error)
	if !ok || verr.Kind != UnresolvableDID {
		t.Fatalf("err = %v, want UnresolvableDID", err)
	}
}

// buildSignedChain constructs a genuine two-link chain (leaf controlled
// by a self-controlled root) with a real ES256K detached-JWS proof over
// the leaf document's canonical digest, for VerifyChainProofs tests.
func buildSignedChain(t *testing.T) (*DIDChain, *btcec.PrivateKey) {
	t.Helper()
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		t.Fatalf("new key: %v", err)
	}
	rootDoc := &Document{
		ID: "did:ion:test:root",
		VerificationMethod: []VerificationMethodMap{{
			ID:           "did:ion:test:root#key-1",
			Type:         "EcdsaSecp256k1VerificationKey2019",
			PublicKeyJwk: jwkFor(priv.PubKey()),
		}},
	}
	leafDoc := &Document{
		ID:         "did:ion:test:leaf",
		Controller: OneOrMany[string]{Values: []string{"did:ion:test:root"}},
	}
	digest, err := canonicalDocumentDigest(leafDoc)
	if err != nil {
		t.Fatalf("canonicalDocumentDigest: %v", err)
	}
	proofValue := signDetachedJWS(t, priv, digest)

	chain := &DIDChain{Links: []ChainLink{
		{DID: leafDoc.ID, Document: leafDoc, Controller: rootDoc.ID, Metadata: &DocumentMetadata{
			Proof: &Proof{ID: rootDoc.ID, ProofValue: proofValue},
		}},
		{DID: rootDoc.ID, Document: rootDoc, Controller: rootDoc.ID},
	}}
	return chain, priv
}

func TestVerifyChainProofsSucceeds(t *testing.T) {
	chain, _ := buildSignedChain(t)
	if err := VerifyChainProofs(chain); err != nil {
		t.Fatalf("VerifyChainProofs: %v", err)
	}
}

func TestVerifyChainProofsMissingProof(t *testing.T) {
	chain, _ := buildSignedChain(t)
	chain.Links[0].Metadata.Proof = nil
	err := VerifyChainProofs(chain)
	verr, ok := err.(*Error)
	if !ok || verr.Kind != FailureToGetProof {
		t.Fatalf("err = %v, want FailureToGetProof", err)
	}
}

func TestVerifyChainProofsWrongProofController(t *testing.T) {
	chain, _ := buildSignedChain(t)
	chain.Links[0].Metadata.Proof.ID = "did:ion:test:someone-else"
	err := VerifyChainProofs(chain)
	verr, ok := err.(*Error)
	if !ok || verr.Kind != InvalidChain {
		t.Fatalf("err = %v, want InvalidChain", err)
	}
}

func TestVerifyChainProofsBadSignature(t *testing.T) {
	chain, _ := buildSignedChain(t)
	other, _ := btcec.NewPrivateKey()
	digest, _ := canonicalDocumentDigest(chain.Links[0].Document)
	chain.Links[0].Metadata.Proof.ProofValue = signDetachedJWS(t, other, digest)
	err := VerifyChainProofs(chain)
	verr, ok := err.(*Error)
	if !ok || verr.Kind != InvalidSignature {
		t.Fatalf("err = %v, want InvalidSignature", err)
	}
}
