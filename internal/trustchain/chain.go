// Copyright 2025 Certen Protocol
//
// DID Chain Builder & Proof Verifier
// Walks controller -> controlled edges from a target DID downstream to
// a self-controlled root, then verifies each link's proof against its
// controller's document, strictly in downstream-to-root order.

package trustchain

import (
	"context"
	"encoding/json"

	"github.com/gobengo/trustchain/internal/canon"
)

// BuildChain reconstructs the DIDChain rooted at did: repeatedly
// resolving a DID's controller until a self-controlled root is
// reached, rejecting cycles among the first n-1 links and rejecting a
// controller property naming more than one DID.
func BuildChain(ctx context.Context, resolver Resolver, cache Cache, did string) (*DIDChain, error) {
	var links []ChainLink
	seen := make(map[string]bool)
	current := did

	for {
		if seen[current] {
			return nil, wrap(ChainBuildFailure, "cycle detected at "+current)
		}
		seen[current] = true

		resolved, err := cachedResolve(ctx, resolver, cache, current)
		if err != nil {
			return nil, err
		}

		controllers := resolved.Document.Controller.Values
		var controller string
		switch len(controllers) {
		case 0:
			// No explicit controller: the document controls itself.
			controller = current
		case 1:
			controller = controllers[0]
		default:
			return nil, wrap(FailureToGetController, "controller must name exactly one DID, found multiple")
		}

		links = append(links, ChainLink{
			DID:        current,
			Document:   resolved.Document,
			Metadata:   resolved.Metadata,
			Controller: controller,
		})

		if controller == current {
			return &DIDChain{Links: links}, nil
		}
		current = controller
	}
}

// VerifyChainProofs checks, for each non-root link i, that its proof
// verifies under some verification method of its controller's document
// (links[i+1]), with payload equal to the SHA-256 digest of the JCS
// serialization of links[i]'s own document. Links are verified strictly
// in chain order, downstream to root.
func VerifyChainProofs(chain *DIDChain) error {
	for i := 0; i < len(chain.Links)-1; i++ {
		link := chain.Links[i]
		controllerLink := chain.Links[i+1]

		if link.Metadata == nil || link.Metadata.Proof == nil {
			return wrap(FailureToGetProof, "missing proof for "+link.DID)
		}
		if link.Metadata.Proof.ID != controllerLink.DID {
			return wrap(InvalidChain, "proof controller does not match chain link for "+link.DID)
		}

		payloadHash, err := canonicalDocumentDigest(link.Document)
		if err != nil {
			return wrap(InvalidPayload, err.Error())
		}

		if err := verifyDetachedJWS(link.Metadata.Proof.ProofValue, payloadHash, controllerLink.Document.VerificationMethod); err != nil {
			return err
		}
	}
	return nil
}

// canonicalDocumentDigest returns the raw SHA-256 digest bytes of doc's
// JCS-canonicalized serialization, the JWS payload a controlled
// document's proof is expected to sign.
func canonicalDocumentDigest(doc *Document) ([]byte, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	c, err := canon.Canonicalize(raw)
	if err != nil {
		return nil, err
	}
	return canon.SHA256(c), nil
}
