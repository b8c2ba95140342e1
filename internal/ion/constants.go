// Copyright 2025 Certen Protocol
//
// ION Domain Commitments
// Wire-visible string constants for the ION Sidetree method.

package ion

const (
	// Method is the ION DID method prefix.
	Method = "ion"

	// DIDDelimiter separates DID method segments.
	DIDDelimiter = ":"

	// OpReturnPrefix is the literal prefix an ION anchoring transaction's
	// OP_RETURN payload carries before the operation-count/CID suffix:
	// "ion:<operation-count>.<cid>".
	OpReturnPrefix = Method + DIDDelimiter

	// OperationCountDelimiter separates the operation count from the
	// trailing core index file CID within an OP_RETURN payload.
	OperationCountDelimiter = "."

	// CoreIndexToProvisionalIndexKey is the key a core index file uses to
	// reference its provisional index file.
	CoreIndexToProvisionalIndexKey = "provisionalIndexFileUri"

	// ProvisionalIndexToChunkKey is the key a provisional index file uses
	// to reference its chunk file.
	ProvisionalIndexToChunkKey = "chunkFileUri"

	// CIDKey is the internal key decodeTx wraps the extracted
	// core index file CID in.
	CIDKey = "cid"

	// ProofPropertyKey / ProofValueKey / ProofControllerKey locate a DID
	// document metadata's proof object.
	ProofPropertyKey    = "proof"
	ProofValueKey       = "proofValue"
	ProofControllerKey  = "id"
	ControllerProofType = "TrustchainProofService"
	ControllerProofID   = "trustchain-controller-proof"
)
