// Copyright 2025 Certen Protocol

package ion

import (
	"github.com/gobengo/trustchain/internal/commitment"
)

// DIDCommitment is a commitment over a DID's chunk file: the candidate
// that ultimately contains the document's public keys and service
// endpoints as Sidetree update-operation patches. It adds DID/candidate
// key and endpoint extraction on top of the plain commitment capability
// set, so a caller can build the expected structural fragment (the root
// document's own keys/endpoints) before promoting it into a full
// Commitment.
type DIDCommitment struct {
	commitment.TrivialCommitment
	did string
}

// NewDIDTrivial constructs an un-promoted commitment over a DID's raw
// gzip-compressed chunk file bytes.
func NewDIDTrivial(candidate []byte, did string) *DIDCommitment {
	return &DIDCommitment{
		TrivialCommitment: commitment.NewTrivial(candidate, ipfsHash, decodeGzipJSON),
		did:               did,
	}
}

// DID returns the DID this commitment's chunk file belongs to.
func (d *DIDCommitment) DID() string { return d.did }

// CandidateKeys re-derives the public keys a chunk file's Sidetree
// update-operation patches declare, by walking
// deltas[].patches[] entries with action "add-public-keys" and
// collecting their publicKeys arrays. The set comes from the chunk file
// alone; nothing here compares it against a resolved document's
// verification methods.
func (d *DIDCommitment) CandidateKeys() ([]interface{}, error) {
	return d.extractPatchField("add-public-keys", "publicKeys")
}

// CandidateEndpoints re-derives the service endpoints a chunk file's
// update-operation patches declare, mirroring CandidateKeys.
func (d *DIDCommitment) CandidateEndpoints() ([]interface{}, error) {
	return d.extractPatchField("add-services", "services")
}

func (d *DIDCommitment) extractPatchField(action, field string) ([]interface{}, error) {
	content, err := d.Content()
	if err != nil {
		return nil, err
	}
	root, ok := content.(map[string]interface{})
	if !ok {
		return nil, nil
	}
	deltas, _ := root["deltas"].([]interface{})
	var out []interface{}
	for _, rawDelta := range deltas {
		delta, ok := rawDelta.(map[string]interface{})
		if !ok {
			continue
		}
		patches, _ := delta["patches"].([]interface{})
		for _, rawPatch := range patches {
			patch, ok := rawPatch.(map[string]interface{})
			if !ok {
				continue
			}
			if patch["action"] != action {
				continue
			}
			if items, ok := patch[field].([]interface{}); ok {
				out = append(out, items...)
			}
		}
	}
	return out, nil
}

// ToCommitment promotes this DIDCommitment by attaching expected data,
// discarding the DID-specific extraction helpers: once promoted, only
// the generic commitment.Commitment capability set is needed (by
// ChainedCommitment and the per-link proof verifier).
func (d *DIDCommitment) ToCommitment(expected interface{}) commitment.Commitment {
	return d.TrivialCommitment.ToCommitment(expected)
}

// NewDIDCommitment constructs an already-promoted DID commitment with a
// caller-known expected structural fragment.
func NewDIDCommitment(candidate []byte, did string, expected interface{}) commitment.Commitment {
	return NewDIDTrivial(candidate, did).ToCommitment(expected)
}
