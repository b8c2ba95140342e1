// Copyright 2025 Certen Protocol
//
// DID Chain Data Model
// DID documents, metadata, and the chain of controller relationships
// that a verification run reconstructs and checks.

package trustchain

import "encoding/json"

// OneOrMany decodes either a single JSON value or a JSON array of values
// into a uniform slice, matching the `controller` property of a DID
// document which the DID Core data model permits to be either shape.
type OneOrMany[T any] struct {
	Values []T
}

// UnmarshalJSON accepts either a bare T or a JSON array of T.
func (o *OneOrMany[T]) UnmarshalJSON(data []byte) error {
	var many []T
	if err := json.Unmarshal(data, &many); err == nil {
		o.Values = many
		return nil
	}
	var one T
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	o.Values = []T{one}
	return nil
}

// MarshalJSON renders a single value bare and multiple values as an
// array. A one-element array therefore re-marshals as a bare value.
func (o OneOrMany[T]) MarshalJSON() ([]byte, error) {
	if len(o.Values) == 1 {
		return json.Marshal(o.Values[0])
	}
	return json.Marshal(o.Values)
}

// VerificationMethodMap is the map-form verification method entry used
// when extracting candidate keys from a resolved document.
type VerificationMethodMap struct {
	ID           string                 `json:"id"`
	Type         string                 `json:"type"`
	Controller   string                 `json:"controller,omitempty"`
	PublicKeyJwk map[string]interface{} `json:"publicKeyJwk,omitempty"`
}

// ServiceEndpointMap is a DID document service entry.
type ServiceEndpointMap struct {
	ID              string      `json:"id"`
	Type            string      `json:"type"`
	ServiceEndpoint interface{} `json:"serviceEndpoint"`
}

// Document is a (trimmed) DID document: the fields this module's
// verification logic reads. Fields not listed here are dropped on decode.
type Document struct {
	ID                 string                  `json:"id"`
	Controller         OneOrMany[string]       `json:"controller,omitempty"`
	VerificationMethod []VerificationMethodMap `json:"verificationMethod,omitempty"`
	Service            []ServiceEndpointMap    `json:"service,omitempty"`
}

// Proof is a DID document metadata proof entry: the controller DID and
// the detached compact JWS over the controlled document.
type Proof struct {
	ID         string `json:"id"`
	ProofValue string `json:"proofValue"`
}

// DocumentMetadata is a (trimmed) DID resolution document metadata: the
// fields this module's verification logic reads.
type DocumentMetadata struct {
	Proof            *Proof `json:"proof,omitempty"`
	UpdateCommitment string `json:"updateCommitment,omitempty"`
	CanonicalID      string `json:"canonicalId,omitempty"`
}

// ResolutionMetadata is the resolution-process metadata a Resolver
// returns alongside a document/document-metadata pair.
type ResolutionMetadata struct {
	ContentType string
	Error       string
}

// ResolvedDID bundles one resolution result, the unit the resolver
// cache (§4.8) stores.
type ResolvedDID struct {
	Resolution *ResolutionMetadata
	Document   *Document
	Metadata   *DocumentMetadata
}

// ChainLink is one hop of a DIDChain: a resolved DID, its document and
// metadata, and the DID that controls it (equal to its own DID for a
// self-controlled root).
type ChainLink struct {
	DID        string
	Document   *Document
	Metadata   *DocumentMetadata
	Controller string
}

// DIDChain is the ordered sequence of ChainLinks from a target DID
// downstream to its self-controlled root. Links[0] is the target DID;
// Links[len-1] is the root.
type DIDChain struct {
	Links []ChainLink
}

// Root returns the chain's terminal, self-controlled link.
func (c *DIDChain) Root() ChainLink {
	return c.Links[len(c.Links)-1]
}

// Target returns the chain's originating link.
func (c *DIDChain) Target() ChainLink {
	return c.Links[0]
}
