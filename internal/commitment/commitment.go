// Copyright 2025 Certen Protocol
//
// Commitment Abstraction
// A cryptographic commitment composes a hasher, a decoder and a candidate
// byte sequence; promoting one with expected data lets a caller verify both
// that hashing the candidate reproduces a named target and that the
// expected content is structurally present in the decoded candidate.

package commitment

import (
	"encoding/json"
	"fmt"
	"log"
	"reflect"
)

// ErrorKind is a comparable taxonomy of commitment verification failures.
type ErrorKind int

const (
	// DataDecoding indicates the candidate bytes could not be decoded.
	DataDecoding ErrorKind = iota
	// FailedToComputeHash indicates the hasher itself returned an error.
	FailedToComputeHash
	// FailedHashVerification indicates hash(candidate) != target.
	FailedHashVerification
	// FailedContentVerification indicates expected data was not found by
	// containment in the decoded candidate.
	FailedContentVerification
	// EmptyIteratedCommitment indicates a chained commitment had no
	// constituent commitments.
	EmptyIteratedCommitment
)

func (k ErrorKind) String() string {
	switch k {
	case DataDecoding:
		return "DataDecodingError"
	case FailedToComputeHash:
		return "FailedToComputeHash"
	case FailedHashVerification:
		return "FailedHashVerification"
	case FailedContentVerification:
		return "FailedContentVerification"
	case EmptyIteratedCommitment:
		return "EmptyIteratedCommitment"
	default:
		return "UnknownCommitmentError"
	}
}

// Error is a comparable commitment error: errors.Is treats two Errors as
// equal iff their Kind matches, ignoring Context, so tests can assert on
// error kind alone.
type Error struct {
	Kind    ErrorKind
	Context string
}

func (e *Error) Error() string {
	if e.Context == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Context)
}

// Is supports errors.Is comparisons by Kind, ignoring Context.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return other.Kind == e.Kind
}

func newError(kind ErrorKind, context string) *Error {
	return &Error{Kind: kind, Context: context}
}

// Hasher computes a named target string from candidate bytes. It must be
// deterministic and collision-resistant in practice.
type Hasher func([]byte) (string, error)

// Decoder decodes candidate bytes into a structured value (mapping,
// array or scalar), or fails with a DataDecoding-flavoured error.
type Decoder func([]byte) (interface{}, error)

// TrivialCommitment is a cryptographic commitment with no expected data
// content: a hasher/decoder pair bound to a fixed candidate byte sequence.
type TrivialCommitment interface {
	// CandidateData returns the opaque bytes the commitment is over.
	CandidateData() []byte
	// Hasher returns the hash function bound to this commitment.
	Hasher() Hasher
	// Decoder returns the decode function bound to this commitment.
	Decoder() Decoder
	// Hash computes Hasher()(CandidateData()).
	Hash() (string, error)
	// Content computes Decoder()(CandidateData()).
	Content() (interface{}, error)
	// ToCommitment promotes this TrivialCommitment by attaching expected
	// data. Implementations with fixed expected data ignore mismatched
	// promotion attempts and log a warning instead of failing.
	ToCommitment(expected interface{}) Commitment
}

// Commitment is a cryptographic commitment with expected data content.
type Commitment interface {
	TrivialCommitment
	// ExpectedData returns the data that must be contained within the
	// decoded candidate for content verification to succeed.
	ExpectedData() interface{}
	// VerifyContent checks that ExpectedData() is contained within
	// Decoder()(CandidateData()).
	VerifyContent() error
	// Verify checks content, then checks Hash() == target.
	Verify(target string) error
}

// Generic is the default TrivialCommitment/Commitment implementation
// used by every domain commitment in this module (ipfs, tx, block, did):
// a single capability set rather than a trait-inheritance chain, per the
// composition design used throughout this package.
type Generic struct {
	candidate []byte
	hasher    Hasher
	decoder   Decoder
	expected  interface{}
	promoted  bool
}

// NewTrivial constructs a commitment with no expected data yet.
func NewTrivial(candidate []byte, hasher Hasher, decoder Decoder) *Generic {
	return &Generic{candidate: candidate, hasher: hasher, decoder: decoder}
}

// NewCommitment constructs an already-promoted commitment directly, for
// callers that already know the expected structural fragment (e.g. the
// S1-S5 style fixtures that construct a commitment with target and
// expected data known up front, rather than via a chain append).
func NewCommitment(candidate []byte, hasher Hasher, decoder Decoder, expected interface{}) *Generic {
	return &Generic{candidate: candidate, hasher: hasher, decoder: decoder, expected: expected, promoted: true}
}

func (g *Generic) CandidateData() []byte { return g.candidate }
func (g *Generic) Hasher() Hasher        { return g.hasher }
func (g *Generic) Decoder() Decoder      { return g.decoder }

func (g *Generic) Hash() (string, error) {
	h, err := g.hasher(g.candidate)
	if err != nil {
		return "", newError(FailedToComputeHash, err.Error())
	}
	return h, nil
}

func (g *Generic) Content() (interface{}, error) {
	v, err := g.decoder(g.candidate)
	if err != nil {
		return nil, newError(DataDecoding, err.Error())
	}
	return v, nil
}

// ToCommitment attaches expected data, always overwriting any previously
// promoted value. Domain commitments with a fixed expected value (see
// ion.TimestampCommitment) do not use Generic.ToCommitment directly;
// they implement their own ignore-and-log behaviour.
func (g *Generic) ToCommitment(expected interface{}) Commitment {
	return &Generic{
		candidate: g.candidate,
		hasher:    g.hasher,
		decoder:   g.decoder,
		expected:  expected,
		promoted:  true,
	}
}

func (g *Generic) ExpectedData() interface{} { return g.expected }

func (g *Generic) VerifyContent() error {
	content, err := g.Content()
	if err != nil {
		return err
	}
	if !Contains(g.expected, content) {
		return newError(FailedContentVerification, typeOf(g))
	}
	return nil
}

func (g *Generic) Verify(target string) error {
	if err := g.VerifyContent(); err != nil {
		return err
	}
	h, err := g.Hash()
	if err != nil {
		return err
	}
	if h != target {
		return newError(FailedHashVerification, typeOf(g))
	}
	return nil
}

func typeOf(v interface{}) string {
	return reflect.TypeOf(v).String()
}

// AsJSONString returns v unchanged as a JSON string value: the form used
// when a commitment's hash is promoted to be the expected data of the
// next commitment in a chain (see ChainedCommitment.Append).
func AsJSONString(v string) interface{} {
	return v
}

// Contains implements a structural containment relation: primitives
// match by equality; objects match key-wise (every key of expected
// present in decoded with recursive containment); arrays match by an
// order-preserving injection with recursive containment per element.
//
// It is extended with a deep-search fallback: when a strict, same-level
// match fails, Contains also looks for expected nested anywhere within
// decoded's object values or array elements. This lets a chained
// commitment's bare hash-string expected data (set by
// ChainedCommitment.Append, see chain.go) be found within a large
// decoded document whose real-world schema nests the referenced CID
// several levels deep (for example an ION provisional index file's
// chunk CID lives at `.chunks[].chunkFileUri`, not at the document's
// top level). Top-level, non-nested containment is unaffected: it is
// checked first and is always tried before falling back to the deep
// search.
func Contains(expected, decoded interface{}) bool {
	if containsAtThisLevel(expected, decoded) {
		return true
	}
	return containsNested(expected, decoded)
}

func containsAtThisLevel(expected, decoded interface{}) bool {
	switch e := expected.(type) {
	case map[string]interface{}:
		d, ok := decoded.(map[string]interface{})
		if !ok {
			return false
		}
		for k, ev := range e {
			dv, present := d[k]
			if !present || !containsAtThisLevel(ev, dv) {
				return false
			}
		}
		return true
	case []interface{}:
		d, ok := decoded.([]interface{})
		if !ok {
			return false
		}
		return arraySubsequence(e, d)
	default:
		return reflect.DeepEqual(normalizeScalar(expected), normalizeScalar(decoded))
	}
}

// arraySubsequence checks that e is an order-preserving, recursively
// contained subsequence of d.
func arraySubsequence(e, d []interface{}) bool {
	j := 0
	for _, ev := range e {
		found := false
		for ; j < len(d); j++ {
			if containsAtThisLevel(ev, d[j]) {
				found = true
				j++
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// containsNested searches decoded's object values / array elements,
// recursively, for a node where expected is contained at that level.
func containsNested(expected, decoded interface{}) bool {
	switch d := decoded.(type) {
	case map[string]interface{}:
		for _, v := range d {
			if containsAtThisLevel(expected, v) || containsNested(expected, v) {
				return true
			}
		}
		return false
	case []interface{}:
		for _, v := range d {
			if containsAtThisLevel(expected, v) || containsNested(expected, v) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// normalizeScalar coerces json.Number-equivalent int/float representations
// so that an expected Go int/uint64 compares equal to a decoded
// float64 (encoding/json's default numeric type) when they denote the
// same value. Strings, bools and nil compare as-is.
func normalizeScalar(v interface{}) interface{} {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err == nil {
			return f
		}
		return v
	default:
		return v
	}
}

// warnIgnoredPromotion logs a warning when a fixed-expected-data
// commitment (e.g. TimestampCommitment) receives a mismatched promotion
// attempt.
func warnIgnoredPromotion(kind string) {
	log.Printf("[commitment] attempted modification of fixed expected data for %s not permitted; ignored", kind)
}
