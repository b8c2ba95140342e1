// Copyright 2025 Certen Protocol

package ion

import (
	"log"

	"github.com/gobengo/trustchain/internal/commitment"
)

// TimestampCommitment shares its candidate bytes, hasher and decoder
// with another commitment (typically a BlockCommitment, though it is
// written generically enough to wrap any commitment kind) while fixing
// its own expected data to a Unix timestamp. Its candidate bytes are
// copied by value, not shared by pointer, so a caller mutating the
// original commitment's buffer afterward cannot retroactively change
// what this commitment hashes.
type TimestampCommitment struct {
	candidate []byte
	hasher    commitment.Hasher
	decoder   commitment.Decoder
	timestamp int64
}

// NewTimestampCommitment builds a TimestampCommitment sharing shared's
// hasher/decoder and a byte-copy of its candidate data, asserting
// timestamp as the value that must be found by containment in the
// decoded candidate.
func NewTimestampCommitment(shared commitment.TrivialCommitment, timestamp int64) *TimestampCommitment {
	candidate := append([]byte(nil), shared.CandidateData()...)
	return &TimestampCommitment{
		candidate: candidate,
		hasher:    shared.Hasher(),
		decoder:   shared.Decoder(),
		timestamp: timestamp,
	}
}

func (t *TimestampCommitment) CandidateData() []byte          { return t.candidate }
func (t *TimestampCommitment) Hasher() commitment.Hasher       { return t.hasher }
func (t *TimestampCommitment) Decoder() commitment.Decoder     { return t.decoder }
func (t *TimestampCommitment) Hash() (string, error)           { return t.hasher(t.candidate) }
func (t *TimestampCommitment) Content() (interface{}, error)   { return t.decoder(t.candidate) }
func (t *TimestampCommitment) ExpectedData() interface{}       { return t.timestamp }

// ToCommitment ignores a mismatched promotion attempt and logs a
// warning rather than failing, since this commitment's expected data is
// fixed at construction.
func (t *TimestampCommitment) ToCommitment(expected interface{}) commitment.Commitment {
	if ts, ok := expected.(int64); !ok || ts != t.timestamp {
		log.Printf("[ion] attempted modification of TimestampCommitment's fixed expected data not permitted; ignored")
	}
	return t
}

func (t *TimestampCommitment) VerifyContent() error {
	content, err := t.Content()
	if err != nil {
		return err
	}
	if !commitment.Contains(t.timestamp, content) {
		return &commitment.Error{Kind: commitment.FailedContentVerification, Context: "TimestampCommitment"}
	}
	return nil
}

func (t *TimestampCommitment) Verify(target string) error {
	if err := t.VerifyContent(); err != nil {
		return err
	}
	h, err := t.Hash()
	if err != nil {
		return err
	}
	if h != target {
		return &commitment.Error{Kind: commitment.FailedHashVerification, Context: "TimestampCommitment"}
	}
	return nil
}
