// Copyright 2025 Certen Protocol
//
// Chained Commitment
// Composes a sequence of commitments into one, propagating each link's
// hash forward as the next link's expected data so that verifying the
// chain reduces to verifying its first commitment's content and its
// last commitment's hash against an externally supplied target.

package commitment

// ChainedCommitment composes one or more commitments into a single
// Commitment whose own CandidateData/Hasher/Decoder/ExpectedData are
// those of its first element, and whose Hash is that of its last
// element. It cannot be constructed empty (see NewChainedCommitment),
// matching the non-empty-by-construction invariant of the type this is
// grounded on.
type ChainedCommitment struct {
	commitments []Commitment
}

// NewChainedCommitment starts a chain with a required first commitment.
func NewChainedCommitment(first Commitment) *ChainedCommitment {
	return &ChainedCommitment{commitments: []Commitment{first}}
}

// Commitments returns the chain's constituent commitments in order.
func (c *ChainedCommitment) Commitments() []Commitment {
	return c.commitments
}

// Append promotes trivial by attaching the chain's current hash (as a
// JSON string) as its expected data, then appends the resulting
// commitment to the chain. This is what propagates each link's hash
// forward to become the next link's expected data, establishing the
// pairwise chaining law checked by Verify.
func (c *ChainedCommitment) Append(trivial TrivialCommitment) error {
	h, err := c.Hash()
	if err != nil {
		return err
	}
	promoted := trivial.ToCommitment(AsJSONString(h))
	c.commitments = append(c.commitments, promoted)
	return nil
}

func (c *ChainedCommitment) first() Commitment {
	return c.commitments[0]
}

func (c *ChainedCommitment) last() Commitment {
	return c.commitments[len(c.commitments)-1]
}

func (c *ChainedCommitment) CandidateData() []byte { return c.first().CandidateData() }
func (c *ChainedCommitment) Hasher() Hasher        { return c.first().Hasher() }
func (c *ChainedCommitment) Decoder() Decoder      { return c.first().Decoder() }

// Hash is the hash of the chain's last commitment: the value the whole
// chain ultimately commits callers to verifying against an external
// target (e.g. a Bitcoin block hash).
func (c *ChainedCommitment) Hash() (string, error) { return c.last().Hash() }

// Content is the decoded candidate of the chain's first commitment.
func (c *ChainedCommitment) Content() (interface{}, error) { return c.first().Content() }

// ToCommitment replaces the chain's first commitment's expected data,
// leaving the rest of the chain untouched.
func (c *ChainedCommitment) ToCommitment(expected interface{}) Commitment {
	commitments := make([]Commitment, len(c.commitments))
	copy(commitments, c.commitments)
	commitments[0] = c.first().ToCommitment(expected)
	return &ChainedCommitment{commitments: commitments}
}

func (c *ChainedCommitment) ExpectedData() interface{} { return c.first().ExpectedData() }

func (c *ChainedCommitment) VerifyContent() error { return c.first().VerifyContent() }

// Verify checks EmptyIteratedCommitment, then walks adjacent pairs
// (Cᵢ, Cᵢ₊₁) requiring Cᵢ₊₁.ExpectedData() to be a string and checking
// Cᵢ.Verify(that string), before finally verifying the last commitment
// against the externally supplied target.
func (c *ChainedCommitment) Verify(target string) error {
	if len(c.commitments) == 0 {
		return newError(EmptyIteratedCommitment, "")
	}
	for i := 0; i < len(c.commitments)-1; i++ {
		next := c.commitments[i+1]
		linkTarget, ok := next.ExpectedData().(string)
		if !ok {
			return newError(DataDecoding, "chain link expected data must be a string")
		}
		if err := c.commitments[i].Verify(linkTarget); err != nil {
			return err
		}
	}
	return c.last().Verify(target)
}
