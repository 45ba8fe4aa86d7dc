// Package consensus implements PoPC (Proof of Probabilistic Checking):
// validator registry, deterministic VRF-seeded challenge sampling, and
// fraud-detection probability arithmetic.
package consensus

// ProofVerifier is the extension point for verifying a validator's proof
// against a Challenge's sampled indices. The baseline implementation
// (AcceptAllVerifier) accepts any proof; production deployments are
// expected to supply a verifier backed by Merkle-path proofs over the
// sampled indices. This spec does not pin a Merkle layout, so callers
// must treat the verifier as a pluggable capability.
type ProofVerifier interface {
	VerifyProof(challenge Challenge, proof []byte) bool
}

// AcceptAllVerifier is the baseline ProofVerifier: it accepts any proof.
type AcceptAllVerifier struct{}

// VerifyProof always returns true.
func (AcceptAllVerifier) VerifyProof(Challenge, []byte) bool { return true }
