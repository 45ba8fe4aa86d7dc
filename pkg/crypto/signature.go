package crypto

import (
	"crypto/rand"
	"fmt"

	"github.com/agl/ed25519"
)

// SignatureSize is the length of an Ed25519 signature.
const SignatureSize = 64

// PublicKeySize is the length of an Ed25519 public key.
const PublicKeySize = 32

// PrivateKey wraps an Ed25519 signing key.
type PrivateKey struct {
	pub  *[ed25519.PublicKeySize]byte
	priv *[ed25519.PrivateKeySize]byte
}

// GenerateKey creates a new random Ed25519 key pair.
func GenerateKey() (*PrivateKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &PrivateKey{pub: pub, priv: priv}, nil
}

// PrivateKeyFromSeed reconstructs a key pair from a 64-byte expanded secret
// key (as produced by Serialize).
func PrivateKeyFromSeed(seed []byte) (*PrivateKey, error) {
	if len(seed) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("private key must be %d bytes, got %d", ed25519.PrivateKeySize, len(seed))
	}
	var priv [ed25519.PrivateKeySize]byte
	copy(priv[:], seed)
	var pub [ed25519.PublicKeySize]byte
	copy(pub[:], seed[32:])
	return &PrivateKey{pub: &pub, priv: &priv}, nil
}

// Sign produces a 64-byte Ed25519 signature over message.
func (pk *PrivateKey) Sign(message []byte) []byte {
	sig := ed25519.Sign(pk.priv, message)
	return sig[:]
}

// PublicKey returns the 32-byte Ed25519 public key.
func (pk *PrivateKey) PublicKey() []byte {
	out := make([]byte, ed25519.PublicKeySize)
	copy(out, pk.pub[:])
	return out
}

// Serialize returns the 64-byte expanded private key.
func (pk *PrivateKey) Serialize() []byte {
	out := make([]byte, ed25519.PrivateKeySize)
	copy(out, pk.priv[:])
	return out
}

// Sign produces a 64-byte Ed25519 signature over message using the raw
// 64-byte expanded private key bytes.
func Sign(signingKey, message []byte) ([]byte, error) {
	if len(signingKey) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("signing key must be %d bytes, got %d", ed25519.PrivateKeySize, len(signingKey))
	}
	var priv [ed25519.PrivateKeySize]byte
	copy(priv[:], signingKey)
	sig := ed25519.Sign(&priv, message)
	return sig[:], nil
}

// Verify checks a 64-byte Ed25519 signature against message and a 32-byte
// verifying key. Non-64-byte signatures or non-32-byte keys are rejected.
func Verify(verifyingKey, message, sig []byte) bool {
	if len(sig) != SignatureSize || len(verifyingKey) != PublicKeySize {
		return false
	}
	var pub [ed25519.PublicKeySize]byte
	copy(pub[:], verifyingKey)
	var s [ed25519.SignatureSize]byte
	copy(s[:], sig)
	return ed25519.Verify(&pub, message, &s)
}
