// Package crypto provides the cryptographic primitives used across the node:
// hashing, Ed25519 signing, the VRF built on top of it, and the Argon2id KDF.
package crypto

import (
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/sha3"

	"github.com/popc-project/popc-node/pkg/types"
)

// SHA3256 computes the SHA3-256 digest of data.
func SHA3256(data []byte) types.Hash {
	return types.Hash(sha3.Sum256(data))
}

// Keccak256 computes the (pre-standardization) Keccak-256 digest of data,
// as used by Ethereum-style address derivation.
func Keccak256(data []byte) types.Hash {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	var out types.Hash
	h.Sum(out[:0])
	return out
}

// Blake2s256 computes the BLAKE2s-256 digest of data.
func Blake2s256(data []byte) types.Hash {
	return blake2s.Sum256(data)
}

// Blake2b512 computes the BLAKE2b-512 digest of data.
func Blake2b512(data []byte) [64]byte {
	return blake2b.Sum512(data)
}

// AddressFromPubKey derives a 20-byte address from a raw public key as
// keccak256(pubkey)[12:], per the node's address scheme.
func AddressFromPubKey(pubKey []byte) types.Address {
	h := Keccak256(pubKey)
	var addr types.Address
	copy(addr[:], h[types.HashSize-types.AddressSize:])
	return addr
}
