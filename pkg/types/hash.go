// Package types defines the core primitive types shared across the node:
// fixed-size hashes and addresses, and the 128-bit unsigned integer used
// for transaction value and gas price.
package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// HashSize is the length of a hash in bytes.
const HashSize = 32

// Hash represents a 256-bit hash value, encoded on the wire as
// "0x" followed by 64 lower-case hex characters.
type Hash [HashSize]byte

// IsZero returns true if the hash is all zeros.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// String returns the "0x"-prefixed hex-encoded hash.
func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// Bytes returns a copy of the hash as a byte slice.
func (h Hash) Bytes() []byte {
	b := make([]byte, HashSize)
	copy(b, h[:])
	return b
}

// MarshalJSON encodes the hash as a "0x"-prefixed hex string.
func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

// UnmarshalJSON decodes a "0x"-prefixed or bare hex string into a hash.
func (h *Hash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*h = Hash{}
		return nil
	}
	parsed, err := HexToHash(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// HexToHash parses a "0x"-prefixed or bare lower-case hex string into a
// Hash. Returns an error unless the string decodes to exactly HashSize
// bytes of lower-case hex.
func HexToHash(s string) (Hash, error) {
	hexStr := strings.TrimPrefix(s, "0x")
	if strings.ToLower(hexStr) != hexStr {
		return Hash{}, fmt.Errorf("hash must be lower-case hex, got %q", s)
	}
	b, err := hex.DecodeString(hexStr)
	if err != nil {
		return Hash{}, fmt.Errorf("invalid hash hex: %w", err)
	}
	if len(b) != HashSize {
		return Hash{}, fmt.Errorf("hash must be %d bytes, got %d", HashSize, len(b))
	}
	var h Hash
	copy(h[:], b)
	return h, nil
}
