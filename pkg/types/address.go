package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// AddressSize is the length of an address in bytes.
const AddressSize = 20

// Address represents a 160-bit address, encoded on the wire as "0x"
// followed by exactly 40 lower-case hex characters.
type Address [AddressSize]byte

// IsZero returns true if the address is the reserved zero-address.
func (a Address) IsZero() bool {
	return a == Address{}
}

// String returns the "0x"-prefixed, lower-case hex-encoded address.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// Bytes returns a copy of the address as a byte slice.
func (a Address) Bytes() []byte {
	b := make([]byte, AddressSize)
	copy(b, a[:])
	return b
}

// MarshalJSON encodes the address as a "0x"-prefixed hex string.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON decodes a "0x"-prefixed or bare hex string into an address.
func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*a = Address{}
		return nil
	}
	parsed, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAddress parses a "0x"-prefixed or bare 40-character lower-case hex
// address string. Returns an error unless it decodes to exactly
// AddressSize bytes of lower-case hex.
func ParseAddress(s string) (Address, error) {
	hexStr := strings.TrimPrefix(s, "0x")
	if len(hexStr) != AddressSize*2 {
		return Address{}, fmt.Errorf("address must be %d hex characters, got %d", AddressSize*2, len(hexStr))
	}
	if strings.ToLower(hexStr) != hexStr {
		return Address{}, fmt.Errorf("address must be lower-case hex, got %q", s)
	}
	decoded, err := hex.DecodeString(hexStr)
	if err != nil {
		return Address{}, fmt.Errorf("invalid address: %w", err)
	}
	var a Address
	copy(a[:], decoded)
	return a, nil
}
