package types

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// U128 is an unsigned 128-bit integer, used for transaction value and gas
// price. It is backed by github.com/holiman/uint256's 256-bit word with an
// enforced 128-bit ceiling, since the Go ecosystem's fixed-width unsigned
// integer libraries top out at 256 bits and the pack does not carry a
// narrower one.
type U128 struct {
	inner uint256.Int
}

// u128Max is 2^128 - 1.
var u128Max = func() uint256.Int {
	var max uint256.Int
	max.SetAllOne()
	var shift uint256.Int
	shift.Lsh(&max, 128)
	max.Sub(&max, &shift)
	return max
}()

// U128Max returns the reserved overflow sentinel value 2^128 - 1.
func U128Max() U128 {
	return U128{inner: u128Max}
}

// NewU128FromUint64 constructs a U128 from a uint64.
func NewU128FromUint64(v uint64) U128 {
	var u U128
	u.inner.SetUint64(v)
	return u
}

// U128FromHex parses a "0x"-prefixed hex string into a U128.
func U128FromHex(s string) (U128, error) {
	var u U128
	if err := u.inner.SetFromHex(s); err != nil {
		return U128{}, fmt.Errorf("invalid u128 hex %q: %w", s, err)
	}
	if u.inner.Gt(&u128Max) {
		return U128{}, fmt.Errorf("u128 value %q exceeds 128 bits", s)
	}
	return u, nil
}

// Equals reports whether two U128 values are equal.
func (u U128) Equals(other U128) bool {
	return u.inner.Eq(&other.inner)
}

// IsMax reports whether u equals the reserved overflow sentinel 2^128 - 1.
func (u U128) IsMax() bool {
	return u.inner.Eq(&u128Max)
}

// Cmp compares u to other, returning -1, 0, or 1.
func (u U128) Cmp(other U128) int {
	return u.inner.Cmp(&other.inner)
}

// LessThan reports whether u is strictly less than other.
func (u U128) LessThan(other U128) bool {
	return u.inner.Lt(&other.inner)
}

// String returns the "0x"-prefixed hex encoding of u.
func (u U128) String() string {
	return u.inner.Hex()
}

// Big returns u as a *big.Int.
func (u U128) Big() *big.Int {
	return u.inner.ToBig()
}

// MarshalJSON encodes u as a "0x"-prefixed hex string.
func (u U128) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.String())
}

// UnmarshalJSON decodes a "0x"-prefixed hex string into u.
func (u *U128) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := U128FromHex(s)
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
