// Package tx defines the account/nonce transaction type and its validation.
package tx

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"

	"github.com/popc-project/popc-node/pkg/crypto"
	"github.com/popc-project/popc-node/pkg/types"
)

// Transaction represents a single unit of user intent against an account.
type Transaction struct {
	Hash     types.Hash    `json:"hash"`
	From     types.Address `json:"from"`
	To       types.Address `json:"to"`
	Value    types.U128    `json:"value"`
	GasPrice types.U128    `json:"gas_price"`
	GasLimit uint64        `json:"gas_limit"`
	Nonce    uint64        `json:"nonce"`
	Data     []byte        `json:"-"`
}

// txJSON mirrors Transaction with a hex-encoded Data field.
type txJSON struct {
	Hash     types.Hash    `json:"hash"`
	From     types.Address `json:"from"`
	To       types.Address `json:"to"`
	Value    types.U128    `json:"value"`
	GasPrice types.U128    `json:"gas_price"`
	GasLimit uint64        `json:"gas_limit"`
	Nonce    uint64        `json:"nonce"`
	Data     string        `json:"data"`
}

// MarshalJSON encodes Data as a "0x"-prefixed hex string.
func (tx Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(txJSON{
		Hash: tx.Hash, From: tx.From, To: tx.To,
		Value: tx.Value, GasPrice: tx.GasPrice,
		GasLimit: tx.GasLimit, Nonce: tx.Nonce,
		Data: "0x" + hex.EncodeToString(tx.Data),
	})
}

// UnmarshalJSON decodes a "0x"-prefixed hex Data field.
func (tx *Transaction) UnmarshalJSON(data []byte) error {
	var j txJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	raw, err := hex.DecodeString(trimHexPrefix(j.Data))
	if err != nil {
		return err
	}
	*tx = Transaction{
		Hash: j.Hash, From: j.From, To: j.To,
		Value: j.Value, GasPrice: j.GasPrice,
		GasLimit: j.GasLimit, Nonce: j.Nonce, Data: raw,
	}
	return nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

// SigningBytes returns the canonical preimage hashed to produce Hash:
// from(20) || to(20) || value(16, big-endian) || nonce(8, little-endian).
func (tx *Transaction) SigningBytes() []byte {
	buf := make([]byte, 0, types.AddressSize*2+16+8)
	buf = append(buf, tx.From[:]...)
	buf = append(buf, tx.To[:]...)
	var valBytes [16]byte
	tx.Value.Big().FillBytes(valBytes[:])
	buf = append(buf, valBytes[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, tx.Nonce)
	return buf
}

// ComputeHash returns Blake2s-256(from ‖ to ‖ value ‖ nonce).
func (tx *Transaction) ComputeHash() types.Hash {
	return crypto.Blake2s256(tx.SigningBytes())
}
