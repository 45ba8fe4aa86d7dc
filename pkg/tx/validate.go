package tx

import (
	"errors"
	"fmt"

	"github.com/popc-project/popc-node/pkg/types"
)

// Validation errors returned by Validate.
var (
	ErrZeroAddress    = errors.New("zero address not allowed")
	ErrGasLimitTooLow = errors.New("gas limit below minimum transaction gas")
	ErrGasPriceTooLow = errors.New("gas price below minimum")
	ErrValueOverflow  = errors.New("value equals the reserved overflow sentinel u128_max")
	ErrZeroHash       = errors.New("transaction hash is zero")
)

// Params carries the validation thresholds a Transaction is checked
// against. It mirrors config.ValidationConfig's transaction-level fields
// so this package stays free of a dependency on config.
type Params struct {
	MinTransactionGas uint64
	MinGasPrice       uint64
}

// Validate checks tx structure and the stateless rules that do not depend
// on account balance or nonce. It does not check nonce ordering or
// sufficient balance — those require the mempool/state layer.
func (tx *Transaction) Validate(p Params) error {
	if tx.From.IsZero() || tx.To.IsZero() {
		return fmt.Errorf("%w: from=%s to=%s", ErrZeroAddress, tx.From, tx.To)
	}
	if tx.GasLimit < p.MinTransactionGas {
		return fmt.Errorf("%w: %d < %d", ErrGasLimitTooLow, tx.GasLimit, p.MinTransactionGas)
	}
	minGasPrice := types.NewU128FromUint64(p.MinGasPrice)
	if tx.GasPrice.LessThan(minGasPrice) {
		return fmt.Errorf("%w: %s < %s", ErrGasPriceTooLow, tx.GasPrice, minGasPrice)
	}
	if tx.Value.IsMax() {
		return ErrValueOverflow
	}
	if tx.Hash.IsZero() {
		return ErrZeroHash
	}
	return nil
}
