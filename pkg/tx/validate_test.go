package tx

import (
	"errors"
	"testing"

	"github.com/popc-project/popc-node/pkg/types"
)

func testParams() Params {
	return Params{MinTransactionGas: 21000, MinGasPrice: 1_000_000_000}
}

func validTestTx() *Transaction {
	tx := &Transaction{
		From:     types.Address{0x01},
		To:       types.Address{0x02},
		Value:    types.NewU128FromUint64(1000),
		GasPrice: types.NewU128FromUint64(1_000_000_000),
		GasLimit: 21000,
		Nonce:    0,
	}
	tx.Hash = tx.ComputeHash()
	return tx
}

func TestValidate_Valid(t *testing.T) {
	tx := validTestTx()
	if err := tx.Validate(testParams()); err != nil {
		t.Errorf("valid tx should pass: %v", err)
	}
}

func TestValidate_ZeroFromAddress(t *testing.T) {
	tx := validTestTx()
	tx.From = types.Address{}
	if err := tx.Validate(testParams()); !errors.Is(err, ErrZeroAddress) {
		t.Errorf("expected ErrZeroAddress, got: %v", err)
	}
}

func TestValidate_ZeroToAddress(t *testing.T) {
	tx := validTestTx()
	tx.To = types.Address{}
	if err := tx.Validate(testParams()); !errors.Is(err, ErrZeroAddress) {
		t.Errorf("expected ErrZeroAddress, got: %v", err)
	}
}

func TestValidate_GasLimitTooLow(t *testing.T) {
	tx := validTestTx()
	tx.GasLimit = 20999
	if err := tx.Validate(testParams()); !errors.Is(err, ErrGasLimitTooLow) {
		t.Errorf("expected ErrGasLimitTooLow, got: %v", err)
	}
}

func TestValidate_GasLimitAtMinimum(t *testing.T) {
	tx := validTestTx()
	tx.GasLimit = 21000
	if err := tx.Validate(testParams()); errors.Is(err, ErrGasLimitTooLow) {
		t.Errorf("exactly the minimum gas limit should not trigger ErrGasLimitTooLow")
	}
}

func TestValidate_GasPriceTooLow(t *testing.T) {
	tx := validTestTx()
	tx.GasPrice = types.NewU128FromUint64(999_999_999)
	if err := tx.Validate(testParams()); !errors.Is(err, ErrGasPriceTooLow) {
		t.Errorf("expected ErrGasPriceTooLow, got: %v", err)
	}
}

func TestValidate_ValueIsMax(t *testing.T) {
	tx := validTestTx()
	tx.Value = types.U128Max()
	if err := tx.Validate(testParams()); !errors.Is(err, ErrValueOverflow) {
		t.Errorf("expected ErrValueOverflow, got: %v", err)
	}
}

func TestValidate_ZeroHash(t *testing.T) {
	tx := validTestTx()
	tx.Hash = types.Hash{}
	if err := tx.Validate(testParams()); !errors.Is(err, ErrZeroHash) {
		t.Errorf("expected ErrZeroHash, got: %v", err)
	}
}
