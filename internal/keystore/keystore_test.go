package keystore

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/popc-project/popc-node/pkg/crypto"
)

// fastParams returns low-cost Argon2 params for fast tests.
func fastParams() Params {
	return Params{Memory: 64, Iterations: 1, Parallelism: 1}
}

func TestSealOpen_Roundtrip(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	sealed, err := Seal(key, []byte("strong-password-123"), fastParams())
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	recovered, err := Open(sealed, []byte("strong-password-123"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if !bytes.Equal(recovered.PublicKey(), key.PublicKey()) {
		t.Error("recovered public key does not match original")
	}
	if !bytes.Equal(recovered.Serialize(), key.Serialize()) {
		t.Error("recovered private key does not match original")
	}
}

func TestOpen_WrongPassword(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	sealed, err := Seal(key, []byte("correct-password"), fastParams())
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	if _, err := Open(sealed, []byte("wrong-password")); err == nil {
		t.Error("expected error decrypting with wrong password")
	}
}

func TestOpen_TooShort(t *testing.T) {
	if _, err := Open([]byte("short"), []byte("password")); err == nil {
		t.Error("expected error for too-short keystore data")
	}
}

func TestSaveLoadFile_Roundtrip(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	path := filepath.Join(t.TempDir(), "validator.key")

	if err := SaveToFile(path, key, []byte("pw")); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}

	recovered, err := LoadFromFile(path, []byte("pw"))
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if !bytes.Equal(recovered.PublicKey(), key.PublicKey()) {
		t.Error("recovered public key does not match original")
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.key"), []byte("pw"))
	if err == nil {
		t.Error("expected error loading missing file")
	}
}
