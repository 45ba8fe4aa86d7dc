// Package keystore manages the node's single validator signing key,
// encrypted at rest with Argon2id + XChaCha20-Poly1305.
package keystore

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"os"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/popc-project/popc-node/pkg/crypto"
)

// saltSize is the length of the random Argon2id salt.
const saltSize = 32

// headerSize is the length of the unencrypted parameter header preceding
// the nonce and ciphertext: salt(32) | memory(4) | iterations(4) | parallelism(1).
const headerSize = saltSize + 4 + 4 + 1

// Params holds the Argon2id tuning parameters used to derive the
// encryption key from the keystore password.
type Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
}

// DefaultParams returns the recommended Argon2id parameters.
func DefaultParams() Params {
	return Params{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 4,
	}
}

func deriveKey(password, salt []byte, p Params) []byte {
	return argon2.IDKey(password, salt, p.Iterations, p.Memory, p.Parallelism, chacha20poly1305.KeySize)
}

// Seal encrypts the 64-byte expanded validator private key with password,
// producing the on-disk keystore file format:
// salt(32) | memory(4) | iterations(4) | parallelism(1) | nonce(24) | ciphertext.
func Seal(key *crypto.PrivateKey, password []byte, p Params) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	derived := deriveKey(password, salt, p)
	defer zero(derived)

	aead, err := chacha20poly1305.NewX(derived)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	ciphertext := aead.Seal(nil, nonce, key.Serialize(), nil)

	out := make([]byte, 0, headerSize+len(nonce)+len(ciphertext))
	out = append(out, salt...)
	out = binary.LittleEndian.AppendUint32(out, p.Memory)
	out = binary.LittleEndian.AppendUint32(out, p.Iterations)
	out = append(out, p.Parallelism)
	out = append(out, nonce...)
	out = append(out, ciphertext...)
	return out, nil
}

// Open decrypts a keystore blob produced by Seal, recovering the validator
// private key.
func Open(sealed, password []byte) (*crypto.PrivateKey, error) {
	nonceSize := chacha20poly1305.NonceSizeX
	minSize := headerSize + nonceSize + chacha20poly1305.Overhead
	if len(sealed) < minSize {
		return nil, fmt.Errorf("keystore data too short: %d bytes, need at least %d", len(sealed), minSize)
	}

	salt := sealed[:saltSize]
	p := Params{
		Memory:      binary.LittleEndian.Uint32(sealed[saltSize:]),
		Iterations:  binary.LittleEndian.Uint32(sealed[saltSize+4:]),
		Parallelism: sealed[saltSize+8],
	}
	nonce := sealed[headerSize : headerSize+nonceSize]
	ciphertext := sealed[headerSize+nonceSize:]

	derived := deriveKey(password, salt, p)
	defer zero(derived)

	aead, err := chacha20poly1305.NewX(derived)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt keystore: wrong password or corrupt data")
	}
	defer zero(plaintext)

	return crypto.PrivateKeyFromSeed(plaintext)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// SaveToFile seals key with password and writes it to path with 0600
// permissions.
func SaveToFile(path string, key *crypto.PrivateKey, password []byte) error {
	sealed, err := Seal(key, password, DefaultParams())
	if err != nil {
		return err
	}
	return os.WriteFile(path, sealed, 0o600)
}

// LoadFromFile reads and decrypts the validator key stored at path.
func LoadFromFile(path string, password []byte) (*crypto.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keystore %s: %w", path, err)
	}
	return Open(data, password)
}
