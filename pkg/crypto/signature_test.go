package crypto

import "testing"

func TestGenerateKey(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}
	if len(key.PublicKey()) != PublicKeySize {
		t.Errorf("PublicKey() length = %d, want %d", len(key.PublicKey()), PublicKeySize)
	}
}

func TestSignVerify_Roundtrip(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}
	msg := []byte("test message")
	sig := key.Sign(msg)
	if len(sig) != SignatureSize {
		t.Errorf("signature length = %d, want %d", len(sig), SignatureSize)
	}
	if !Verify(key.PublicKey(), msg, sig) {
		t.Error("valid signature should verify")
	}
}

func TestVerify_WrongMessage(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}
	sig := key.Sign([]byte("message"))
	if Verify(key.PublicKey(), []byte("different message"), sig) {
		t.Error("signature should not verify against a different message")
	}
}

func TestVerify_RejectsNon64ByteSignature(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}
	if Verify(key.PublicKey(), []byte("m"), []byte{1, 2, 3}) {
		t.Error("Verify should reject a non-64-byte signature")
	}
}

func TestPrivateKeyFromSeed_Roundtrip(t *testing.T) {
	original, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}
	restored, err := PrivateKeyFromSeed(original.Serialize())
	if err != nil {
		t.Fatalf("PrivateKeyFromSeed() error: %v", err)
	}
	if string(restored.PublicKey()) != string(original.PublicKey()) {
		t.Error("restored key should have the same public key")
	}
}

func TestSignFunction_Package(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}
	sig, err := Sign(key.Serialize(), []byte("hello"))
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	if !Verify(key.PublicKey(), []byte("hello"), sig) {
		t.Error("package-level Sign/Verify should round-trip")
	}
}
