package crypto

import "testing"

func TestHashPassword_VerifyPassword(t *testing.T) {
	phc, err := HashPassword("correct-horse")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	ok, err := VerifyPassword("correct-horse", phc)
	if err != nil {
		t.Fatalf("VerifyPassword() error: %v", err)
	}
	if !ok {
		t.Error("correct password should verify")
	}
}

func TestVerifyPassword_WrongPassword(t *testing.T) {
	phc, err := HashPassword("correct-horse")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	ok, err := VerifyPassword("wrong-password", phc)
	if err != nil {
		t.Fatalf("VerifyPassword() error: %v", err)
	}
	if ok {
		t.Error("wrong password should not verify")
	}
}

func TestHashPassword_DistinctSalts(t *testing.T) {
	phc1, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	phc2, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	if phc1 == phc2 {
		t.Error("two hashes of the same password should differ (fresh salt)")
	}

	for _, phc := range []string{phc1, phc2} {
		ok, err := VerifyPassword("same-password", phc)
		if err != nil {
			t.Fatalf("VerifyPassword() error: %v", err)
		}
		if !ok {
			t.Error("both hashes should verify against the original password")
		}
	}
}

func TestDeriveKey_Deterministic(t *testing.T) {
	salt := []byte("0123456789abcdef")
	k1 := DeriveKey([]byte("password"), salt)
	k2 := DeriveKey([]byte("password"), salt)
	if string(k1) != string(k2) {
		t.Error("DeriveKey should be deterministic for the same password and salt")
	}
}
