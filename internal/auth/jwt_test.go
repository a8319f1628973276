package auth

import "testing"

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	tok, err := GenerateToken("user-42", secret)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	sub, err := ParseToken(tok, secret)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if sub != "user-42" {
		t.Errorf("subject = %q, want user-42", sub)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	tok, err := GenerateToken("user-42", []byte("right"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseToken(tok, []byte("wrong")); err == nil {
		t.Fatal("token verified with the wrong secret")
	}
}

func TestTokenGarbage(t *testing.T) {
	if _, err := ParseToken("not.a.token", []byte("secret")); err == nil {
		t.Fatal("garbage token verified")
	}
}

func TestEmptySecretRejected(t *testing.T) {
	if _, err := GenerateToken("user-1", nil); err == nil {
		t.Fatal("empty secret accepted for signing")
	}
	if _, err := ParseToken("x", nil); err == nil {
		t.Fatal("empty secret accepted for parsing")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2hunter2")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword("hunter2hunter2", hash) {
		t.Error("correct password rejected")
	}
	if CheckPassword("wrong", hash) {
		t.Error("wrong password accepted")
	}
}
