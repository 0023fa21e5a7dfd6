package auth

import (
	"strings"
	"testing"
)

func TestTokenRoundTrip(t *testing.T) {
	InitJWT("test-secret")

	token, err := GenerateToken("FvQ9wallet")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.WalletAddress != "FvQ9wallet" {
		t.Errorf("expected wallet FvQ9wallet, got %s", claims.WalletAddress)
	}
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	InitJWT("test-secret")

	token, err := GenerateToken("FvQ9wallet")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	// Flip a character inside the signature segment
	tampered := token[:len(token)-2] + "xx"
	if _, err := ValidateToken(tampered); err == nil {
		t.Error("expected error for tampered token")
	}

	if _, err := ValidateToken("not.a.token"); err == nil {
		t.Error("expected error for garbage token")
	}

	// A token signed under a different secret is rejected
	InitJWT("other-secret")
	if _, err := ValidateToken(token); err == nil {
		t.Error("expected error for token signed with old secret")
	}
	InitJWT("test-secret")

	if len(strings.Split(token, ".")) != 3 {
		t.Error("expected three JWT segments")
	}
}
