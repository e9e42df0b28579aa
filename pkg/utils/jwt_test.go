package utils

import (
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789"

func TestTokenRoundTrip(t *testing.T) {
	tok, err := GenerateToken(testSecret, "carpool-backend", "uid-1", "a@example.com", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	claims, err := ValidateToken(testSecret, "carpool-backend", tok)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Subject != "uid-1" || claims.Email != "a@example.com" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestValidateTokenRejects(t *testing.T) {
	expired, _ := GenerateToken(testSecret, "carpool-backend", "uid-1", "", -time.Minute)
	otherIssuer, _ := GenerateToken(testSecret, "someone-else", "uid-1", "", time.Hour)
	wrongKey, _ := GenerateToken("another-secret-of-length", "carpool-backend", "uid-1", "", time.Hour)

	cases := map[string]string{
		"expired":   expired,
		"issuer":    otherIssuer,
		"signature": wrongKey,
		"garbage":   "not-a-token",
	}
	for name, tok := range cases {
		if _, err := ValidateToken(testSecret, "carpool-backend", tok); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
