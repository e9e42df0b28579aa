package auth

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chachabrian/carpool-backend/pkg/apperr"
	"github.com/chachabrian/carpool-backend/pkg/utils"
)

func TestRequire(t *testing.T) {
	if _, err := Require(context.Background()); !apperr.Is(err, apperr.Unauthenticated) {
		t.Fatalf("expected UNAUTHENTICATED, got %v", err)
	}
	ctx := WithIdentity(context.Background(), &Identity{UID: "u1"})
	id, err := Require(ctx)
	if err != nil || id.UID != "u1" {
		t.Fatalf("unexpected result %v %v", id, err)
	}
}

func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/graphql", nil)
	r.Header.Set("Authorization", "Bearer abc")
	if got := TokenFromRequest(r); got != "abc" {
		t.Fatalf("header token = %q", got)
	}

	r = httptest.NewRequest("GET", "/subscriptions?token=xyz", nil)
	if got := TokenFromRequest(r); got != "xyz" {
		t.Fatalf("query token = %q", got)
	}

	r = httptest.NewRequest("GET", "/graphql", nil)
	r.Header.Set("Authorization", "Basic zzz")
	if got := TokenFromRequest(r); got != "" {
		t.Fatalf("basic auth should be ignored, got %q", got)
	}
}

func TestJWTVerifier(t *testing.T) {
	secret := "0123456789abcdef0123"
	tok, err := utils.GenerateToken(secret, "carpool-backend", "driver-1", "d@example.com", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	v := NewJWTVerifier(secret, "carpool-backend")
	id, err := v.Verify(context.Background(), tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id.UID != "driver-1" || id.Email != "d@example.com" {
		t.Fatalf("unexpected identity %+v", id)
	}
	if _, err := v.Verify(context.Background(), tok+"x"); err == nil {
		t.Fatal("tampered token should fail")
	}
}
