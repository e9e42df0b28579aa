// Package auth turns bearer credentials into a verified caller identity and
// carries it through request contexts.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/chachabrian/carpool-backend/pkg/apperr"
)

// Identity is a verified caller.
type Identity struct {
	UID    string
	Email  string
	Claims map[string]interface{}
}

// Verifier validates a raw bearer token. Implementations return an error
// for anything that is not a currently valid credential.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the caller or nil when the request is anonymous.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(ctxKey{}).(*Identity)
	return id
}

// Require returns the caller or an UNAUTHENTICATED error.
func Require(ctx context.Context) (*Identity, error) {
	id := FromContext(ctx)
	if id == nil || id.UID == "" {
		return nil, apperr.Unauthenticatedf("authentication required")
	}
	return id, nil
}

// TokenFromRequest reads "Authorization: Bearer <token>" and falls back to
// the token query parameter, which websocket clients use.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return r.URL.Query().Get("token")
}
