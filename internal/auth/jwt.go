package auth

import (
	"context"

	"github.com/chachabrian/carpool-backend/pkg/utils"
)

// JWTVerifier accepts HS256 tokens signed with a shared secret. It backs
// local development and service-to-service calls when Firebase is off.
type JWTVerifier struct {
	secret string
	issuer string
}

func NewJWTVerifier(secret, issuer string) *JWTVerifier {
	return &JWTVerifier{secret: secret, issuer: issuer}
}

func (v *JWTVerifier) Verify(_ context.Context, token string) (*Identity, error) {
	claims, err := utils.ValidateToken(v.secret, v.issuer, token)
	if err != nil {
		return nil, err
	}
	return &Identity{
		UID:   claims.Subject,
		Email: claims.Email,
		Claims: map[string]interface{}{
			"iss": claims.Issuer,
		},
	}, nil
}
