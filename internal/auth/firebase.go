package auth

import (
	"context"
	"fmt"

	firebaseauth "firebase.google.com/go/v4/auth"
)

// FirebaseVerifier validates Firebase ID tokens. The token's uid is the
// user's primary key.
type FirebaseVerifier struct {
	client *firebaseauth.Client
}

func NewFirebaseVerifier(client *firebaseauth.Client) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	tok, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("verify firebase token: %w", err)
	}
	email, _ := tok.Claims["email"].(string)
	return &Identity{UID: tok.UID, Email: email, Claims: tok.Claims}, nil
}
