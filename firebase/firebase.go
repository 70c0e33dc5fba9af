package firebase

import (
	"context"
	"errors"
	"fmt"

	"firebase.google.com/go"
	"firebase.google.com/go/auth"
)

// AddressClaim is the custom claim carrying the caller's ledger principal.
const AddressClaim = "address"

var ErrNoPrincipal = errors.New("token carries no address claim")

// Verifier resolves an ID token to the principal it was issued for.
type Verifier interface {
	Verify(ctx context.Context, idToken string) (string, error)
}

type tokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

type sdkVerifier struct {
	client tokenVerifier
}

// NewVerifier verifies tokens with the Firebase Admin SDK.
func NewVerifier(ctx context.Context, app *firebase.App) (Verifier, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("newVerifier: error getting Auth client: %w", err)
	}
	return &sdkVerifier{client: client}, nil
}

func (v *sdkVerifier) Verify(ctx context.Context, idToken string) (string, error) {
	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", fmt.Errorf("verify: error verifying ID token: %w", err)
	}
	return principalOf(token.Claims)
}

func principalOf(claims map[string]interface{}) (string, error) {
	address, ok := claims[AddressClaim].(string)
	if !ok || address == "" {
		return "", ErrNoPrincipal
	}
	return address, nil
}
