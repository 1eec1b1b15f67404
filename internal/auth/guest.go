package auth

import (
	"context"
	"fmt"

	"github.com/levipshemish/jewgo-api/internal/models"
)

// GuestMinter creates anonymous session accounts. Each successful Turnstile
// challenge yields one guest user row and one short-lived token, so guest
// reviews stay attributable and rate-limitable per session.
type GuestMinter struct {
	storage  UserStorage
	verifier *TurnstileVerifier
	tokens   *JWTManager
}

// NewGuestMinter wires the minter to its storage, challenge verifier and
// token signer.
func NewGuestMinter(storage UserStorage, verifier *TurnstileVerifier, tokens *JWTManager) *GuestMinter {
	return &GuestMinter{
		storage:  storage,
		verifier: verifier,
		tokens:   tokens,
	}
}

// Mint verifies the challenge token, creates a guest account and returns it
// together with its session token. No account is created when the challenge
// fails.
func (g *GuestMinter) Mint(ctx context.Context, challengeToken, remoteIP string) (*models.User, string, error) {
	if err := g.verifier.Verify(ctx, challengeToken, remoteIP); err != nil {
		return nil, "", err
	}

	user := models.NewGuestUser()
	if err := g.storage.CreateUser(ctx, user); err != nil {
		return nil, "", fmt.Errorf("failed to create guest user: %w", err)
	}

	token, err := g.tokens.GenerateGuest(user)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}
