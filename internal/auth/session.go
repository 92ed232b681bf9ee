package auth

import (
	"context"

	"github.com/pizzashop/order-service/internal/domain"
	"github.com/pizzashop/order-service/internal/repository"
)

// SessionManager issues and revokes bearer credentials. A token is
// valid only when both its signature verifies and the credential store
// still holds it, so revocation takes effect immediately even though
// the signature never stops verifying.
type SessionManager struct {
	tokens *TokenManager
	store  repository.SessionRepository
}

// NewSessionManager builds the manager.
func NewSessionManager(tokens *TokenManager, store repository.SessionRepository) *SessionManager {
	return &SessionManager{tokens: tokens, store: store}
}

// Issue signs a token for the user and records it in the credential
// store. Fails only when the store write fails.
func (m *SessionManager) Issue(ctx context.Context, user *domain.User) (string, error) {
	token, err := m.tokens.GenerateToken(user)
	if err != nil {
		return "", err
	}
	if err := m.store.Add(ctx, token, user.ID); err != nil {
		return "", err
	}
	return token, nil
}

// Validate resolves a token into the identity it was issued for. It
// fails closed: bad signature and missing store entry both yield
// (nil, false) without telling the caller which check failed.
func (m *SessionManager) Validate(ctx context.Context, token string) (*domain.User, bool) {
	claims, err := m.tokens.ParseToken(token)
	if err != nil {
		return nil, false
	}
	active, err := m.store.Exists(ctx, token)
	if err != nil || !active {
		return nil, false
	}
	return claims.User(), true
}

// Revoke removes the token from the credential store. Revoking an
// already-revoked or never-issued token is a no-op.
func (m *SessionManager) Revoke(ctx context.Context, token string) error {
	return m.store.Remove(ctx, token)
}
