package auth

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pizzashop/order-service/internal/repository"
)

func newTestSessionManager(t *testing.T, secret string) *SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(NewTokenManager(secret), repository.NewSessionRepository(client))
}

func TestIssueThenValidate(t *testing.T) {
	ctx := context.Background()
	sessions := newTestSessionManager(t, "test-secret")

	token, err := sessions.Issue(ctx, testUser())
	require.NoError(t, err)

	user, ok := sessions.Validate(ctx, token)
	require.True(t, ok)
	assert.Equal(t, int64(42), user.ID)
	assert.Equal(t, "d@example.com", user.Email)
}

func TestRevokeInvalidatesSession(t *testing.T) {
	ctx := context.Background()
	sessions := newTestSessionManager(t, "test-secret")

	token, err := sessions.Issue(ctx, testUser())
	require.NoError(t, err)

	require.NoError(t, sessions.Revoke(ctx, token))

	_, ok := sessions.Validate(ctx, token)
	assert.False(t, ok, "revoked token must not validate")
}

func TestRevokeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	sessions := newTestSessionManager(t, "test-secret")

	token, err := sessions.Issue(ctx, testUser())
	require.NoError(t, err)

	assert.NoError(t, sessions.Revoke(ctx, token))
	assert.NoError(t, sessions.Revoke(ctx, token))
	assert.NoError(t, sessions.Revoke(ctx, "never-issued"))
}

func TestSignedButUnstoredTokenInvalid(t *testing.T) {
	ctx := context.Background()
	sessions := newTestSessionManager(t, "test-secret")

	// Signature verifies, but the credential store never saw the token.
	token, err := NewTokenManager("test-secret").GenerateToken(testUser())
	require.NoError(t, err)

	_, ok := sessions.Validate(ctx, token)
	assert.False(t, ok)
}

func TestForeignSignatureInvalid(t *testing.T) {
	ctx := context.Background()
	sessions := newTestSessionManager(t, "test-secret")

	token, err := NewTokenManager("other-secret").GenerateToken(testUser())
	require.NoError(t, err)

	_, ok := sessions.Validate(ctx, token)
	assert.False(t, ok)
}

func TestConcurrentSessionsPerUser(t *testing.T) {
	ctx := context.Background()
	sessions := newTestSessionManager(t, "test-secret")

	first, err := sessions.Issue(ctx, testUser())
	require.NoError(t, err)
	second, err := sessions.Issue(ctx, testUser())
	require.NoError(t, err)

	_, ok := sessions.Validate(ctx, first)
	assert.True(t, ok)
	_, ok = sessions.Validate(ctx, second)
	assert.True(t, ok)

	// Revoking one session leaves the other intact.
	require.NoError(t, sessions.Revoke(ctx, first))
	_, ok = sessions.Validate(ctx, first)
	assert.False(t, ok)
	_, ok = sessions.Validate(ctx, second)
	assert.True(t, ok)
}
