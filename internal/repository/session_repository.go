package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

// SessionRepository is the credential store backing revocable sessions.
// A token is valid only while its entry is present; entries carry no
// expiry, so revocation is immediate and permanent for that token value.
type SessionRepository interface {
	Add(ctx context.Context, token string, userID int64) error
	Exists(ctx context.Context, token string) (bool, error)
	Remove(ctx context.Context, token string) error
}

type sessionRepository struct {
	client *redis.Client
}

// NewSessionRepository returns a Redis-backed implementation.
func NewSessionRepository(client *redis.Client) SessionRepository {
	return &sessionRepository{client: client}
}

func (r *sessionRepository) Add(ctx context.Context, token string, userID int64) error {
	return r.client.Set(ctx, sessionKey(token), strconv.FormatInt(userID, 10), 0).Err()
}

func (r *sessionRepository) Exists(ctx context.Context, token string) (bool, error) {
	count, err := r.client.Exists(ctx, sessionKey(token)).Result()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Remove deletes the entry. Removing an absent token is not an error,
// so concurrent or repeated revocations all succeed.
func (r *sessionRepository) Remove(ctx context.Context, token string) error {
	return r.client.Del(ctx, sessionKey(token)).Err()
}

// sessionKey digests the token so raw credentials never land in Redis.
func sessionKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return sessionKeyPrefix + hex.EncodeToString(sum[:])
}
