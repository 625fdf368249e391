package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/gsharma/indiainfo/internal/database"
)

// SessionRepository maps opaque session tokens to user ids with expiry.
// Sessions live only in Redis; the cookie carries the token, never the id.
type SessionRepository interface {
	Create(ctx context.Context, token string, userID uuid.UUID, expiry time.Duration) error
	Get(ctx context.Context, token string) (uuid.UUID, error)
	Delete(ctx context.Context, token string) error
}

// ErrSessionNotFound is returned when a token does not resolve to a session.
var ErrSessionNotFound = errors.New("session not found")

type sessionRepo struct {
	redis *database.Redis
}

// NewSessionRepository creates a Redis-backed session repository.
func NewSessionRepository(r *database.Redis) SessionRepository {
	return &sessionRepo{redis: r}
}

func sessionKey(token string) string {
	return fmt.Sprintf("session:%s", token)
}

func (r *sessionRepo) Create(ctx context.Context, token string, userID uuid.UUID, expiry time.Duration) error {
	return r.redis.Set(ctx, sessionKey(token), userID.String(), expiry)
}

func (r *sessionRepo) Get(ctx context.Context, token string) (uuid.UUID, error) {
	val, err := r.redis.Get(ctx, sessionKey(token))
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrSessionNotFound
	}
	if err != nil {
		return uuid.Nil, err
	}

	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, ErrSessionNotFound
	}
	return id, nil
}

// Delete removes a session. Deleting an absent token is not an error, which
// makes logout idempotent.
func (r *sessionRepo) Delete(ctx context.Context, token string) error {
	return r.redis.Delete(ctx, sessionKey(token))
}

// Compile-time check to ensure sessionRepo implements SessionRepository.
var _ SessionRepository = (*sessionRepo)(nil)
