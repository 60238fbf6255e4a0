package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/V4T54L/waste-watch/internal/domain"
)

const sessionKeyPrefix = "session:"

// SessionRepository implements the domain.SessionRepository interface for Redis.
// Each session is one JSON value whose key expires with the session.
type SessionRepository struct {
	client *redis.Client
	logger *slog.Logger
}

// NewSessionRepository creates a new Redis session repository.
func NewSessionRepository(client *redis.Client, logger *slog.Logger) *SessionRepository {
	return &SessionRepository{
		client: client,
		logger: logger,
	}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

// Save stores rec under its id for ttl.
func (r *SessionRepository) Save(ctx context.Context, rec domain.SessionRecord, ttl time.Duration) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(rec.ID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Get returns the session stored under id, or domain.ErrNotFound once it has expired.
func (r *SessionRepository) Get(ctx context.Context, id string) (*domain.SessionRecord, error) {
	payload, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var rec domain.SessionRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		r.logger.Warn("dropping unreadable session", "session_id", id, "error", err)
		r.client.Del(ctx, sessionKey(id))
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

// Delete removes the session. Deleting a missing session is not an error.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
