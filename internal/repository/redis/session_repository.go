package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"finance-qa-be/internal/repository/contract"
	"finance-qa-be/pkg/store"

	backend "github.com/redis/go-redis/v9"
)

const defaultPrefix = "assistant:session:"

// SessionRepository stores session snapshots as JSON so several API
// instances can serve the same session.
type SessionRepository struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

var _ contract.SessionRepository = &SessionRepository{}

type Option func(*SessionRepository)

// WithTTL sets the idle expiration for sessions. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(r *SessionRepository) {
		r.ttl = ttl
	}
}

func WithPrefix(prefix string) Option {
	return func(r *SessionRepository) {
		r.prefix = prefix
	}
}

func NewSessionRepository(client *backend.Client, opts ...Option) *SessionRepository {
	r := &SessionRepository{
		client: client,
		prefix: defaultPrefix,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *SessionRepository) key(sessionID string) string {
	return r.prefix + sessionID
}

func (r *SessionRepository) Save(ctx context.Context, session *store.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := r.client.Set(ctx, r.key(session.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session to redis: %w", err)
	}
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*store.Session, error) {
	val, err := r.client.Get(ctx, r.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, contract.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session from redis: %w", err)
	}

	var session store.Session
	if err := json.Unmarshal(val, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	n, err := r.client.Del(ctx, r.key(sessionID)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete session from redis: %w", err)
	}
	if n == 0 {
		return contract.ErrSessionNotFound
	}
	return nil
}
