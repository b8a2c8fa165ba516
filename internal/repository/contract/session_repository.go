package contract

import (
	"context"
	"errors"

	"finance-qa-be/pkg/store"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionRepository holds session snapshots for the lifetime of a session.
type SessionRepository interface {
	Save(ctx context.Context, session *store.Session) error
	Get(ctx context.Context, sessionID string) (*store.Session, error)
	Delete(ctx context.Context, sessionID string) error
}
