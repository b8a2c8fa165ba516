package redis_test

import (
	"context"
	"testing"
	"time"

	"finance-qa-be/internal/repository/contract"
	"finance-qa-be/internal/repository/redis"
	"finance-qa-be/pkg/assistant/conversation"
	"finance-qa-be/pkg/assistant/prompt"
	"finance-qa-be/pkg/store"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, opts ...redis.Option) (*miniredis.Miniredis, *redis.SessionRepository) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, redis.NewSessionRepository(client, opts...)
}

func sampleSession(t *testing.T) *store.Session {
	t.Helper()
	state, err := conversation.New(prompt.ModeCryptoBasics, "custody notes")
	require.NoError(t, err)
	require.NoError(t, state.AppendUser("What is a stablecoin?"))
	state.AppendAssistant("A stablecoin is...")

	now := time.Now().UTC().Truncate(time.Second)
	return &store.Session{
		ID:           "4c1d2f0e-9a7b-4f51-8d42-1b7c3e5f6a90",
		Settings:     store.Settings{Temperature: 0.4, IncludeNotes: true},
		Conversation: state.Snapshot(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestSessionRepositoryRoundTrip(t *testing.T) {
	mr, repo := setup(t)
	ctx := context.Background()
	s := sampleSession(t)

	require.NoError(t, repo.Save(ctx, s))
	assert.True(t, mr.Exists("assistant:session:"+s.ID))

	got, err := repo.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.Settings, got.Settings)
	assert.Equal(t, s.Conversation, got.Conversation)
	assert.True(t, s.CreatedAt.Equal(got.CreatedAt))

	require.NoError(t, repo.Delete(ctx, s.ID))
	_, err = repo.Get(ctx, s.ID)
	assert.ErrorIs(t, err, contract.ErrSessionNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, s.ID), contract.ErrSessionNotFound)
}

func TestSessionRepositoryTTL(t *testing.T) {
	mr, repo := setup(t, redis.WithTTL(time.Minute), redis.WithPrefix("test:"))
	ctx := context.Background()
	s := sampleSession(t)

	require.NoError(t, repo.Save(ctx, s))
	assert.Equal(t, time.Minute, mr.TTL("test:"+s.ID))

	mr.FastForward(2 * time.Minute)
	_, err := repo.Get(ctx, s.ID)
	assert.ErrorIs(t, err, contract.ErrSessionNotFound)
}
