package services

import (
	"context"
	"testing"
	"time"

	"sessionauth/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionManager_CreateSession(t *testing.T) {
	env := newTestEnv(t)

	s, err := env.sessions.CreateSession(context.Background(), "user-1")
	require.NoError(t, err)

	assert.NotEmpty(t, s.ID)
	assert.True(t, s.Active)
	assert.Equal(t, "user-1", s.UserID)
	assert.Equal(t, env.clock.now().Add(testSessionTTL), s.ExpiresAt)
}

func TestSessionManager_CreateSessionStoreError(t *testing.T) {
	env := newTestEnv(t)
	env.store.failCreate = repository.ErrStoreUnavailable

	s, err := env.sessions.CreateSession(context.Background(), "user-1")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Nil(t, s)
}

func TestSessionManager_ResolveNeverReturnsExpired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	s, err := env.sessions.CreateSession(ctx, "user-1")
	require.NoError(t, err)

	steps := []struct {
		advance time.Duration
		usable  bool
	}{
		{advance: 0, usable: true},
		{advance: testSessionTTL / 2, usable: true},
		{advance: testSessionTTL/2 - time.Second, usable: true},
		{advance: time.Second, usable: false},
		{advance: time.Hour, usable: false},
	}
	for _, st := range steps {
		env.clock.advance(st.advance)
		got, err := env.sessions.ResolveActiveSession(ctx, s.ID)
		if st.usable {
			require.NoError(t, err, "at %s", env.clock.now())
			assert.True(t, got.ExpiresAt.After(env.clock.now()))
			assert.True(t, got.Active)
			continue
		}
		assert.ErrorIs(t, err, ErrSessionInvalid, "at %s", env.clock.now())
		assert.Nil(t, got)
	}
}

func TestSessionManager_RevokeSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	s, err := env.sessions.CreateSession(ctx, "user-1")
	require.NoError(t, err)

	env.clock.advance(time.Minute)
	require.NoError(t, env.sessions.RevokeSession(ctx, s.ID))

	stored := env.store.sessions[s.ID]
	assert.False(t, stored.Active)
	assert.Equal(t, env.clock.now(), stored.ExpiresAt)

	assert.ErrorIs(t, env.sessions.RevokeSession(ctx, s.ID), ErrSessionNotFound)
	assert.ErrorIs(t, env.sessions.RevokeSession(ctx, "missing"), ErrSessionNotFound)

	_, err = env.sessions.ResolveActiveSession(ctx, s.ID)
	assert.ErrorIs(t, err, ErrSessionInvalid)
}

func TestSessionManager_RevokeUserSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for range 3 {
		_, err := env.sessions.CreateSession(ctx, "user-1")
		require.NoError(t, err)
	}
	other, err := env.sessions.CreateSession(ctx, "user-2")
	require.NoError(t, err)

	n, err := env.sessions.RevokeUserSessions(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = env.sessions.RevokeUserSessions(ctx, "user-1")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = env.sessions.ResolveActiveSession(ctx, other.ID)
	assert.NoError(t, err, "other users keep their sessions")
}
