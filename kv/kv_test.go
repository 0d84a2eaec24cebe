package kv

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paymordomo/models"
)

func TestMemoryBasics(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Set(ctx, "a", map[string]int{"x": 1}, 0))
	var got map[string]int
	require.NoError(t, m.Get(ctx, "a", &got))
	assert.Equal(t, 1, got["x"])

	ok, _ := m.Has(ctx, "a")
	assert.True(t, ok)
	assert.ErrorIs(t, m.Get(ctx, "missing", &got), ErrMiss)

	require.NoError(t, m.Set(ctx, "b", "v", 0))
	keys, _ := m.Keys(ctx)
	assert.Equal(t, []string{"a", "b"}, keys)

	require.NoError(t, m.Remove(ctx, "a"))
	ok, _ = m.Has(ctx, "a")
	assert.False(t, ok)

	require.NoError(t, m.Clear(ctx))
	keys, _ = m.Keys(ctx)
	assert.Empty(t, keys)
}

func TestMemoryTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "k", 1, time.Minute))
	ok, _ := m.Has(ctx, "k")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	ok, _ = m.Has(ctx, "k")
	assert.False(t, ok)
}

func TestSessionHelpers(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	u := &models.User{ID: "u1", Name: "Ana", Phone: "11987654321", PasswordHash: "secret"}

	require.NoError(t, PutSession(ctx, m, "sid", "tok", u, time.Hour))

	cached, err := SessionUser(ctx, m, "sid")
	require.NoError(t, err)
	assert.Equal(t, "Ana", cached.Name)
	assert.Empty(t, cached.PasswordHash)

	tok, err := SessionToken(ctx, m, "sid")
	require.NoError(t, err)
	assert.Equal(t, "tok", tok)

	require.NoError(t, DropSession(ctx, m, "sid"))
	_, err = SessionUser(ctx, m, "sid")
	assert.ErrorIs(t, err, ErrMiss)
	require.NoError(t, DropSession(ctx, m, "sid"))
}

func TestRotationIndex(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	i, err := Index(ctx, m, RotationVerse, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, i)

	require.NoError(t, SetIndex(ctx, m, RotationVerse, "u1", 3))
	i, _ = Index(ctx, m, RotationVerse, "u1")
	assert.Equal(t, 3, i)

	i, _ = Index(ctx, m, RotationTip, "u1")
	assert.Equal(t, 0, i)
}

func TestRedisPrefix(t *testing.T) {
	r := NewRedisWithClient(nil, "paymordomo", nil)
	assert.Equal(t, "paymordomo:user:x", r.key(userKey("x")))
}

func TestRevoke(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, PutSession(ctx, m, "sid", "tok", &models.User{ID: "u1"}, time.Hour))

	require.NoError(t, Revoke(ctx, m, "sid", time.Hour))
	revoked, err := Revoked(ctx, m, "sid")
	require.NoError(t, err)
	assert.True(t, revoked)

	keys, _ := m.Keys(ctx)
	assert.Equal(t, []string{"revoked:sid"}, keys)
}
