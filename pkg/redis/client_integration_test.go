//go:build integration

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/NGram-Search-Platform/pkg/config"
)

func openTestClient(t *testing.T) *Client {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	c, err := NewClient(context.Background(), cfg.Redis)
	if err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestLockIsExclusive(t *testing.T) {
	c := openTestClient(t)
	ctx := context.Background()
	name := "it-" + uuid.NewString()

	release, ok, err := c.Acquire(ctx, name, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = c.Acquire(ctx, name, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, release(ctx))
	release2, ok, err := c.Acquire(ctx, name, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, release2(ctx))
}

func TestStaleReleaseKeepsNewHolder(t *testing.T) {
	c := openTestClient(t)
	ctx := context.Background()
	name := "it-" + uuid.NewString()

	stale, ok, err := c.Acquire(ctx, name, 50*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)
	time.Sleep(100 * time.Millisecond)

	fresh, ok, err := c.Acquire(ctx, name, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, stale(ctx))
	_, ok, err = c.Acquire(ctx, name, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "stale release removed the new holder's lock")
	require.NoError(t, fresh(ctx))
}
