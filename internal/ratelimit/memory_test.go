package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemory_LimitAndReset(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := start

	m := NewMemory(3, time.Minute)
	m.now = func() time.Time { return clock }

	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := m.Allow(ctx, "ip:1")
		require.NoError(t, err)
		require.True(t, d.Allowed, "request %d should pass", i+1)
	}

	clock = start.Add(20 * time.Second)
	d, err := m.Allow(ctx, "ip:1")
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, 40*time.Second, d.RetryAfter)

	// other keys are independent
	d, err = m.Allow(ctx, "ip:2")
	require.NoError(t, err)
	require.True(t, d.Allowed)

	clock = start.Add(61 * time.Second)
	d, err = m.Allow(ctx, "ip:1")
	require.NoError(t, err)
	require.True(t, d.Allowed)
}

func TestMemory_SweepsExpiredBuckets(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := start

	m := NewMemory(1, time.Second)
	m.now = func() time.Time { return clock }

	ctx := context.Background()
	for i := 0; i < 1100; i++ {
		_, err := m.Allow(ctx, string(rune('a'+i%26))+time.Duration(i).String())
		require.NoError(t, err)
	}

	clock = start.Add(2 * time.Second)
	_, err := m.Allow(ctx, "fresh")
	require.NoError(t, err)

	require.Len(t, m.clients, 1)
}
