package limiter_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dom/notely/internal/limiter"
	"github.com/dom/notely/internal/testutil"
)

func TestPG_BlockExpiryStartsFreshCount(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	ctx := context.Background()

	// A block shorter than the window, so an unreset counter would still be at the limit.
	const blockFor = 200 * time.Millisecond
	l := limiter.NewPG(testDB.Pool(t), time.Hour, 2, blockFor)
	ip := limiter.HashIP("192.0.2.10")

	blocked, _, err := l.Failure(ctx, "alice", ip)
	require.NoError(t, err)
	require.False(t, blocked)

	blocked, wait, err := l.Failure(ctx, "alice", ip)
	require.NoError(t, err)
	require.True(t, blocked)
	assert.Equal(t, blockFor, wait)

	allowed, _, err := l.Allow(ctx, "alice", ip)
	require.NoError(t, err)
	assert.False(t, allowed)

	time.Sleep(blockFor + 100*time.Millisecond)

	allowed, _, err = l.Allow(ctx, "alice", ip)
	require.NoError(t, err)
	require.True(t, allowed)

	blocked, _, err = l.Failure(ctx, "alice", ip)
	require.NoError(t, err)
	assert.False(t, blocked, "first failure after a block must not re-block")

	blocked, _, err = l.Failure(ctx, "alice", ip)
	require.NoError(t, err)
	assert.True(t, blocked)
}

func TestPG_SuccessClearsFailures(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	ctx := context.Background()

	l := limiter.NewPG(testDB.Pool(t), time.Hour, 2, time.Minute)
	ip := limiter.HashIP("192.0.2.11")

	blocked, _, err := l.Failure(ctx, "bob", ip)
	require.NoError(t, err)
	require.False(t, blocked)

	require.NoError(t, l.Success(ctx, "bob", ip))

	blocked, _, err = l.Failure(ctx, "bob", ip)
	require.NoError(t, err)
	assert.False(t, blocked)
}
