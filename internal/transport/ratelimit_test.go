package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJoinLimiter_AllowPerMember(t *testing.T) {
	l := NewJoinLimiter(1, 2)
	now := time.Unix(1000, 0)
	l.now = func() time.Time { return now }

	require.True(t, l.Allow("a"))
	require.True(t, l.Allow("a"))
	require.False(t, l.Allow("a"))
	require.True(t, l.Allow("b"))

	now = now.Add(time.Second)
	require.True(t, l.Allow("a"))
	require.False(t, l.Allow("a"))
}

func TestJoinLimiter_Cleanup(t *testing.T) {
	l := NewJoinLimiter(1, 1, WithIdleTTL(time.Minute))
	now := time.Unix(1000, 0)
	l.now = func() time.Time { return now }

	l.Allow("a")
	now = now.Add(30 * time.Second)
	l.Allow("b")
	require.Equal(t, 2, l.Len())

	now = now.Add(45 * time.Second)
	l.Cleanup()
	require.Equal(t, 1, l.Len())
}

func TestJoinLimiter_Janitor(t *testing.T) {
	l := NewJoinLimiter(1, 1, WithIdleTTL(time.Nanosecond), WithCleanupEvery(5*time.Millisecond))
	l.Allow("a")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l.StartJanitor(ctx)

	require.Eventually(t, func() bool { return l.Len() == 0 }, time.Second, 5*time.Millisecond)
}
