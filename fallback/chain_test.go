package fallback

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainReturnsFirstSuccess(t *testing.T) {
	chain := NewChain("test",
		Provider[string]{Name: "broken", Run: func(ctx context.Context) (string, error) {
			return "", fmt.Errorf("boom")
		}},
		Provider[string]{Name: "works", Run: func(ctx context.Context) (string, error) {
			return "value", nil
		}},
		Provider[string]{Name: "never-called", Run: func(ctx context.Context) (string, error) {
			t.Fatal("chain must stop at the first success")
			return "", nil
		}},
	)

	v, provider, err := chain.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "value", v)
	assert.Equal(t, "works", provider)
}

func TestChainExhaustionIncludesEveryFailure(t *testing.T) {
	chain := NewChain("test",
		Provider[int]{Name: "a", Run: func(ctx context.Context) (int, error) { return 0, fmt.Errorf("a down") }},
		Provider[int]{Name: "b", Run: func(ctx context.Context) (int, error) { return 0, fmt.Errorf("b down") }},
	)

	_, _, err := chain.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a down")
	assert.Contains(t, err.Error(), "b down")
}

func TestChainSkipIsNotAFailure(t *testing.T) {
	chain := NewChain("test",
		Provider[string]{Name: "unconfigured", Run: func(ctx context.Context) (string, error) {
			return "", fmt.Errorf("%w: no key", ErrSkip)
		}},
		Provider[string]{Name: "works", Run: func(ctx context.Context) (string, error) {
			return "ok", nil
		}},
	)

	v, provider, err := chain.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, "works", provider)
}

func TestChainHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	chain := NewChain("test",
		Provider[string]{Name: "any", Run: func(ctx context.Context) (string, error) {
			t.Fatal("must not run after cancellation")
			return "", nil
		}},
	)
	_, _, err := chain.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryEventuallySucceeds(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return fmt.Errorf("not yet")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryStopsImmediatelyOnSkip(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return fmt.Errorf("%w: no credential", ErrSkip)
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSkip)
	assert.Equal(t, 1, calls)
}

func TestRetryGivesUp(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 2, time.Millisecond, func() error {
		calls++
		return fmt.Errorf("always down")
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.Contains(t, err.Error(), "after 2 attempts")
}
