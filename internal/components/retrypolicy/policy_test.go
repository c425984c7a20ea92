package retrypolicy

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/crunchdao/coordinator-settle/pkg/repo"
)

var errBoom = errors.New("boom")

func TestDoRetriesUntilLimit(t *testing.T) {
	p := Policy{Limit: 4, Wait: time.Millisecond, Backoff: repo.BackoffFixed}

	calls := 0
	err := p.Do(context.Background(), func(attempt uint) error {
		calls++
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)
	require.Equal(t, 4, calls)
}

func TestDoStopsOnSuccess(t *testing.T) {
	p := Policy{Limit: 5, Wait: time.Millisecond, Backoff: repo.BackoffFibonacci}

	var attempts []uint
	err := p.Do(context.Background(), func(attempt uint) error {
		attempts = append(attempts, attempt)
		if attempt < 3 {
			return errBoom
		}
		return nil
	})
	require.Nil(t, err)
	require.Equal(t, []uint{1, 2, 3}, attempts)
}

func TestFirstAttemptDoesNotWait(t *testing.T) {
	p := Policy{Limit: 2, Wait: time.Hour, Backoff: repo.BackoffFixed}

	start := time.Now()
	err := p.Do(context.Background(), func(attempt uint) error {
		return nil
	})
	require.Nil(t, err)
	require.Less(t, time.Since(start), time.Second)
}

func TestDoPermanent(t *testing.T) {
	p := Policy{Limit: 5, Wait: time.Millisecond}

	calls := 0
	err := p.Do(context.Background(), func(attempt uint) error {
		calls++
		return Permanent(errBoom)
	})
	require.ErrorIs(t, err, errBoom)
	require.Equal(t, 1, calls)
}

func TestDoCancelled(t *testing.T) {
	p := Policy{Limit: 5, Wait: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	err := p.Do(ctx, func(attempt uint) error {
		calls++
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)
	require.Equal(t, 1, calls)

	calls = 0
	err = p.Do(ctx, func(attempt uint) error {
		calls++
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 0, calls)
}

func TestFromConfigSanitize(t *testing.T) {
	p := FromConfig(repo.Retry{})
	require.Equal(t, uint(DefaultLimit), p.Limit)
	require.Equal(t, repo.BackoffFixed, p.Backoff)

	p = FromConfig(repo.Retry{Limit: 2, Wait: repo.Duration(time.Second), Backoff: repo.BackoffExponential})
	require.Equal(t, uint(2), p.Limit)
	require.Equal(t, time.Second, p.Wait)
	require.Equal(t, repo.BackoffExponential, p.Backoff)

	require.Equal(t, uint(1), NoRetry().Limit)
}
