package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errBusy = errors.New("503 overloaded")

type fakeSleeper struct {
	waits []time.Duration
}

func (f *fakeSleeper) sleep(ctx context.Context, d time.Duration) error {
	f.waits = append(f.waits, d)
	return ctx.Err()
}

func isBusy(err error) bool { return errors.Is(err, errBusy) }

func TestDo_RetriesTransientThenSucceeds(t *testing.T) {
	fs := &fakeSleeper{}
	p := Policy{Retryable: isBusy, Sleep: fs.sleep}.WithDefaults()

	calls := 0
	got, err := Do(context.Background(), p, func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errBusy
		}
		return "ok", nil
	})
	require.NoError(t, err)
	require.Equal(t, "ok", got)
	require.Equal(t, 3, calls)
	require.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, fs.waits)

	var total time.Duration
	for _, w := range fs.waits {
		total += w
	}
	require.Equal(t, 6*time.Second, total)
}

func TestDo_PermanentErrorIsNotRetried(t *testing.T) {
	fs := &fakeSleeper{}
	p := Policy{Retryable: isBusy, Sleep: fs.sleep}.WithDefaults()
	perm := errors.New("invalid api key")

	calls := 0
	_, err := Do(context.Background(), p, func(ctx context.Context) (int, error) {
		calls++
		return 0, perm
	})
	require.ErrorIs(t, err, perm)
	require.Equal(t, 1, calls)
	require.Empty(t, fs.waits)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	fs := &fakeSleeper{}
	var retried []int
	p := Policy{
		Attempts:  3,
		Delay:     10 * time.Millisecond,
		Retryable: isBusy,
		Sleep:     fs.sleep,
		OnRetry:   func(attempt int, _ time.Duration, _ error) { retried = append(retried, attempt) },
	}

	calls := 0
	_, err := Do(context.Background(), p, func(ctx context.Context) (int, error) {
		calls++
		return 0, errBusy
	})
	require.ErrorIs(t, err, errBusy)
	require.Equal(t, 3, calls)
	require.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, fs.waits)
	require.Equal(t, []int{1, 2}, retried)
}

func TestDo_StopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := Policy{Attempts: 5, Delay: time.Hour, Retryable: isBusy}

	calls := 0
	start := time.Now()
	_, err := Do(ctx, p, func(ctx context.Context) (int, error) {
		calls++
		return 0, errBusy
	})
	require.ErrorIs(t, err, errBusy)
	require.Equal(t, 1, calls)
	require.Less(t, time.Since(start), time.Second)
}

func TestDo_RealTimerWaits(t *testing.T) {
	p := Policy{Attempts: 2, Delay: 20 * time.Millisecond, Retryable: isBusy}
	calls := 0
	start := time.Now()
	_, err := Do(context.Background(), p, func(ctx context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, errBusy
		}
		return 1, nil
	})
	require.NoError(t, err)
	require.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}
