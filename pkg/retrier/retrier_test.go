package retrier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFlaky = errors.New("flaky")

func fast(opts ...Option) *Retrier {
	return New(append([]Option{WithInitialInterval(time.Millisecond)}, opts...)...)
}

func TestDo(t *testing.T) {
	tests := []struct {
		name     string
		opts     []Option
		failures int
		wantErr  bool
		wantHits int
	}{
		{name: "first try", failures: 0, wantHits: 1},
		{name: "recovers within budget", opts: []Option{WithMaxRetries(3)}, failures: 2, wantHits: 3},
		{name: "budget exhausted", opts: []Option{WithMaxRetries(2)}, failures: 10, wantErr: true, wantHits: 3},
		{name: "retries disabled", opts: []Option{WithMaxRetries(0)}, failures: 1, wantErr: true, wantHits: 1},
		{name: "negative retries mean none", opts: []Option{WithMaxRetries(-4)}, failures: 1, wantErr: true, wantHits: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits := 0
			err := fast(tt.opts...).Do(context.Background(), func(context.Context) error {
				hits++
				if hits <= tt.failures {
					return errFlaky
				}
				return nil
			})

			if tt.wantErr {
				assert.ErrorIs(t, err, errFlaky)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantHits, hits)
		})
	}
}

func TestDo_ClassifierStopsRetries(t *testing.T) {
	errRejected := errors.New("rejected")
	r := fast(WithMaxRetries(5), WithRetryIf(func(err error) bool {
		return !errors.Is(err, errRejected)
	}))

	hits := 0
	err := r.Do(context.Background(), func(context.Context) error {
		hits++
		if hits == 1 {
			return errFlaky
		}
		return errRejected
	})

	assert.ErrorIs(t, err, errRejected)
	assert.Equal(t, 2, hits)
}

func TestDo_CanceledWhileWaiting(t *testing.T) {
	r := New(WithMaxRetries(5), WithInitialInterval(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())

	hits := 0
	err := r.Do(ctx, func(context.Context) error {
		hits++
		cancel()
		return errFlaky
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, hits)
}

func TestDelay_BackoffIsCapped(t *testing.T) {
	r := New(WithInitialInterval(100*time.Millisecond), WithMaxInterval(time.Second))

	first := r.delay(1)
	assert.InDelta(t, float64(100*time.Millisecond), float64(first), float64(10*time.Millisecond))

	third := r.delay(3)
	assert.InDelta(t, float64(400*time.Millisecond), float64(third), float64(40*time.Millisecond))

	capped := r.delay(20)
	assert.LessOrEqual(t, capped, time.Second+100*time.Millisecond)
	assert.GreaterOrEqual(t, capped, 900*time.Millisecond)
}

func TestDoWithData(t *testing.T) {
	hits := 0
	val, err := DoWithData(fast(WithMaxRetries(1)), context.Background(), func(context.Context) (string, error) {
		hits++
		if hits == 1 {
			return "", errFlaky
		}
		return "prices", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "prices", val)

	val, err = DoWithData(fast(WithMaxRetries(0)), context.Background(), func(context.Context) (string, error) {
		return "partial", errFlaky
	})
	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, "partial", val)
}
