package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetry(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, Multiplier: 2}

	t.Run("succeeds first try", func(t *testing.T) {
		calls := 0
		err := Retry(cfg, func() error {
			calls++
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("recovers from transient failures", func(t *testing.T) {
		calls := 0
		err := Retry(cfg, func() error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		boom := errors.New("boom")
		calls := 0
		err := Retry(cfg, func() error {
			calls++
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 3, calls)
	})

	t.Run("permanent errors are not retried", func(t *testing.T) {
		notFound := errors.New("not found")
		calls := 0
		err := Retry(cfg, func() error {
			calls++
			return notFound
		}, notFound)
		assert.ErrorIs(t, err, notFound)
		assert.Equal(t, 1, calls)
	})

	t.Run("wrapped permanent errors are recognized", func(t *testing.T) {
		notFound := errors.New("not found")
		calls := 0
		err := Retry(cfg, func() error {
			calls++
			return errors.Join(errors.New("load order"), notFound)
		}, notFound)
		assert.ErrorIs(t, err, notFound)
		assert.Equal(t, 1, calls)
	})
}
