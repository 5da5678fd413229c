package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	_, err := Open(ctx, "")
	require.ErrorIs(t, err, ErrEmptyConnectionURL)

	for _, url := range []string{"http://localhost:6379", "localhost:6379", "postgres://localhost"} {
		_, err := Open(ctx, url)
		require.ErrorIs(t, err, ErrFailedToParseURL, url)
	}

	_, err = Open(ctx, "redis://localhost:6379/notanumber")
	require.ErrorIs(t, err, ErrFailedToParseURL)
}

func TestOpen_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Open(ctx, "redis://127.0.0.1:1/0", WithRetry(3, time.Second), WithTimeout(50*time.Millisecond))
	require.ErrorIs(t, err, ErrConnectionFailed)
}

func TestHealthcheck_NilClient(t *testing.T) {
	t.Parallel()

	err := Healthcheck(nil)(context.Background())
	require.ErrorIs(t, err, ErrHealthcheckFailed)
}

type closer struct {
	err    error
	called bool
}

func (c *closer) Close() error {
	c.called = true
	return c.err
}

func TestShutdown(t *testing.T) {
	t.Parallel()

	c := &closer{}
	require.NoError(t, Shutdown(c)(context.Background()))
	assert.True(t, c.called)

	failing := &closer{err: errors.New("boom")}
	require.EqualError(t, Shutdown(failing)(context.Background()), "boom")
}

func TestOptions(t *testing.T) {
	t.Parallel()

	o := defaultOptions()
	for _, opt := range []Option{WithPoolSize(20), WithMinIdleConns(0), WithRetry(5, time.Second), WithTimeout(time.Second), WithPoolSize(-1)} {
		opt(o)
	}

	assert.Equal(t, 20, o.poolSize)
	assert.Equal(t, 0, o.minIdleConns)
	assert.Equal(t, 5, o.retryAttempts)
	assert.Equal(t, time.Second, o.retryInterval)
	assert.Equal(t, time.Second, o.timeout)
}
