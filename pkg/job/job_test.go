package job

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type report struct {
	Summary string `json:"summary"`
}

func TestNew_NilPool(t *testing.T) {
	t.Parallel()

	_, err := New(nil)
	require.ErrorIs(t, err, ErrPoolRequired)
}

func TestWithTask_DecodesPayload(t *testing.T) {
	t.Parallel()

	var got report
	cfg := newConfig()
	WithTask("mail", func(_ context.Context, r report) error {
		got = r
		return nil
	})(cfg)

	run, ok := cfg.registry.get("mail")
	require.True(t, ok)
	require.NoError(t, run(context.Background(), json.RawMessage(`{"summary":"boom"}`)))
	assert.Equal(t, "boom", got.Summary)

	err := run(context.Background(), json.RawMessage(`{bad`))
	require.ErrorIs(t, err, ErrInvalidPayload)

	require.NoError(t, run(context.Background(), nil), "empty payload yields zero value")
}

func TestWithSchedule_RegistersTask(t *testing.T) {
	t.Parallel()

	called := false
	cfg := newConfig()
	WithSchedule("purge", "@hourly", func(context.Context) error {
		called = true
		return errors.New("purge failed")
	})(cfg)

	require.Len(t, cfg.schedules, 1)
	assert.Equal(t, "@hourly", cfg.schedules[0].expr)

	run, ok := cfg.registry.get("purge")
	require.True(t, ok)
	require.EqualError(t, run(context.Background(), nil), "purge failed")
	assert.True(t, called)
	assert.Equal(t, []string{"purge"}, cfg.registry.names())
}

func TestParseSchedule(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)

	tests := map[string]time.Time{
		"0 * * * *":    time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC),
		"@hourly":      time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC),
		"@daily":       time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		"@every 10m":   base.Add(10 * time.Minute),
		"*/15 * * * *": time.Date(2024, 1, 1, 10, 45, 0, 0, time.UTC),
	}
	for expr, want := range tests {
		s, err := parseSchedule(expr)
		require.NoError(t, err, expr)
		assert.Equal(t, want, s.Next(base), expr)
	}

	_, err := parseSchedule("not a cron")
	require.ErrorIs(t, err, ErrInvalidSchedule)
}

func TestNewTaskArgs(t *testing.T) {
	t.Parallel()

	args, err := newTaskArgs("mail", report{Summary: "x"})
	require.NoError(t, err)
	assert.Equal(t, "blazeweb:task", args.Kind())
	assert.JSONEq(t, `{"summary":"x"}`, string(args.Payload))

	args, err = newTaskArgs("purge", nil)
	require.NoError(t, err)
	assert.Nil(t, args.Payload)

	_, err = newTaskArgs("bad", make(chan int))
	require.Error(t, err)
}

func TestOptions(t *testing.T) {
	t.Parallel()

	cfg := newConfig()
	WithMaxWorkers(0)(cfg)
	assert.Equal(t, 10, cfg.maxWorkers)
	WithMaxWorkers(3)(cfg)
	assert.Equal(t, 3, cfg.maxWorkers)

	WithLogger(nil)(cfg)
	assert.Nil(t, cfg.logger)
}
