package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/blazeweb/pkg/settings"
)

type identKey struct{}

func identExtractor(ctx context.Context) (slog.Attr, bool) {
	if v, ok := ctx.Value(identKey{}).(string); ok {
		return slog.String("ident", v), true
	}
	return slog.Attr{}, false
}

func TestNew_ExtractorsAddAttributes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log, closer, err := New(Config{Enabled: true, Level: slog.LevelInfo, Output: &buf}, identExtractor, nil)
	require.NoError(t, err)
	defer closer.Close()

	ctx := context.WithValue(context.Background(), identKey{}, "abc")
	log.InfoContext(ctx, "hello")
	log.Info("no ident")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first, second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "abc", first["ident"])
	assert.NotContains(t, second, "ident")
}

func TestNew_Disabled(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log, closer, err := New(Config{Enabled: false, Output: &buf})
	require.NoError(t, err)
	require.NoError(t, closer.Close())

	log.Error("dropped")
	assert.Empty(t, buf.String())
}

func TestNew_FileOutputs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var stdout bytes.Buffer
	cfg := Config{
		Enabled:         true,
		Level:           slog.LevelDebug,
		Format:          "text",
		Output:          &stdout,
		ErrorsPath:      filepath.Join(dir, "logs", "errors.log"),
		ApplicationPath: filepath.Join(dir, "logs", "application.log"),
	}
	log, closer, err := New(cfg)
	require.NoError(t, err)

	log.Info("info record")
	log.Log(context.Background(), LevelApplication, "app record")
	log.Warn("warn record")
	require.NoError(t, closer.Close())

	errorsLog, err := os.ReadFile(cfg.ErrorsPath)
	require.NoError(t, err)
	assert.Contains(t, string(errorsLog), "warn record")
	assert.NotContains(t, string(errorsLog), "info record")
	assert.NotContains(t, string(errorsLog), "app record")

	appLog, err := os.ReadFile(cfg.ApplicationPath)
	require.NoError(t, err)
	assert.Contains(t, string(appLog), "app record")
	assert.Contains(t, string(appLog), "level=APPLICATION")
	assert.NotContains(t, string(appLog), "warn record")

	assert.Contains(t, stdout.String(), "info record")
	assert.Contains(t, stdout.String(), "warn record")
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug":       slog.LevelDebug,
		"INFO":        slog.LevelInfo,
		"warn":        slog.LevelWarn,
		"error":       slog.LevelError,
		"application": LevelApplication,
		"bogus":       slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestFromSettings(t *testing.T) {
	t.Parallel()

	s := settings.Defaults()
	s.Set("logs.level", "debug")
	s.Set("logs.errors.enabled", true)
	s.Set("logs.errors.path", "/tmp/e.log")

	cfg := FromSettings(s)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, slog.LevelDebug, cfg.Level)
	assert.Equal(t, "/tmp/e.log", cfg.ErrorsPath)
	assert.Empty(t, cfg.ApplicationPath)
	assert.Empty(t, cfg.Sentry.DSN)
}
