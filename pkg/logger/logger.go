package logger

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrymomot/blazeweb/pkg/settings"
)

// LevelApplication is the level for application events, between Info and Warn.
const LevelApplication = slog.Level(2)

// Config describes the logging outputs.
type Config struct {
	Enabled bool
	Level   slog.Level
	// Format is "json" or "text".
	Format string
	// Output defaults to os.Stdout.
	Output io.Writer
	// ErrorsPath receives warnings and errors when not empty.
	ErrorsPath string
	// ApplicationPath receives LevelApplication records when not empty.
	ApplicationPath string
	Sentry          SentryConfig
}

// FromSettings reads the "logs.*" settings.
func FromSettings(s *settings.Settings) Config {
	cfg := Config{
		Enabled: s.Bool("logs.enabled", true),
		Level:   ParseLevel(s.String("logs.level", "info")),
		Format:  s.String("logs.format", "json"),
	}
	if s.Bool("logs.errors.enabled", false) {
		cfg.ErrorsPath = s.String("logs.errors.path", "logs/errors.log")
	}
	if s.Bool("logs.application.enabled", false) {
		cfg.ApplicationPath = s.String("logs.application.path", "logs/application.log")
	}
	if s.Bool("logs.sentry.enabled", false) {
		cfg.Sentry = SentryConfig{
			DSN:         s.String("logs.sentry.dsn", ""),
			Environment: s.String("logs.sentry.environment", "production"),
			MinLevel:    ParseLevel(s.String("logs.sentry.level", "warn")),
		}
	}
	return cfg
}

// ParseLevel parses "debug", "info", "application", "warn" or "error".
// Unknown values fall back to info.
func ParseLevel(v string) slog.Level {
	if strings.EqualFold(v, "application") {
		return LevelApplication
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(v)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// New builds a logger for cfg. The returned closer releases log files and
// must be called on shutdown.
func New(cfg Config, extractors ...ContextExtractor) (*slog.Logger, io.Closer, error) {
	if !cfg.Enabled {
		return NewNope(), nopCloser{}, nil
	}

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	handlers := fanout{newHandler(out, cfg.Format, cfg.Level)}

	var opened files
	if cfg.ErrorsPath != "" {
		f, err := openLogFile(cfg.ErrorsPath)
		if err != nil {
			return nil, nil, err
		}
		opened = append(opened, f)
		handlers = append(handlers, newHandler(f, cfg.Format, slog.LevelWarn))
	}
	if cfg.ApplicationPath != "" {
		f, err := openLogFile(cfg.ApplicationPath)
		if err != nil {
			_ = opened.Close()
			return nil, nil, err
		}
		opened = append(opened, f)
		handlers = append(handlers, exactLevel{Handler: newHandler(f, cfg.Format, LevelApplication), level: LevelApplication})
	}
	if cfg.Sentry.DSN != "" {
		h, err := newSentryHandler(cfg.Sentry)
		if err != nil {
			slog.New(handlers).Error("failed to initialize sentry", slog.String("error", err.Error()))
		} else {
			handlers = append(handlers, h)
		}
	}

	var h slog.Handler = handlers
	if len(handlers) == 1 {
		h = handlers[0]
	}
	return slog.New(Decorate(h, extractors...)), opened, nil
}

// NewNope returns a logger that discards all output.
func NewNope() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level, ReplaceAttr: replaceLevel}
	if strings.EqualFold(format, "text") {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// replaceLevel prints LevelApplication as "APPLICATION" instead of "INFO+2".
func replaceLevel(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelApplication {
		a.Value = slog.StringValue("APPLICATION")
	}
	return a
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

type files []*os.File

func (fs files) Close() error {
	var errs []error
	for _, f := range fs {
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
