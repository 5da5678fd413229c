package middlewares

import (
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/dmitrymomot/blazeweb/internal"
	"github.com/dmitrymomot/blazeweb/pkg/settings"
)

// RequestLoggerConfig configures the request logger middleware.
// Empty filters match every request.
type RequestLoggerConfig struct {
	Paths   []*regexp.Regexp // Log only paths matching one of these
	Methods []string         // Log only these methods
}

// RequestLoggerOption configures RequestLoggerConfig.
type RequestLoggerOption func(*RequestLoggerConfig)

// WithRequestLoggerPaths restricts logging to paths matching one of the patterns.
// Patterns are compiled with regexp.MustCompile.
func WithRequestLoggerPaths(patterns ...string) RequestLoggerOption {
	return func(cfg *RequestLoggerConfig) {
		for _, p := range patterns {
			cfg.Paths = append(cfg.Paths, regexp.MustCompile(p))
		}
	}
}

// WithRequestLoggerMethods restricts logging to the given methods.
func WithRequestLoggerMethods(methods ...string) RequestLoggerOption {
	return func(cfg *RequestLoggerConfig) {
		for _, m := range methods {
			cfg.Methods = append(cfg.Methods, strings.ToUpper(m))
		}
	}
}

// RequestLoggerFromSettings reads the filters under "logs.http_requests.filters".
func RequestLoggerFromSettings(s *settings.Settings) []RequestLoggerOption {
	var opts []RequestLoggerOption
	if paths := s.Strings("logs.http_requests.filters.path_info"); len(paths) > 0 {
		opts = append(opts, WithRequestLoggerPaths(paths...))
	}
	if methods := s.Strings("logs.http_requests.filters.request_method"); len(methods) > 0 {
		opts = append(opts, WithRequestLoggerMethods(methods...))
	}
	return opts
}

// RequestLogger returns middleware that logs one record per request after
// the response is produced. Server errors are logged at error level.
func RequestLogger(opts ...RequestLoggerOption) internal.Middleware {
	cfg := &RequestLoggerConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			r := c.Request()
			if !cfg.match(r.Method, r.URL.Path) {
				return next(c)
			}

			start := time.Now()
			err := next(c)

			status, size := 0, int64(0)
			if w := c.ResponseWriter(); w != nil {
				status, size = w.Status(), w.Size()
			}
			if err != nil {
				status = 500
				if he := internal.AsHTTPError(err); he != nil {
					status = he.Code
				}
			}

			level := slog.LevelInfo
			if status >= 500 {
				level = slog.LevelError
			}
			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr),
				slog.Int("status", status),
				slog.Int64("size", size),
				slog.Duration("duration", time.Since(start)),
			}
			if err != nil {
				attrs = append(attrs, slog.Any("error", err))
			}
			c.Logger().LogAttrs(c, level, "http request", attrs...)

			return err
		}
	}
}

func (cfg *RequestLoggerConfig) match(method, path string) bool {
	if len(cfg.Methods) > 0 && !slices.Contains(cfg.Methods, method) {
		return false
	}
	if len(cfg.Paths) == 0 {
		return true
	}
	for _, re := range cfg.Paths {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}
