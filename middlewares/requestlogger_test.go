package middlewares_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/blazeweb/internal"
	"github.com/dmitrymomot/blazeweb/middlewares"
	"github.com/dmitrymomot/blazeweb/pkg/settings"
)

func loggedApp(t *testing.T, buf *bytes.Buffer, opts ...middlewares.RequestLoggerOption) *internal.App {
	t.Helper()

	return newApp(t,
		internal.WithLogger(slog.New(slog.NewJSONHandler(buf, nil))),
		internal.WithMiddleware(middlewares.RequestLogger(opts...)),
		internal.WithView("index", internal.ViewFunc(func(c internal.Context, args internal.Args) (any, error) {
			return "hello", nil
		})),
		internal.WithView("missing", internal.ViewFunc(func(c internal.Context, args internal.Args) (any, error) {
			return nil, internal.ErrNotFound("")
		})),
		internal.WithRoutes(
			internal.Rule("/", "index"),
			internal.Rule("/api/items", "index"),
			internal.Rule("/gone", "missing"),
		),
	)
}

func records(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		if rec["msg"] == "http request" {
			out = append(out, rec)
		}
	}
	return out
}

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	t.Run("logs every request without filters", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		app := loggedApp(t, &buf)
		app.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		app.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/gone", nil))

		recs := records(t, &buf)
		require.Len(t, recs, 2)
		assert.Equal(t, "GET", recs[0]["method"])
		assert.Equal(t, "/", recs[0]["path"])
		assert.EqualValues(t, 200, recs[0]["status"])
		assert.EqualValues(t, 5, recs[0]["size"])
		assert.Equal(t, "INFO", recs[0]["level"])
		assert.EqualValues(t, 404, recs[1]["status"])
	})

	t.Run("path filter", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		app := loggedApp(t, &buf, middlewares.WithRequestLoggerPaths(`^/api/`))
		app.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		app.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/items", nil))

		recs := records(t, &buf)
		require.Len(t, recs, 1)
		assert.Equal(t, "/api/items", recs[0]["path"])
	})

	t.Run("method filter", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		app := loggedApp(t, &buf, middlewares.WithRequestLoggerMethods("post"))
		app.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		app.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))

		recs := records(t, &buf)
		require.Len(t, recs, 1)
		assert.Equal(t, "POST", recs[0]["method"])
	})
}

func TestRequestLoggerFromSettings(t *testing.T) {
	t.Parallel()

	s := settings.Defaults()
	require.Empty(t, middlewares.RequestLoggerFromSettings(s))

	s.Set("logs.http_requests.filters.path_info", []any{"^/admin"})
	s.Set("logs.http_requests.filters.request_method", []any{"GET", "HEAD"})

	cfg := &middlewares.RequestLoggerConfig{}
	for _, opt := range middlewares.RequestLoggerFromSettings(s) {
		opt(cfg)
	}
	require.Len(t, cfg.Paths, 1)
	assert.True(t, cfg.Paths[0].MatchString("/admin/users"))
	assert.Equal(t, []string{"GET", "HEAD"}, cfg.Methods)
}
