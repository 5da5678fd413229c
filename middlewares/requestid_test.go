package middlewares_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/blazeweb/internal"
	"github.com/dmitrymomot/blazeweb/middlewares"
)

func identApp(t *testing.T, opts ...middlewares.RequestIDOption) *internal.App {
	t.Helper()

	return newApp(t,
		internal.WithMiddleware(middlewares.RequestID(opts...)),
		internal.WithView("ident", internal.ViewFunc(func(c internal.Context, args internal.Args) (any, error) {
			return middlewares.GetRequestID(c), nil
		})),
		internal.WithRoutes(internal.Rule("/", "ident")),
	)
}

func serve(app *internal.App, req *http.Request) (*httptest.ResponseRecorder, string) {
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	body, _ := io.ReadAll(rec.Result().Body)
	return rec, string(body)
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	t.Run("generates new request ID when not present", func(t *testing.T) {
		t.Parallel()

		rec, body := serve(identApp(t), httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotEmpty(t, body)
		require.Equal(t, body, rec.Header().Get("X-Request-ID"))
	})

	t.Run("uses existing request ID from header", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "existing-request-id-123")

		rec, body := serve(identApp(t), req)
		require.Equal(t, "existing-request-id-123", body)
		require.Equal(t, "existing-request-id-123", rec.Header().Get("X-Request-ID"))
	})

	t.Run("checks headers in order", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Correlation-ID", "correlation")
		_, body := serve(identApp(t), req)
		require.Equal(t, "correlation", body)

		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Correlation-ID", "correlation")
		req.Header.Set("X-Request-ID", "request")
		_, body = serve(identApp(t), req)
		require.Equal(t, "request", body)
	})

	t.Run("custom headers and generator", func(t *testing.T) {
		t.Parallel()

		app := identApp(t,
			middlewares.WithRequestIDHeaders("X-Trace"),
			middlewares.WithRequestIDGenerator(func() string { return "generated" }),
			middlewares.WithRequestIDResponseHeader("X-Trace"),
		)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "ignored")
		rec, body := serve(app, req)
		require.Equal(t, "generated", body)
		require.Equal(t, "generated", rec.Header().Get("X-Trace"))
		require.Empty(t, rec.Header().Get("X-Request-ID"))
	})

	t.Run("empty response header disables echo", func(t *testing.T) {
		t.Parallel()

		rec, body := serve(identApp(t, middlewares.WithRequestIDResponseHeader("")), httptest.NewRequest(http.MethodGet, "/", nil))
		require.NotEmpty(t, body)
		require.Empty(t, rec.Header().Get("X-Request-ID"))
	})
}
