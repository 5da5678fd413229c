package internal_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/blazeweb/internal"
	"github.com/dmitrymomot/blazeweb/pkg/mailer"
	"github.com/dmitrymomot/blazeweb/pkg/settings"
)

func failingView(err error) internal.ViewFactory {
	return internal.ViewFunc(func(c internal.Context, args internal.Args) (any, error) {
		return nil, err
	})
}

func errorDocs(docs map[string]any) internal.Option {
	s := settings.New()
	s.Set("error_docs", docs)
	return internal.WithSettings(s)
}

func TestErrorDocs(t *testing.T) {
	t.Parallel()

	var calledFrom string
	var code int
	app := newTestApp(t,
		errorDocs(map[string]any{"404": "not_found", "403": "broken_doc", "410": "redirect_doc"}),
		internal.WithView("not_found", internal.ViewFunc(func(c internal.Context, args internal.Args) (any, error) {
			calledFrom = c.CalledFrom()
			code = c.RespCtx().ErrorDocCode
			return "custom 404 page", nil
		})),
		internal.WithView("broken_doc", failingView(internal.ErrInternal("doc failed"))),
		internal.WithView("redirect_doc", failingView(internal.Redirect(0, "/elsewhere"))),
		internal.WithView("missing", failingView(internal.ErrNotFound(""))),
		internal.WithView("forbidden", failingView(internal.ErrForbidden("no entry"))),
		internal.WithView("gone", failingView(internal.NewHTTPError(http.StatusGone, ""))),
		internal.WithRoutes(
			internal.Rule("/missing", "missing"),
			internal.Rule("/forbidden", "forbidden"),
			internal.Rule("/gone", "gone"),
		),
	)

	t.Run("error doc renders with the error status", func(t *testing.T) {
		resp, err := get(t, app, "/missing")
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.Status)
		assert.Equal(t, "custom 404 page", resp.Text())
		assert.Equal(t, internal.CalledFromErrorDocs, calledFrom)
		assert.Equal(t, http.StatusNotFound, code)
	})

	t.Run("routing errors use error docs", func(t *testing.T) {
		resp, err := get(t, app, "/no/such/page")
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.Status)
		assert.Equal(t, "custom 404 page", resp.Text())
	})

	t.Run("failing doc falls back to the original page", func(t *testing.T) {
		resp, err := get(t, app, "/forbidden")
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.Status)
		assert.Contains(t, resp.Text(), "no entry")
	})

	t.Run("doc may redirect", func(t *testing.T) {
		resp, err := get(t, app, "/gone")
		require.NoError(t, err)
		assert.Equal(t, http.StatusFound, resp.Status)
		assert.Equal(t, "/elsewhere", resp.Header.Get("Location"))
	})
}

func TestErrorDocs_ViewSetsStatus(t *testing.T) {
	t.Parallel()

	app := newTestApp(t,
		errorDocs(map[string]any{"404": "soft"}),
		internal.WithView("soft", internal.ViewFunc(func(c internal.Context, args internal.Args) (any, error) {
			return internal.NewResponse(http.StatusOK, "soft landing", "text/plain"), nil
		})),
	)

	resp, err := get(t, app, "/anything")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "soft landing", resp.Text())
}

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()

	app := newTestApp(t,
		internal.WithView("index", textView("ok")),
		internal.WithRoutes(internal.Rule("/", "index", http.MethodGet)),
	)

	resp, err := app.Dispatch(httptest.NewRequest(http.MethodPost, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.Status)
}

func TestExceptionPolicies(t *testing.T) {
	t.Parallel()

	boom := errors.New("database exploded")

	t.Run("no policy escapes", func(t *testing.T) {
		t.Parallel()

		app := newPolicyApp(t, []any{},
			internal.WithView("boom", failingView(boom)),
			internal.WithRoutes(internal.Rule("/", "boom")),
		)
		_, err := get(t, app, "/")
		require.ErrorIs(t, err, boom)
	})

	t.Run("no policy panics from ServeHTTP", func(t *testing.T) {
		t.Parallel()

		app := newPolicyApp(t, []any{},
			internal.WithView("boom", failingView(boom)),
			internal.WithRoutes(internal.Rule("/", "boom")),
		)
		assert.Panics(t, func() {
			app.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		})
	})

	t.Run("email alone lets the error escape", func(t *testing.T) {
		t.Parallel()

		app := newPolicyApp(t, []any{settings.PolicyEmail},
			internal.WithView("boom", failingView(boom)),
			internal.WithRoutes(internal.Rule("/", "boom")),
		)
		resp, err := get(t, app, "/")
		require.Equal(t, boom, err)
		assert.Nil(t, resp)

		assert.PanicsWithValue(t, boom, func() {
			app.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		})
	})

	t.Run("handle without error doc", func(t *testing.T) {
		t.Parallel()

		app := newPolicyApp(t, []any{settings.PolicyHandle},
			internal.WithView("boom", failingView(boom)),
			internal.WithRoutes(internal.Rule("/", "boom")),
		)
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "database exploded")
	})

	t.Run("handle with error doc", func(t *testing.T) {
		t.Parallel()

		app := newPolicyApp(t, []any{settings.PolicyHandle},
			errorDocs(map[string]any{"500": "oops"}),
			internal.WithView("oops", internal.ViewFunc(func(c internal.Context, args internal.Args) (any, error) {
				return "sorry, " + c.CalledFrom(), nil
			})),
			internal.WithView("boom", failingView(boom)),
			internal.WithRoutes(internal.Rule("/", "boom")),
		)
		resp, err := get(t, app, "/")
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.Status)
		assert.Equal(t, "sorry, error docs", resp.Text())
	})

	t.Run("handle with failing error doc", func(t *testing.T) {
		t.Parallel()

		app := newPolicyApp(t, []any{settings.PolicyHandle},
			errorDocs(map[string]any{"500": "oops"}),
			internal.WithView("oops", failingView(errors.New("doc broke too"))),
			internal.WithView("boom", failingView(boom)),
			internal.WithRoutes(internal.Rule("/", "boom")),
		)
		resp, err := get(t, app, "/")
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.Status)
		assert.Contains(t, resp.Text(), "Internal Server Error")
	})

	t.Run("format shows the report", func(t *testing.T) {
		t.Parallel()

		app := newPolicyApp(t, []any{settings.PolicyFormat, settings.PolicyHandle},
			internal.WithView("boom", failingView(boom)),
			internal.WithRoutes(internal.Rule("/", "boom")),
		)
		req := httptest.NewRequest(http.MethodPost, "/?q=1", strings.NewReader(url.Values{"field": {"<v>"}}.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Authorization", "Bearer secret-token")
		require.NoError(t, req.ParseForm())

		resp, err := app.Dispatch(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.Status)

		body := resp.Text()
		assert.Contains(t, body, "<pre>database exploded")
		assert.Contains(t, body, "== TRACE ==")
		assert.Contains(t, body, "*errors.errorString: database exploded")
		assert.Contains(t, body, "REQUEST_METHOD: POST")
		assert.Contains(t, body, "QUERY_STRING: q=1")
		assert.Contains(t, body, "HTTP_AUTHORIZATION: [redacted]")
		assert.NotContains(t, body, "secret-token")
		assert.Contains(t, body, "field: &lt;v&gt;")
	})

	t.Run("panics are handled", func(t *testing.T) {
		t.Parallel()

		app := newPolicyApp(t, []any{settings.PolicyFormat},
			internal.WithView("boom", internal.ViewFunc(func(c internal.Context, args internal.Args) (any, error) {
				panic("view panicked")
			})),
			internal.WithRoutes(internal.Rule("/", "boom")),
		)
		resp, err := get(t, app, "/")
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.Status)
		assert.Contains(t, resp.Text(), "view panicked")
		assert.Contains(t, resp.Text(), "goroutine")
	})
}

func TestExceptionPolicies_Email(t *testing.T) {
	t.Parallel()

	var (
		mu   sync.Mutex
		sent []*mailer.Email
	)
	sender := mailer.SenderFunc(func(_ context.Context, e *mailer.Email) error {
		mu.Lock()
		defer mu.Unlock()
		sent = append(sent, e)
		return nil
	})

	s := settings.New()
	s.Set("is_live", true)
	s.Set("emails.programmers", []any{"dev@example.com"})

	app := newPolicyApp(t, []any{settings.PolicyEmail, settings.PolicyHandle},
		internal.WithSettings(s),
		internal.WithMailSender(sender),
		internal.WithView("boom", failingView(errors.New("disk full"))),
		internal.WithRoutes(internal.Rule("/", "boom")),
	)
	require.NotNil(t, app.Mailer())

	resp, err := get(t, app, "/fail")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.Status, "routing errors are not mailed")

	resp, err = get(t, app, "/")
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.Status)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"dev@example.com"}, sent[0].To)
	assert.Equal(t, "[blazeweb] exception encountered", sent[0].Subject)
	assert.Contains(t, sent[0].Text, "GET /")
}

func TestExceptionPolicies_EmailFailureIsLogged(t *testing.T) {
	t.Parallel()

	sender := mailer.SenderFunc(func(context.Context, *mailer.Email) error {
		return errors.New("smtp down")
	})
	s := settings.New()
	s.Set("is_live", true)
	s.Set("emails.programmers", []any{"dev@example.com"})

	app := newPolicyApp(t, []any{settings.PolicyEmail, settings.PolicyHandle},
		internal.WithSettings(s),
		internal.WithMailSender(sender),
		internal.WithView("boom", failingView(errors.New("disk full"))),
		internal.WithRoutes(internal.Rule("/", "boom")),
	)

	resp, err := get(t, app, "/")
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.Status)
}

func TestExceptionPolicies_OutsideResponseCycle(t *testing.T) {
	t.Parallel()

	unknownTenant := errors.New("tenant unknown")
	failSetup := internal.WithRequestSetup(func(c internal.Context) error {
		if c.Request().URL.Path == "/tenant" {
			return unknownTenant
		}
		return nil
	})
	guard := internal.WithMiddleware(func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			if c.Request().URL.Path == "/admin" {
				return internal.ErrForbidden("")
			}
			return next(c)
		}
	})
	routes := internal.WithRoutes(
		internal.Rule("/tenant", "index"),
		internal.Rule("/admin", "index"),
	)

	t.Run("setup hook error renders the 500 error doc", func(t *testing.T) {
		t.Parallel()

		app := newPolicyApp(t, []any{settings.PolicyHandle},
			errorDocs(map[string]any{"500": "oops"}),
			internal.WithView("oops", textView("custom 500")),
			internal.WithView("index", textView("ok")),
			failSetup, routes,
		)
		resp, err := get(t, app, "/tenant")
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.Status)
		assert.Equal(t, "custom 500", resp.Text())
	})

	t.Run("setup hook error is formatted", func(t *testing.T) {
		t.Parallel()

		app := newPolicyApp(t, []any{settings.PolicyFormat},
			internal.WithView("index", textView("ok")),
			failSetup, routes,
		)
		rec := httptest.NewRecorder()
		app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tenant", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "<pre>tenant unknown")
	})

	t.Run("setup hook error escapes without an applying policy", func(t *testing.T) {
		t.Parallel()

		app := newPolicyApp(t, []any{settings.PolicyEmail},
			internal.WithView("index", textView("ok")),
			failSetup, routes,
		)
		_, err := get(t, app, "/tenant")
		require.Equal(t, unknownTenant, err)
	})

	t.Run("middleware HTTP error goes through the error doc", func(t *testing.T) {
		t.Parallel()

		app := newPolicyApp(t, []any{settings.PolicyHandle},
			errorDocs(map[string]any{"403": "denied"}),
			internal.WithView("denied", textView("custom 403")),
			internal.WithView("index", textView("ok")),
			guard, routes,
		)
		resp, err := get(t, app, "/admin")
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.Status)
		assert.Equal(t, "custom 403", resp.Text())
	})
}
