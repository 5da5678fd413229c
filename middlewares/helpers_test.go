package middlewares_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/blazeweb/internal"
)

func newApp(t *testing.T, opts ...internal.Option) *internal.App {
	t.Helper()

	app, err := internal.New(append([]internal.Option{internal.WithTestSettings()}, opts...)...)
	require.NoError(t, err)
	return app
}

// runMiddleware runs h wrapped in mw inside a request context of a fresh app.
func runMiddleware(t *testing.T, req *http.Request, mw internal.Middleware, h internal.HandlerFunc) error {
	t.Helper()

	return newApp(t).InRequest(req, func(c internal.Context) error {
		return mw(h)(c)
	})
}
