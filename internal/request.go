package internal

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

// capture receives the outcome of a request run through Dispatch.
type capture struct {
	resp *Response
	err  error
	done bool
}

type captureKey struct{}

func captureFrom(ctx context.Context) *capture {
	cp, _ := ctx.Value(captureKey{}).(*capture)
	return cp
}

// newContext binds a fresh registry to r. w may be nil.
func (a *App) newContext(w http.ResponseWriter, r *http.Request) *requestContext {
	reg := &Registry{
		RG: &RequestGlobals{
			Ident:   uuid.NewString(),
			URLArgs: Args{},
			hooks:   injectedHooks(r.Context()),
		},
		AG:       a.ag,
		Settings: a.settings,
		User:     NewUser(),
	}
	r = r.WithContext(withRegistry(r.Context(), reg))
	reg.RG.Request = r

	c := &requestContext{request: r, app: a, reg: reg}
	if w != nil {
		c.response = NewResponseWriter(w)
	}
	return c
}

// ServeHTTP implements http.Handler. Errors that escape the exception
// policies are re-panicked.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Dispatch runs r through the App and returns the response instead of
// writing it. Errors that escape the exception policies are returned.
func (a *App) Dispatch(r *http.Request) (*Response, error) {
	cp := &capture{}
	r = r.WithContext(context.WithValue(r.Context(), captureKey{}, cp))
	a.router.ServeHTTP(&discardWriter{header: make(http.Header)}, r)
	return cp.resp, cp.err
}

// InRequest runs fn inside a full request context: session, user and the
// request hooks, without routing or dispatch.
func (a *App) InRequest(r *http.Request, fn func(c Context) error) error {
	c := a.newContext(nil, r)
	return a.inRequest(c, func() error { return fn(c) })
}

// routeHandler adapts match and the request lifecycle, wrapped in the App
// middleware, to net/http.
func (a *App) routeHandler(match matchFunc) http.HandlerFunc {
	h := a.lifecycle(match)
	for i := len(a.middlewares) - 1; i >= 0; i-- {
		h = a.middlewares[i](h)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		c := a.newContext(w, r)
		err := h(c)
		if err == nil {
			return
		}
		resp, err := a.handleEscaped(c, err)
		if cp := captureFrom(r.Context()); cp != nil {
			cp.resp, cp.err, cp.done = resp, err, true
			return
		}
		if err != nil {
			panic(err)
		}
		if !c.Written() {
			resp.Serve(c.Response(), c.Request())
		}
	}
}

// lifecycle is the innermost handler: request manager, routing result,
// response cycle and exception translation.
func (a *App) lifecycle(match matchFunc) HandlerFunc {
	return func(c Context) error {
		resp, err := a.handleRequest(c, match)
		if err != nil {
			return err
		}
		a.finalize(c, resp)
		if cp := captureFrom(c); cp != nil {
			cp.resp, cp.done = resp, true
			return nil
		}
		if w := c.Response(); w != nil && !c.Written() {
			resp.Serve(w, c.Request())
		}
		return nil
	}
}

func (a *App) handleRequest(c Context, match matchFunc) (*Response, error) {
	var resp *Response
	err := a.inRequest(c, func() error {
		a.events.Send(c, EventRequestStarted, nil)

		var err error
		resp, err = a.translate(c, func() (*Response, error) {
			endpoint, args, err := match(c)
			if err != nil {
				a.logger.DebugContext(c, "routing HTTP exception",
					slog.String("path", c.Request().URL.Path),
					slog.Any("error", err),
				)
				return nil, err
			}
			c.Registry().RG.URLArgs = args
			return a.responseCycle(c, endpoint, args, 0)
		})
		if err != nil {
			return err
		}

		a.events.Send(c, EventRequestEnded, EventData{"response": resp})
		return nil
	})
	return resp, err
}

// inRequest enters the request (session, user, setup hooks), runs fn and
// always leaves it through the teardown hooks.
func (a *App) inRequest(c Context, fn func() error) error {
	defer a.exitRequest(c)
	if err := a.enterRequest(c); err != nil {
		return err
	}
	return fn()
}

func (a *App) enterRequest(c Context) error {
	reg := c.Registry()
	if a.sessions != nil {
		sess, err := a.sessions.Load(c, c.Request())
		if err != nil {
			return err
		}
		reg.RG.Session = sess
		reg.RG.sessionToken = sess.Token
		if sess.IsNew() {
			reg.RG.sessionToken = ""
		}
		if raw, ok := sess.Get(sessionUserKey); ok {
			if s, ok := raw.(string); ok {
				u, err := unmarshalUser(s)
				if err != nil {
					a.logger.WarnContext(c, "discarding unreadable session user", slog.Any("error", err))
				} else {
					reg.User = u
					reg.RG.userSnapshot = s
				}
			}
		}
	}

	if err := runHooks(c, a.hooks.RequestSetup); err != nil {
		return err
	}
	return runHooks(c, reg.RG.hooks.RequestSetup)
}

func (a *App) exitRequest(c Context) {
	if err := runHooks(c, a.hooks.RequestTeardown); err != nil {
		a.logger.ErrorContext(c, "request teardown failed", slog.Any("error", err))
	}
	if err := runHooks(c, c.Registry().RG.hooks.RequestTeardown); err != nil {
		a.logger.ErrorContext(c, "request teardown failed", slog.Any("error", err))
	}
}

// saveSession stores the user in the session and persists it.
func (a *App) saveSession(c Context) {
	rg := c.Registry().RG
	sess := rg.Session
	if a.sessions == nil || sess == nil {
		return
	}

	if s, err := c.User().marshal(); err != nil {
		a.logger.ErrorContext(c, "serialize session user", slog.Any("error", err))
	} else if s != rg.userSnapshot {
		sess.Set(sessionUserKey, s)
		rg.userSnapshot = s
	}

	if err := a.sessions.Save(c, sess); err != nil {
		a.logger.ErrorContext(c, "save session", slog.Any("error", err))
		return
	}
	if sess.Token != rg.sessionToken {
		rg.sessionToken = sess.Token
		rg.sendCookie = true
	}
}

// finalize adds the session cookie to the outgoing response.
func (a *App) finalize(c Context, resp *Response) {
	rg := c.Registry().RG
	if !rg.sendCookie || rg.Session == nil {
		return
	}
	if resp.Header == nil {
		resp.Header = make(http.Header)
	}
	resp.Header.Add("Set-Cookie", a.sessions.Cookie(rg.Session).String())
}

// handleEscaped turns an error that left the middleware chain into a
// response. Errors raised outside the response cycle, by middleware or the
// request setup hooks, are translated like view errors: redirects are
// served, HTTP errors go through the error docs and the rest through the
// exception policies. Errors the policies already let through are returned
// unchanged.
func (a *App) handleEscaped(c Context, err error) (*Response, error) {
	if ee := asEscaped(err); ee != nil {
		return nil, ee.err
	}
	resp, err := a.translate(c, func() (*Response, error) { return nil, err })
	if ee := asEscaped(err); ee != nil {
		return nil, ee.err
	}
	return resp, err
}

// discardWriter is the writer Dispatch hands to the router.
type discardWriter struct {
	header http.Header
}

func (d *discardWriter) Header() http.Header         { return d.header }
func (d *discardWriter) Write(b []byte) (int, error) { return len(b), nil }
func (d *discardWriter) WriteHeader(int)             {}
