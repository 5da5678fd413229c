package internal

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/blazeweb/pkg/session"
	"github.com/dmitrymomot/blazeweb/pkg/settings"
)

// Values reported by Context.CalledFrom.
const (
	CalledFromClient    = "client"
	CalledFromForward   = "forward"
	CalledFromErrorDocs = "error docs"
)

// Context provides request access and the lifecycle helpers views use.
// It also implements context.Context by delegating to the underlying request context.
type Context interface {
	context.Context

	// Request returns the underlying *http.Request.
	Request() *http.Request

	// Response returns the underlying http.ResponseWriter.
	// Returns nil outside of ServeHTTP (InRequest, Dispatch).
	Response() http.ResponseWriter

	// ResponseWriter returns the wrapped writer, nil when there is none.
	ResponseWriter() *ResponseWriter

	// Registry returns the request registry.
	Registry() *Registry

	// App returns the application serving the request.
	App() *App

	// Ident returns the unique identifier of the request.
	Ident() string

	// Settings returns the application settings.
	Settings() *settings.Settings

	// User returns the session user. Never nil.
	User() *User

	// Session returns the request session, nil when sessions are disabled.
	Session() *session.Session

	// Endpoint returns the endpoint being dispatched.
	Endpoint() string

	// URLArgs returns the arguments matched by the router.
	URLArgs() Args

	// RespCtx returns the current response context, nil outside a response cycle.
	RespCtx() *ResponseContext

	// CalledFrom reports how the current view was reached: CalledFromClient,
	// CalledFromForward or CalledFromErrorDocs.
	CalledFrom() string

	// Param returns the URL argument by name as a string.
	Param(name string) string

	// Query returns the query parameter value by name.
	Query(name string) string

	// Form returns the form value by name.
	Form(name string) string

	// Header returns the request header value by name.
	Header(name string) string

	// SetHeader sets a header on the current response.
	SetHeader(name, value string)

	// IsXHR reports an XMLHttpRequest or HTMX request.
	IsXHR() bool

	// Forward returns the signal re-dispatching to endpoint.
	Forward(endpoint string, args Args) error

	// Redirect returns the signal sending the client to url.
	Redirect(code int, url string) error

	// Abort returns the signal ending the request with send. See Abort.
	Abort(send any) error

	// Error creates an HTTPError without writing a response.
	Error(code int, message string, opts ...HTTPErrorOption) *HTTPError

	// URLFor builds the URL of endpoint.
	URLFor(endpoint string, args Args) (string, error)

	// RenderTemplate renders the template named by endpoint.
	RenderTemplate(endpoint string, data map[string]any) (string, error)

	// Enqueue schedules a registered background task.
	// Returns ErrJobsNotConfigured without a job queue.
	Enqueue(name string, payload any) error

	// Written returns true if a response has already been written.
	Written() bool

	// Logger returns the logger for advanced usage.
	Logger() *slog.Logger

	LogDebug(msg string, attrs ...any)
	LogInfo(msg string, attrs ...any)
	LogWarn(msg string, attrs ...any)
	LogError(msg string, attrs ...any)

	// Set stores a value in the request context.
	// The value can be retrieved using Get or from Request().Context().Value(key).
	Set(key any, value any)

	// Get retrieves a value from the request context.
	// Returns nil if the key is not found.
	Get(key any) any
}

// requestContext implements the Context interface.
type requestContext struct {
	request  *http.Request
	response *ResponseWriter
	app      *App
	reg      *Registry
}

func (c *requestContext) Request() *http.Request {
	return c.request
}

func (c *requestContext) Response() http.ResponseWriter {
	if c.response == nil {
		return nil
	}
	return c.response
}

func (c *requestContext) ResponseWriter() *ResponseWriter {
	return c.response
}

func (c *requestContext) Registry() *Registry {
	return c.reg
}

func (c *requestContext) App() *App {
	return c.app
}

func (c *requestContext) Ident() string {
	return c.reg.RG.Ident
}

func (c *requestContext) Settings() *settings.Settings {
	return c.reg.Settings
}

func (c *requestContext) User() *User {
	return c.reg.User
}

func (c *requestContext) Session() *session.Session {
	return c.reg.RG.Session
}

func (c *requestContext) Endpoint() string {
	return c.reg.RG.Endpoint
}

func (c *requestContext) URLArgs() Args {
	return c.reg.RG.URLArgs
}

func (c *requestContext) RespCtx() *ResponseContext {
	return c.reg.RG.RespCtx
}

func (c *requestContext) CalledFrom() string {
	rg := c.reg.RG
	switch {
	case rg.RespCtx != nil && rg.RespCtx.ErrorDocCode != 0:
		return CalledFromErrorDocs
	case len(rg.ForwardQueue) > 1:
		return CalledFromForward
	default:
		return CalledFromClient
	}
}

func (c *requestContext) Param(name string) string {
	return c.reg.RG.URLArgs.String(name)
}

func (c *requestContext) Query(name string) string {
	return c.request.URL.Query().Get(name)
}

func (c *requestContext) Form(name string) string {
	return c.request.FormValue(name)
}

func (c *requestContext) Header(name string) string {
	return c.request.Header.Get(name)
}

func (c *requestContext) SetHeader(name, value string) {
	if rc := c.reg.RG.RespCtx; rc != nil {
		rc.Response.Header.Set(name, value)
		return
	}
	if c.response != nil {
		c.response.Header().Set(name, value)
	}
}

func (c *requestContext) IsXHR() bool {
	return c.request.Header.Get("X-Requested-With") == "XMLHttpRequest" ||
		c.request.Header.Get("HX-Request") == "true"
}

func (c *requestContext) Forward(endpoint string, args Args) error {
	return Forward(endpoint, args)
}

func (c *requestContext) Redirect(code int, url string) error {
	return Redirect(code, url)
}

func (c *requestContext) Abort(send any) error {
	return Abort(send)
}

func (c *requestContext) Error(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	opts = append([]HTTPErrorOption{WithRequestID(c.Ident())}, opts...)
	return NewHTTPError(code, message, opts...)
}

func (c *requestContext) URLFor(endpoint string, args Args) (string, error) {
	return c.app.URLFor(endpoint, args)
}

func (c *requestContext) RenderTemplate(endpoint string, data map[string]any) (string, error) {
	return c.app.templates.Render(c, endpoint, data)
}

func (c *requestContext) Enqueue(name string, payload any) error {
	if c.app.jobs == nil {
		return ErrJobsNotConfigured
	}
	return c.app.jobs.Enqueue(c, name, payload)
}

func (c *requestContext) Written() bool {
	return c.response != nil && c.response.Written()
}

func (c *requestContext) Logger() *slog.Logger {
	return c.app.logger
}

func (c *requestContext) LogDebug(msg string, attrs ...any) {
	c.app.logger.DebugContext(c, msg, attrs...)
}

func (c *requestContext) LogInfo(msg string, attrs ...any) {
	c.app.logger.InfoContext(c, msg, attrs...)
}

func (c *requestContext) LogWarn(msg string, attrs ...any) {
	c.app.logger.WarnContext(c, msg, attrs...)
}

func (c *requestContext) LogError(msg string, attrs ...any) {
	c.app.logger.ErrorContext(c, msg, attrs...)
}

func (c *requestContext) Set(key, value any) {
	c.request = c.request.WithContext(context.WithValue(c.request.Context(), key, value))
	c.reg.RG.Request = c.request
}

func (c *requestContext) Get(key any) any {
	return c.request.Context().Value(key)
}

func (c *requestContext) Deadline() (time.Time, bool) {
	return c.request.Context().Deadline()
}

func (c *requestContext) Done() <-chan struct{} {
	return c.request.Context().Done()
}

func (c *requestContext) Err() error {
	return c.request.Context().Err()
}

func (c *requestContext) Value(key any) any {
	return c.request.Context().Value(key)
}
