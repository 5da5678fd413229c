package blazeweb

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/blazeweb/internal"
	"github.com/dmitrymomot/blazeweb/middlewares"
	"github.com/dmitrymomot/blazeweb/pkg/health"
	"github.com/dmitrymomot/blazeweb/pkg/job"
	"github.com/dmitrymomot/blazeweb/pkg/mailer"
	"github.com/dmitrymomot/blazeweb/pkg/session"
	"github.com/dmitrymomot/blazeweb/pkg/settings"
)

// Type aliases - public API
type (
	// App is a blazeweb application.
	App = internal.App

	// Context provides request access and the lifecycle helpers views use.
	Context = internal.Context

	// Args holds view arguments: URL arguments, query and form values.
	Args = internal.Args

	// Option configures the application.
	Option = internal.Option

	// RunOption configures the server runtime.
	RunOption = internal.RunOption

	// HandlerFunc is the signature of the request lifecycle wrapped by middleware.
	HandlerFunc = internal.HandlerFunc

	// Middleware wraps the request lifecycle.
	Middleware = internal.Middleware

	// HookFunc is a request or response cycle setup/teardown hook.
	HookFunc = internal.HookFunc

	// Hooks groups the hooks injected into a single request.
	Hooks = internal.Hooks

	// View is embedded in application views.
	View = internal.View

	// Viewer is implemented by every struct embedding View.
	Viewer = internal.Viewer

	// ViewFactory creates a fresh view for each dispatch.
	ViewFactory = internal.ViewFactory

	// CallMethod is a view call stack entry.
	CallMethod = internal.CallMethod

	// Route maps a URL pattern to an endpoint.
	Route = internal.Route

	// Plugin is one package of a named plugin.
	Plugin = internal.Plugin

	// Processor validates and converts one argument value.
	Processor = internal.Processor

	// ProcessorFunc adapts a function to Processor.
	ProcessorFunc = internal.ProcessorFunc

	// ProcessorOption configures how an argument is processed.
	ProcessorOption = internal.ProcessorOption

	// Response is a buffered response.
	Response = internal.Response

	// Component is the interface for renderable templates.
	Component = internal.Component

	// TemplateEngine renders templates named by endpoint.
	TemplateEngine = internal.TemplateEngine

	// HTTPError is an error that translates to an HTTP response.
	HTTPError = internal.HTTPError

	// HTTPErrorOption configures an HTTPError.
	HTTPErrorOption = internal.HTTPErrorOption

	// ProgrammingError reports a mistake in the application's wiring.
	ProgrammingError = internal.ProgrammingError

	// PanicError carries a recovered panic.
	PanicError = internal.PanicError

	// Registry holds the request globals, application globals, settings
	// and session user of a request.
	Registry = internal.Registry

	// User is the per-session user.
	User = internal.User

	// Message is a one-shot notice for the user.
	Message = internal.Message

	// Event names a lifecycle signal.
	Event = internal.Event

	// EventData carries signal-specific values.
	EventData = internal.EventData

	// EventHandler receives a signal.
	EventHandler = internal.EventHandler

	// Events is the signal dispatcher.
	Events = internal.Events

	// Settings is the layered application configuration.
	Settings = settings.Settings

	// Session is a server-side session.
	Session = session.Session

	// SessionStore persists sessions.
	SessionStore = session.Store

	// JobOption configures the job queue.
	JobOption = job.Option

	// MailSender delivers mails built by the framework.
	MailSender = mailer.Sender
)

// Lifecycle signals.
const (
	EventEventsInitialized     = internal.EventEventsInitialized
	EventSettingsInitialized   = internal.EventSettingsInitialized
	EventLoggingInitialized    = internal.EventLoggingInitialized
	EventRoutingInitialized    = internal.EventRoutingInitialized
	EventTemplatingInitialized = internal.EventTemplatingInitialized
	EventRequestStarted        = internal.EventRequestStarted
	EventResponseCycleStarted  = internal.EventResponseCycleStarted
	EventResponseCycleEnded    = internal.EventResponseCycleEnded
	EventRequestEnded          = internal.EventRequestEnded
)

// Values reported by Context.CalledFrom.
const (
	CalledFromClient    = internal.CalledFromClient
	CalledFromForward   = internal.CalledFromForward
	CalledFromErrorDocs = internal.CalledFromErrorDocs
)

// Call stack positions accepted by View.InsertCallMethod.
const (
	Before = internal.Before
	After  = internal.After
)

// Sentinel errors.
var (
	ErrRouteNotFound     = internal.ErrRouteNotFound
	ErrMissingURLArg     = internal.ErrMissingURLArg
	ErrTemplateNotFound  = internal.ErrTemplateNotFound
	ErrJobsNotConfigured = internal.ErrJobsNotConfigured
	ErrUnknownSession    = internal.ErrUnknownSession
)

// Built-in argument processors.
var (
	IntArg    = internal.IntArg
	FloatArg  = internal.FloatArg
	BoolArg   = internal.BoolArg
	StringArg = internal.StringArg
	UUIDArg   = internal.UUIDArg
)

// Constructors

// New creates an application with the default middleware in front of the
// options' middleware: Recover, RequestID and, when
// "logs.http_requests.enabled" is set, RequestLogger.
//
// Example:
//
//	app, err := blazeweb.New(
//	    blazeweb.WithSettingsFile("settings.yaml", os.Getenv("APP_PROFILE")),
//	    blazeweb.WithRoutes(blazeweb.Rule("/", "index")),
//	    blazeweb.WithView("index", blazeweb.ViewFunc(index)),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	err = app.Run(":8080", blazeweb.ShutdownTimeout(10*time.Second))
func New(opts ...Option) (*App, error) {
	return internal.New(append([]Option{internal.WithDefaultMiddleware(defaultMiddleware)}, opts...)...)
}

func defaultMiddleware(a *App) []Middleware {
	mw := []Middleware{
		middlewares.Recover(),
		middlewares.RequestID(),
	}
	if a.Settings().Bool("logs.http_requests.enabled", false) {
		mw = append(mw, middlewares.RequestLogger(middlewares.RequestLoggerFromSettings(a.Settings())...))
	}
	return mw
}

// NewTestApp creates an application with test settings: exceptions escape
// to the caller, mail is not sent and logging is off.
func NewTestApp(opts ...Option) (*App, error) {
	return New(append([]Option{internal.WithTestSettings()}, opts...)...)
}

// Rule maps pattern to endpoint. With no methods the route answers any method.
func Rule(pattern, endpoint string, methods ...string) Route {
	return internal.Rule(pattern, endpoint, methods...)
}

// ViewFunc wraps fn as a view answering every method.
func ViewFunc(fn func(c Context, args Args) (any, error)) ViewFactory {
	return internal.ViewFunc(fn)
}

// NewResponse creates a buffered response.
func NewResponse(status int, body, contentType string) *Response {
	return internal.NewResponse(status, body, contentType)
}

// InjectHooks attaches per-request hooks to r. Used by tests.
func InjectHooks(r *http.Request, h Hooks) *http.Request {
	return internal.InjectHooks(r, h)
}

// App options

// WithSettings merges s over the framework defaults.
func WithSettings(s *Settings) Option {
	return internal.WithSettings(s)
}

// WithSettingsFile loads a YAML settings document and selects profile.
func WithSettingsFile(path, profile string) Option {
	return internal.WithSettingsFile(path, profile)
}

// WithLogger replaces the logger built from "logs.*".
func WithLogger(l *slog.Logger) Option {
	return internal.WithLogger(l)
}

// WithMiddleware adds middleware after the defaults, in the order provided.
func WithMiddleware(mw ...Middleware) Option {
	return internal.WithMiddleware(mw...)
}

func WithRoutes(routes ...Route) Option {
	return internal.WithRoutes(routes...)
}

func WithView(endpoint string, f ViewFactory) Option {
	return internal.WithView(endpoint, f)
}

func WithViews(views map[string]ViewFactory) Option {
	return internal.WithViews(views)
}

// WithPlugins registers plugin packages. Packages sharing a name are
// searched in the order given.
func WithPlugins(plugins ...Plugin) Option {
	return internal.WithPlugins(plugins...)
}

// WithTemplates sets the application templates. "<plugin>/<file>" entries
// override plugin templates.
//
// Example:
//
//	//go:embed templates
//	var templates embed.FS
//
//	sub, _ := fs.Sub(templates, "templates")
//	blazeweb.New(blazeweb.WithTemplates(sub))
func WithTemplates(fsys fs.FS) Option {
	return internal.WithTemplates(fsys)
}

func WithTemplateEngine(e TemplateEngine) Option {
	return internal.WithTemplateEngine(e)
}

// WithStaticFiles sets the application static files, served under
// "static_files.prefix". "<plugin>/<file>" entries override plugin files.
func WithStaticFiles(fsys fs.FS) Option {
	return internal.WithStaticFiles(fsys)
}

func WithRequestSetup(fn ...HookFunc) Option {
	return internal.WithRequestSetup(fn...)
}

func WithRequestTeardown(fn ...HookFunc) Option {
	return internal.WithRequestTeardown(fn...)
}

func WithResponseCycleSetup(fn ...HookFunc) Option {
	return internal.WithResponseCycleSetup(fn...)
}

func WithResponseCycleTeardown(fn ...HookFunc) Option {
	return internal.WithResponseCycleTeardown(fn...)
}

// WithEvents connects signal handlers while the App is built.
func WithEvents(fn func(*Events)) Option {
	return internal.WithEvents(fn)
}

// WithSessionStore overrides the store selected by "session.type".
func WithSessionStore(store SessionStore) Option {
	return internal.WithSessionStore(store)
}

// WithDatabase shares pool with the Postgres session store and the job queue.
func WithDatabase(pool *pgxpool.Pool) Option {
	return internal.WithDatabase(pool)
}

// WithMailSender sets the sender for programmer mails. Without one the
// Resend sender is used when "mail.resend.api_key" is set.
func WithMailSender(s MailSender) Option {
	return internal.WithMailSender(s)
}

// WithJobs enables the Postgres-backed job queue.
func WithJobs(opts ...JobOption) Option {
	return internal.WithJobs(opts...)
}

// WithReadinessCheck adds a check to the readiness endpoint.
func WithReadinessCheck(name string, fn health.CheckFunc) Option {
	return internal.WithReadinessCheck(name, fn)
}

// Run options

// Logger sets the logger for server lifecycle events.
func Logger(l *slog.Logger) RunOption {
	return internal.Logger(l)
}

// ShutdownTimeout sets the graceful shutdown timeout.
func ShutdownTimeout(d time.Duration) RunOption {
	return internal.ShutdownTimeout(d)
}

// StartupHook registers a function to run once the listener is ready.
func StartupHook(fn func(context.Context) error) RunOption {
	return internal.StartupHook(fn)
}

// ShutdownHook registers a function to run during graceful shutdown.
func ShutdownHook(fn func(context.Context) error) RunOption {
	return internal.ShutdownHook(fn)
}

// WithContext sets the base context for signal handling.
func WithContext(ctx context.Context) RunOption {
	return internal.WithContext(ctx)
}

// Control flow

// Forward re-dispatches the request to endpoint with args.
func Forward(endpoint string, args Args) error {
	return internal.Forward(endpoint, args)
}

// Redirect sends the client to url. A zero code means 302 Found.
func Redirect(code int, url string) error {
	return internal.Redirect(code, url)
}

// Abort ends the request with send: a status code, a text, a response or
// any value to pretty-print.
func Abort(send any) error {
	return internal.Abort(send)
}

// HTTP errors

func NewHTTPError(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.NewHTTPError(code, message, opts...)
}

func ErrBadRequest(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrBadRequest(message, opts...)
}

func ErrUnauthorized(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrUnauthorized(message, opts...)
}

func ErrForbidden(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrForbidden(message, opts...)
}

func ErrNotFound(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrNotFound(message, opts...)
}

func ErrInternal(message string, opts ...HTTPErrorOption) *HTTPError {
	return internal.ErrInternal(message, opts...)
}

func WithTitle(title string) HTTPErrorOption {
	return internal.WithTitle(title)
}

func WithDetail(detail string) HTTPErrorOption {
	return internal.WithDetail(detail)
}

// IsHTTPError reports whether err is or wraps an HTTPError.
func IsHTTPError(err error) bool {
	return internal.IsHTTPError(err)
}

// AsHTTPError returns the HTTPError in err's chain, or nil.
func AsHTTPError(err error) *HTTPError {
	return internal.AsHTTPError(err)
}

// Argument processing

func OneOf(values ...string) Processor {
	return internal.OneOf(values...)
}

func MaxLength(n int) Processor {
	return internal.MaxLength(n)
}

// Required rejects a missing argument.
func Required() ProcessorOption { return internal.Required() }

// Strict turns an invalid value into a 400.
func Strict() ProcessorOption { return internal.Strict() }

// TakesList keeps every submitted value.
func TakesList() ProcessorOption { return internal.TakesList() }

// ListItemInvalidates drops the whole list when one item is invalid.
func ListItemInvalidates() ProcessorOption { return internal.ListItemInvalidates() }

// ShowMsg adds the processor's message to the user messages.
func ShowMsg() ProcessorOption { return internal.ShowMsg() }

// CustomMsg shows msg instead of the processor's message.
func CustomMsg(msg string) ProcessorOption { return internal.CustomMsg(msg) }

// Helpers

// Arg returns args[name] converted to T, or T's zero value.
func Arg[T ~string | ~int | ~int64 | ~float64 | ~bool](args Args, name string) T {
	return internal.Arg[T](args, name)
}

// ArgDefault returns args[name] converted to T, or def.
func ArgDefault[T ~string | ~int | ~int64 | ~float64 | ~bool](args Args, name string, def T) T {
	return internal.ArgDefault(args, name, def)
}

// ContextValue returns the value stored under key, or T's zero value.
func ContextValue[T any](c Context, key any) T {
	return internal.ContextValue[T](c, key)
}

// RegistryFrom returns the request registry bound to ctx.
func RegistryFrom(ctx context.Context) (*Registry, bool) {
	return internal.RegistryFrom(ctx)
}
