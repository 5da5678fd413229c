package internal

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/blazeweb/pkg/cookie"
	"github.com/dmitrymomot/blazeweb/pkg/db"
	"github.com/dmitrymomot/blazeweb/pkg/health"
	"github.com/dmitrymomot/blazeweb/pkg/job"
	"github.com/dmitrymomot/blazeweb/pkg/logger"
	"github.com/dmitrymomot/blazeweb/pkg/mailer"
	"github.com/dmitrymomot/blazeweb/pkg/mailer/resend"
	"github.com/dmitrymomot/blazeweb/pkg/redis"
	"github.com/dmitrymomot/blazeweb/pkg/session"
	"github.com/dmitrymomot/blazeweb/pkg/settings"
)

// Default server timeouts (hardcoded, opinionated).
const (
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultMaxHeaderBytes    = 1 << 20 // 1MB
	defaultShutdownTimeout   = 30 * time.Second
	defaultConnectTimeout    = 30 * time.Second
)

// Session store types accepted in "session.type".
const (
	SessionMemory   = "memory"
	SessionRedis    = "redis"
	SessionPostgres = "postgres"
)

// App is a blazeweb application: settings, plugins, routes and the request
// lifecycle. It is immutable after New.
type App struct {
	router            chi.Router
	sessionStore      session.Store
	templates         TemplateEngine
	templateFS        fs.FS
	static            fs.FS
	mailSender        mailer.Sender
	settings          *settings.Settings
	logger            *slog.Logger
	ag                *AppGlobals
	events            *Events
	sessions          *SessionManager
	mailer            *mailer.Mailer
	jobs              *job.Queue
	pool              *pgxpool.Pool
	health            *health.Checker
	views             map[string]ViewFactory
	defaultMiddleware func(*App) []Middleware
	err               error
	eventFuncs        []func(*Events)
	plugins           []Plugin
	routes            []Route
	routeTable        []Route
	middlewares       []Middleware
	jobOptions        []job.Option
	readinessChecks   []namedCheck
	startupHooks      []func(context.Context) error
	shutdownHooks     []func(context.Context) error
	hooks             Hooks
	jobsEnabled       bool
	loggerSet         bool
	testing           bool
}

type namedCheck struct {
	fn   health.CheckFunc
	name string
}

// New builds an application. Initialization follows the order of the
// signals it sends: events, settings, logging, routing, templating.
// Connections opened for sessions or jobs are closed again on error.
//
// Example:
//
//	app, err := blazeweb.New(
//	    blazeweb.WithSettingsFile("settings.yaml", os.Getenv("APP_PROFILE")),
//	    blazeweb.WithPlugins(news.Plugin()),
//	    blazeweb.WithRoutes(blazeweb.Rule("/", "news:Index")),
//	)
func New(opts ...Option) (*App, error) {
	a := &App{
		settings: settings.Defaults(),
		logger:   logger.NewNope(),
		views:    make(map[string]ViewFactory),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.err != nil {
		return nil, a.err
	}
	if a.testing {
		a.settings.ApplyTestSettings()
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultConnectTimeout)
	defer cancel()

	a.ag = &AppGlobals{App: a}
	a.events = NewEvents()
	a.ag.Events = a.events
	for _, fn := range a.eventFuncs {
		fn(a.events)
	}
	for _, name := range a.pluginNames() {
		for _, p := range a.pluginPackages(name) {
			if p.Events != nil {
				p.Events(a.events)
			}
		}
	}
	a.events.Send(ctx, EventEventsInitialized, nil)

	a.initPluginSettings()
	a.events.Send(ctx, EventSettingsInitialized, EventData{"settings": a.settings})

	if err := a.initLogging(); err != nil {
		return nil, err
	}
	a.events.Send(ctx, EventLoggingInitialized, EventData{"logger": a.logger})

	if err := a.initServices(ctx); err != nil {
		a.closeServices()
		return nil, err
	}

	if a.defaultMiddleware != nil {
		a.middlewares = append(a.defaultMiddleware(a), a.middlewares...)
	}
	a.setupRoutes()
	a.events.Send(ctx, EventRoutingInitialized, EventData{"routes": a.routeTable})

	if a.templates == nil {
		a.templates = newTemplateEngine(a)
	}
	a.ag.Templates = a.templates
	a.events.Send(ctx, EventTemplatingInitialized, nil)

	return a, nil
}

// initLogging builds the logger from "logs.*" unless WithLogger provided one.
func (a *App) initLogging() error {
	if a.loggerSet {
		return nil
	}
	l, closer, err := logger.New(logger.FromSettings(a.settings), identExtractor)
	if err != nil {
		return fmt.Errorf("blazeweb: logging: %w", err)
	}
	a.logger = l
	a.shutdownHooks = append(a.shutdownHooks, func(context.Context) error { return closer.Close() })
	return nil
}

func identExtractor(ctx context.Context) (slog.Attr, bool) {
	if reg, ok := RegistryFrom(ctx); ok {
		return slog.String("ident", reg.RG.Ident), true
	}
	return slog.Attr{}, false
}

func (a *App) initServices(ctx context.Context) error {
	if a.pool == nil && a.needsDatabase() {
		url := a.settings.String("db.url", "")
		if url == "" {
			url = a.settings.String("session.url", "")
		}
		pool, err := db.Open(ctx, db.DefaultConfig(url))
		if err != nil {
			return fmt.Errorf("blazeweb: database: %w", err)
		}
		a.pool = pool
		a.shutdownHooks = append(a.shutdownHooks, db.Shutdown(pool))
	}
	if a.pool != nil {
		a.readinessChecks = append(a.readinessChecks, namedCheck{name: "postgres", fn: db.Healthcheck(a.pool)})
	}

	if err := a.initSessions(ctx); err != nil {
		return err
	}
	a.initMailer()
	if err := a.initJobs(ctx); err != nil {
		return err
	}
	a.initHealth()
	return nil
}

func (a *App) needsDatabase() bool {
	sessions := a.settings.Bool("session.enabled", true) && a.sessionStore == nil &&
		a.settings.String("session.type", SessionMemory) == SessionPostgres
	return sessions || a.jobsEnabled || a.settings.Bool("jobs.enabled", false)
}

// initSessions creates the session manager from "session.*".
func (a *App) initSessions(ctx context.Context) error {
	if !a.settings.Bool("session.enabled", true) {
		return nil
	}

	store := a.sessionStore
	if store == nil {
		switch typ := a.settings.String("session.type", SessionMemory); typ {
		case SessionMemory:
			store = session.NewMemoryStore()
		case SessionRedis:
			client, err := redis.Open(ctx, a.settings.String("session.url", ""))
			if err != nil {
				return fmt.Errorf("blazeweb: session store: %w", err)
			}
			a.shutdownHooks = append(a.shutdownHooks, redis.Shutdown(client))
			a.readinessChecks = append(a.readinessChecks, namedCheck{name: "redis", fn: redis.Healthcheck(client)})
			store = session.NewRedisStore(client, a.settings.String("session.prefix", "blazeweb:session:"))
		case SessionPostgres:
			if err := db.Migrate(ctx, a.pool, session.Migrations(), "blazeweb_session_migrations", a.logger); err != nil {
				return fmt.Errorf("blazeweb: session store: %w", err)
			}
			store = session.NewPostgresStore(a.pool)
		default:
			return fmt.Errorf("%w: %q", ErrUnknownSession, typ)
		}
	}

	secret := a.settings.String("session.secret", "")
	if secret != "" {
		if err := cookie.ValidateSecret(secret); err != nil {
			return fmt.Errorf("blazeweb: session.secret: %w", err)
		}
	}
	cookies := cookie.New(
		cookie.WithSecret(secret),
		cookie.WithSecure(a.settings.Bool("session.secure", false)),
	)
	a.sessions = NewSessionManager(store, cookies,
		WithSessionCookieName(a.settings.String("session.cookie_name", defaultSessionCookieName)),
		WithSessionMaxAge(a.settings.Duration("session.max_age", defaultSessionMaxAge)),
		WithSessionLogger(a.logger),
	)
	return nil
}

// initMailer uses the sender from WithMailSender, else Resend when
// "mail.resend.api_key" is set.
func (a *App) initMailer() {
	sender := a.mailSender
	if sender == nil {
		cfg := resend.FromSettings(a.settings)
		if cfg.APIKey == "" {
			return
		}
		sender = resend.New(cfg)
	}
	a.mailer = mailer.New(sender, nil, mailer.FromSettings(a.settings)).WithLogger(a.logger)
}

// initJobs starts a job queue when jobs are enabled and a database exists.
// The queue mails exception reports and purges expired sessions.
func (a *App) initJobs(ctx context.Context) error {
	if !a.jobsEnabled && !a.settings.Bool("jobs.enabled", false) {
		return nil
	}
	if a.pool == nil {
		return fmt.Errorf("%w: a database is required", ErrJobsNotConfigured)
	}
	if err := job.Migrate(ctx, a.pool); err != nil {
		return fmt.Errorf("blazeweb: jobs: %w", err)
	}

	opts := []job.Option{
		job.WithLogger(a.logger),
		job.WithTask(TaskMailProgrammers, a.mailProgrammersTask),
	}
	if a.sessions != nil {
		if expr := a.settings.String("jobs.session_purge", ""); expr != "" {
			opts = append(opts, job.WithSchedule(TaskSessionPurge, expr, a.sessions.Purge))
		}
	}
	q, err := job.New(a.pool, append(opts, a.jobOptions...)...)
	if err != nil {
		return fmt.Errorf("blazeweb: jobs: %w", err)
	}
	a.jobs = q
	a.startupHooks = append(a.startupHooks, q.StartFunc())
	a.shutdownHooks = append([]func(context.Context) error{q.Shutdown()}, a.shutdownHooks...)
	a.readinessChecks = append(a.readinessChecks, namedCheck{name: "jobs", fn: q.Healthcheck})
	return nil
}

func (a *App) mailProgrammersTask(ctx context.Context, report exceptionReport) error {
	if a.mailer == nil {
		a.logger.WarnContext(ctx, "no mailer configured, exception not mailed", slog.String("summary", report.Summary))
		return nil
	}
	return a.mailer.MailProgrammers(ctx, mailer.SendParams{Template: "exception.md", Data: report})
}

func (a *App) initHealth() {
	if !a.settings.Bool("health.enabled", false) {
		return
	}
	a.health = health.NewChecker(health.WithLogger(a.logger))
	for _, c := range a.readinessChecks {
		a.health.Add(c.name, c.fn)
	}
}

// closeServices releases what initServices opened before failing.
func (a *App) closeServices() {
	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	for _, hook := range a.shutdownHooks {
		if err := hook(ctx); err != nil {
			a.logger.Error("shutdown hook failed", slog.Any("error", err))
		}
	}
}

// Settings returns the application settings.
func (a *App) Settings() *settings.Settings {
	return a.settings
}

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Events returns the signal dispatcher.
func (a *App) Events() *Events {
	return a.events
}

// Globals returns the state shared by all requests.
func (a *App) Globals() *AppGlobals {
	return a.ag
}

// Jobs returns the job queue, nil when jobs are disabled.
func (a *App) Jobs() *job.Queue {
	return a.jobs
}

// Mailer returns the mailer, nil without a mail sender.
func (a *App) Mailer() *mailer.Mailer {
	return a.mailer
}

// Sessions returns the session manager, nil when sessions are disabled.
func (a *App) Sessions() *SessionManager {
	return a.sessions
}

// Router returns the underlying chi.Router for the App.
func (a *App) Router() chi.Router {
	return a.router
}

// Routes returns the route table in match priority order.
func (a *App) Routes() []Route {
	return a.routeTable
}

// Templates returns the template engine.
func (a *App) Templates() TemplateEngine {
	return a.templates
}
