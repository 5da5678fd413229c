package internal

import (
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/blazeweb/pkg/health"
	"github.com/dmitrymomot/blazeweb/pkg/job"
	"github.com/dmitrymomot/blazeweb/pkg/mailer"
	"github.com/dmitrymomot/blazeweb/pkg/session"
	"github.com/dmitrymomot/blazeweb/pkg/settings"
)

// Option configures the application.
type Option func(*App)

// WithSettings merges s over the framework defaults.
func WithSettings(s *settings.Settings) Option {
	return func(a *App) {
		if s != nil {
			a.settings.MergeSettings(s)
		}
	}
}

// WithSettingsFile loads a YAML profile document. See settings.Load.
//
// Example:
//
//	blazeweb.New(
//	    blazeweb.WithSettingsFile("settings.yaml", os.Getenv("APP_PROFILE")),
//	)
func WithSettingsFile(path, profile string) Option {
	return func(a *App) {
		s, err := settings.LoadFile(path, profile)
		if err != nil {
			a.err = fmt.Errorf("blazeweb: %w", err)
			return
		}
		a.settings.MergeSettings(s)
	}
}

// WithTestSettings applies settings.ApplyTestSettings after every other
// option, so exceptions escape to the test.
func WithTestSettings() Option {
	return func(a *App) {
		a.testing = true
	}
}

// WithLogger replaces the logger built from "logs.*".
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
			a.loggerSet = true
		}
	}
}

// WithMiddleware adds global middleware to the application.
// Middleware is applied in the order provided.
func WithMiddleware(mw ...Middleware) Option {
	return func(a *App) {
		a.middlewares = append(a.middlewares, mw...)
	}
}

// WithDefaultMiddleware sets the middleware placed in front of WithMiddleware
// entries. fn runs once the App's settings and logger are ready.
func WithDefaultMiddleware(fn func(a *App) []Middleware) Option {
	return func(a *App) {
		a.defaultMiddleware = fn
	}
}

// WithRoutes adds application routes. They are matched before plugin routes.
func WithRoutes(routes ...Route) Option {
	return func(a *App) {
		a.routes = append(a.routes, routes...)
	}
}

// WithView registers an application-level view. It overrides plugin views
// with the same endpoint.
func WithView(endpoint string, f ViewFactory) Option {
	return func(a *App) {
		if f != nil {
			a.views[endpoint] = f
		}
	}
}

// WithViews registers several application-level views.
func WithViews(views map[string]ViewFactory) Option {
	return func(a *App) {
		for endpoint, f := range views {
			if f != nil {
				a.views[endpoint] = f
			}
		}
	}
}

// WithPlugins adds plugin packages in priority order.
func WithPlugins(plugins ...Plugin) Option {
	return func(a *App) {
		a.plugins = append(a.plugins, plugins...)
	}
}

// WithTemplates sets the application templates. Files under "<plugin>/"
// override the plugin's own templates.
func WithTemplates(fsys fs.FS) Option {
	return func(a *App) {
		a.templateFS = fsys
	}
}

// WithTemplateEngine replaces the default template engine.
func WithTemplateEngine(e TemplateEngine) Option {
	return func(a *App) {
		a.templates = e
	}
}

// WithStaticFiles sets the application static files, served under
// "static_files.prefix". Files under "<plugin>/" override plugin files.
func WithStaticFiles(fsys fs.FS) Option {
	return func(a *App) {
		a.static = fsys
	}
}

// WithRequestSetup adds hooks run when a request enters the App.
func WithRequestSetup(fn ...HookFunc) Option {
	return func(a *App) {
		a.hooks.RequestSetup = append(a.hooks.RequestSetup, fn...)
	}
}

// WithRequestTeardown adds hooks run when a request leaves the App, even on
// failure.
func WithRequestTeardown(fn ...HookFunc) Option {
	return func(a *App) {
		a.hooks.RequestTeardown = append(a.hooks.RequestTeardown, fn...)
	}
}

// WithResponseCycleSetup adds hooks run before each dispatch, including
// forwards and error docs.
func WithResponseCycleSetup(fn ...HookFunc) Option {
	return func(a *App) {
		a.hooks.ResponseCycleSetup = append(a.hooks.ResponseCycleSetup, fn...)
	}
}

// WithResponseCycleTeardown adds hooks run after each dispatch.
func WithResponseCycleTeardown(fn ...HookFunc) Option {
	return func(a *App) {
		a.hooks.ResponseCycleTeardown = append(a.hooks.ResponseCycleTeardown, fn...)
	}
}

// WithEvents connects application signal handlers. They are connected
// before plugin handlers.
func WithEvents(fn func(*Events)) Option {
	return func(a *App) {
		if fn != nil {
			a.eventFuncs = append(a.eventFuncs, fn)
		}
	}
}

// WithSessionStore replaces the store selected by "session.type".
func WithSessionStore(store session.Store) Option {
	return func(a *App) {
		a.sessionStore = store
	}
}

// WithDatabase provides the PostgreSQL pool used by postgres sessions and
// the job queue. The caller keeps ownership of the pool.
func WithDatabase(pool *pgxpool.Pool) Option {
	return func(a *App) {
		a.pool = pool
	}
}

// WithMailSender sets the sender for programmer mails.
func WithMailSender(s mailer.Sender) Option {
	return func(a *App) {
		a.mailSender = s
	}
}

// WithJobs enables the job queue. Extra tasks and schedules are registered
// through opts.
//
// Example:
//
//	blazeweb.WithJobs(
//	    job.WithTask("welcome", sendWelcome),
//	    job.WithSchedule("digest", "0 7 * * *", sendDigest),
//	)
func WithJobs(opts ...job.Option) Option {
	return func(a *App) {
		a.jobsEnabled = true
		a.jobOptions = append(a.jobOptions, opts...)
	}
}

// WithReadinessCheck adds a named readiness check served when
// "health.enabled" is set.
//
// Example:
//
//	blazeweb.WithReadinessCheck("search", search.Ping)
func WithReadinessCheck(name string, fn health.CheckFunc) Option {
	return func(a *App) {
		if fn != nil {
			a.readinessChecks = append(a.readinessChecks, namedCheck{name: name, fn: fn})
		}
	}
}
