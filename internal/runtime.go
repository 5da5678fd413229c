package internal

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// RunOption configures App.Run.
type RunOption func(*runner)

// Logger sets the logger for server lifecycle events. Defaults to the App
// logger.
func Logger(l *slog.Logger) RunOption {
	return func(r *runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// ShutdownTimeout bounds both the HTTP drain and the shutdown hooks.
// Overrides "server.shutdown_timeout".
func ShutdownTimeout(d time.Duration) RunOption {
	return func(r *runner) {
		if d > 0 {
			r.shutdownTimeout = d
		}
	}
}

// StartupHook registers fn to run once the listener is bound and before
// requests are served. A failing hook aborts Run.
func StartupHook(fn func(context.Context) error) RunOption {
	return func(r *runner) {
		if fn != nil {
			r.startup = append(r.startup, fn)
		}
	}
}

// ShutdownHook registers fn to run after the server drains, following the
// App's own hooks (job queue, database, redis).
//
//	app.Run(":8080", blazeweb.ShutdownHook(search.Close))
func ShutdownHook(fn func(context.Context) error) RunOption {
	return func(r *runner) {
		if fn != nil {
			r.shutdown = append(r.shutdown, fn)
		}
	}
}

// WithContext sets the context Run watches besides SIGINT and SIGTERM.
func WithContext(ctx context.Context) RunOption {
	return func(r *runner) {
		if ctx != nil {
			r.baseCtx = ctx
		}
	}
}

// runner owns one HTTP server for the duration of App.Run.
type runner struct {
	server          *http.Server
	logger          *slog.Logger
	baseCtx         context.Context
	startup         []func(context.Context) error
	shutdown        []func(context.Context) error
	shutdownTimeout time.Duration
}

// Run serves the App on addr and blocks until SIGINT/SIGTERM or the base
// context ends. Server timeouts come from "server.*"; the job queue starts
// before serving and every connection the App opened is closed during
// shutdown.
//
//	app, err := blazeweb.New(...)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = app.Run(":8080")
func (a *App) Run(addr string, opts ...RunOption) error {
	if addr == "" {
		addr = a.settings.String("server.address", ":8080")
	}
	s := a.settings

	r := &runner{
		server: &http.Server{
			Addr:              addr,
			Handler:           a,
			ReadTimeout:       s.Duration("server.read_timeout", defaultReadTimeout),
			WriteTimeout:      s.Duration("server.write_timeout", defaultWriteTimeout),
			IdleTimeout:       s.Duration("server.idle_timeout", defaultIdleTimeout),
			ReadHeaderTimeout: defaultReadHeaderTimeout,
			MaxHeaderBytes:    defaultMaxHeaderBytes,
			ErrorLog:          slog.NewLogLogger(a.logger.Handler(), slog.LevelWarn),
		},
		logger:          a.logger,
		baseCtx:         context.Background(),
		startup:         append([]func(context.Context) error{}, a.startupHooks...),
		shutdown:        append([]func(context.Context) error{}, a.shutdownHooks...),
		shutdownTimeout: s.Duration("server.shutdown_timeout", defaultShutdownTimeout),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r.run()
}

func (r *runner) run() error {
	ctx, cancel := signal.NotifyContext(r.baseCtx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ln, err := net.Listen("tcp", r.server.Addr)
	if err != nil {
		return errors.Join(err, r.stop(false))
	}

	for _, hook := range r.startup {
		if err := hook(ctx); err != nil {
			r.logger.Error("startup hook failed", slog.Any("error", err))
			_ = ln.Close()
			return errors.Join(err, r.stop(false))
		}
	}

	served := make(chan error, 1)
	go func() {
		r.logger.Info("server starting", slog.String("address", ln.Addr().String()))
		served <- r.server.Serve(ln)
	}()

	select {
	case err := <-served:
		if !errors.Is(err, http.ErrServerClosed) {
			return errors.Join(err, r.stop(false))
		}
		return r.stop(false)
	case <-ctx.Done():
	}

	r.logger.Info("shutting down server")
	return r.stop(true)
}

// stop drains the server when it is serving, then runs the shutdown hooks
// under one deadline.
func (r *runner) stop(serving bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.shutdownTimeout)
	defer cancel()

	var errs []error
	if serving {
		if err := r.server.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	for _, hook := range r.shutdown {
		if err := hook(ctx); err != nil {
			r.logger.Error("shutdown hook failed", slog.Any("error", err))
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		r.logger.Error("shutdown completed with errors")
		return err
	}
	r.logger.Info("shutdown completed")
	return nil
}
