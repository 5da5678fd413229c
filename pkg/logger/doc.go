// Package logger builds the structured loggers used by blazeweb applications.
//
// Loggers are plain *slog.Logger values. The package adds three things on top
// of log/slog: context extractors that attach request-scoped attributes (the
// request ident, the endpoint being dispatched), a configuration driven by the
// "logs.*" settings, and optional Sentry forwarding.
//
// # Configuration
//
//	cfg := logger.FromSettings(s)
//	log, closer, err := logger.New(cfg, blazeweb.IdentExtractor())
//	defer closer.Close()
//
// Outputs:
//   - stdout (JSON or text, "logs.format") at "logs.level"
//   - errors file ("logs.errors.path") receiving warnings and errors
//   - application file ("logs.application.path") receiving only records logged
//     at LevelApplication
//   - Sentry ("logs.sentry.dsn") for warnings and errors
//
// When "logs.enabled" is false every record is discarded.
//
// # Application level
//
// LevelApplication sits between Info and Warn. It is meant for events the
// application wants to keep apart from framework noise:
//
//	log.Log(ctx, logger.LevelApplication, "order placed", slog.String("id", id))
package logger
