package job

import (
	"context"
	"log/slog"
)

// Option configures a Queue.
type Option func(*config)

type config struct {
	logger     *slog.Logger
	maxWorkers int
	registry   *registry
	schedules  []schedule
}

type schedule struct {
	name string
	expr string
}

func newConfig() *config {
	return &config{maxWorkers: 10, registry: newRegistry()}
}

// WithTask registers a task whose JSON payload decodes into P.
func WithTask[P any](name string, fn func(context.Context, P) error) Option {
	return func(c *config) {
		c.registry.add(name, typed(fn))
	}
}

// WithSchedule registers a payload-less task run on a cron schedule.
func WithSchedule(name, expr string, fn func(context.Context) error) Option {
	return func(c *config) {
		c.registry.add(name, typed(func(ctx context.Context, _ struct{}) error {
			return fn(ctx)
		}))
		c.schedules = append(c.schedules, schedule{name: name, expr: expr})
	}
}

// WithLogger sets the queue logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMaxWorkers sets the worker count of the default queue.
func WithMaxWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxWorkers = n
		}
	}
}
