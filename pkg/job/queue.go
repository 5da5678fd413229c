package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
)

// Queue enqueues and works blazeweb tasks.
type Queue struct {
	pool     *pgxpool.Pool
	client   *river.Client[pgx.Tx]
	registry *registry
	logger   *slog.Logger

	mu      sync.Mutex
	started bool
}

// New creates the River client. Jobs may be enqueued before Start.
func New(pool *pgxpool.Pool, opts ...Option) (*Queue, error) {
	if pool == nil {
		return nil, ErrPoolRequired
	}

	cfg := newConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}

	periodic, err := periodicJobs(cfg.schedules)
	if err != nil {
		return nil, err
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &taskWorker{registry: cfg.registry, logger: cfg.logger})

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues:       map[string]river.QueueConfig{river.QueueDefault: {MaxWorkers: cfg.maxWorkers}},
		Workers:      workers,
		PeriodicJobs: periodic,
		Logger:       cfg.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("job: create client: %w", err)
	}

	return &Queue{pool: pool, client: client, registry: cfg.registry, logger: cfg.logger}, nil
}

func periodicJobs(schedules []schedule) ([]*river.PeriodicJob, error) {
	jobs := make([]*river.PeriodicJob, 0, len(schedules))
	for _, s := range schedules {
		sched, err := parseSchedule(s.expr)
		if err != nil {
			return nil, err
		}
		name := s.name
		jobs = append(jobs, river.NewPeriodicJob(
			sched,
			func() (river.JobArgs, *river.InsertOpts) {
				return &taskArgs{Task: name}, nil
			},
			&river.PeriodicJobOpts{RunOnStart: false},
		))
	}
	return jobs, nil
}

// Start begins working jobs.
func (q *Queue) Start(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.started {
		return ErrAlreadyStarted
	}
	if err := q.client.Start(ctx); err != nil {
		return fmt.Errorf("job: start client: %w", err)
	}
	q.started = true
	q.logger.Info("job queue started", slog.Any("tasks", q.registry.names()))
	return nil
}

// Stop waits for running jobs and stops the client.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.started {
		return ErrNotStarted
	}
	if err := q.client.Stop(ctx); err != nil {
		return fmt.Errorf("job: stop client: %w", err)
	}
	q.started = false
	q.logger.Info("job queue stopped")
	return nil
}

// Enqueue inserts a job for a registered task.
func (q *Queue) Enqueue(ctx context.Context, name string, payload any) error {
	if _, ok := q.registry.get(name); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	args, err := newTaskArgs(name, payload)
	if err != nil {
		return err
	}
	if _, err := q.client.Insert(ctx, args, nil); err != nil {
		return fmt.Errorf("job: enqueue: %w", err)
	}
	return nil
}

// Healthcheck reports whether the queue runs and its database answers.
func (q *Queue) Healthcheck(ctx context.Context) error {
	q.mu.Lock()
	started := q.started
	q.mu.Unlock()

	if !started {
		return errors.Join(ErrHealthcheckFailed, ErrNotStarted)
	}
	if err := q.pool.Ping(ctx); err != nil {
		return errors.Join(ErrHealthcheckFailed, err)
	}
	return nil
}

// taskArgs is the single River job kind all tasks share.
type taskArgs struct {
	Task    string          `json:"task"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (taskArgs) Kind() string { return "blazeweb:task" }

func newTaskArgs(name string, payload any) (*taskArgs, error) {
	args := &taskArgs{Task: name}
	if payload == nil {
		return args, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("job: marshal payload: %w", err)
	}
	args.Payload = raw
	return args, nil
}

type taskWorker struct {
	river.WorkerDefaults[taskArgs]
	registry *registry
	logger   *slog.Logger
}

func (w *taskWorker) Work(ctx context.Context, j *river.Job[taskArgs]) error {
	run, ok := w.registry.get(j.Args.Task)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, j.Args.Task)
	}

	log := w.logger.With(
		slog.String("task", j.Args.Task),
		slog.Int64("job_id", j.ID),
		slog.Int("attempt", j.Attempt),
	)
	if err := run(ctx, j.Args.Payload); err != nil {
		log.ErrorContext(ctx, "task failed", slog.Any("error", err))
		return err
	}
	log.DebugContext(ctx, "task completed")
	return nil
}

// StartFunc adapts Start to a runtime startup hook.
func (q *Queue) StartFunc() func(context.Context) error {
	return q.Start
}

// Shutdown returns a runtime shutdown hook. Stopping a queue that never
// started is not an error.
func (q *Queue) Shutdown() func(context.Context) error {
	return func(ctx context.Context) error {
		if err := q.Stop(ctx); err != nil && !errors.Is(err, ErrNotStarted) {
			return err
		}
		return nil
	}
}
