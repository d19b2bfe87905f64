// Package worker consumes mesh tasks from the queue. asynq owns
// dequeueing and concurrency; the worker adds a rate limit on handler
// starts and structured lifecycle logging.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/simsaas/simsaas/internal/event"
	"github.com/simsaas/simsaas/internal/queue"
	"github.com/simsaas/simsaas/pkg/env"
	"github.com/simsaas/simsaas/pkg/log"
	"golang.org/x/time/rate"
)

// errThrottled marks a delivery handed back before the handler ran.
var errThrottled = errors.New("worker rate limit wait aborted")

type Config struct {
	Concurrency     int
	RateLimit       int
	RateInterval    time.Duration
	ShutdownTimeout time.Duration
}

// ConfigFromEnv builds a Config from the processed environment.
func ConfigFromEnv(vars env.Environment) Config {
	return Config{
		Concurrency:     vars.WorkerConcurrency,
		RateLimit:       vars.WorkerRateLimit,
		RateInterval:    vars.WorkerRateInterval,
		ShutdownTimeout: vars.ShutdownTimeout,
	}
}

type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	limiter *rate.Limiter
	bus     event.Bus
	cancel  context.CancelFunc
	hooks   sync.WaitGroup
}

// New wires handler behind the rate limiter on the queue's asynq server.
// bus must be the bus the handler publishes to.
func New(q *queue.Service, handler asynq.Handler, bus event.Bus, cfg Config) *Worker {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}

	w := &Worker{
		limiter: newLimiter(cfg.RateLimit, cfg.RateInterval),
		bus:     bus,
	}

	w.server = asynq.NewServer(q.RedisOpt(), asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues:      map[string]int{q.Name(): 1},
		RetryDelayFunc: func(n int, _ error, _ *asynq.Task) time.Duration {
			return q.RetryDelay(n)
		},
		IsFailure:       isFailure,
		ShutdownTimeout: cfg.ShutdownTimeout,
		Logger:          log.Sugared(),
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			id, _ := asynq.GetTaskID(ctx)
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			log.Warn("task delivery failed",
				"queue_id", id,
				"type", task.Type(),
				"retried", retried,
				"max_retry", maxRetry,
				"error", err,
			)
		}),
	})

	w.mux = asynq.NewServeMux()
	w.mux.Use(w.rateLimit)
	w.mux.Handle(queue.TaskTypeProcessMesh, handler)

	return w
}

func newLimiter(limit int, interval time.Duration) *rate.Limiter {
	if limit <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if interval <= 0 {
		interval = time.Second
	}
	return rate.NewLimiter(rate.Every(interval/time.Duration(limit)), limit)
}

// rateLimit gates handler start, not the broker dequeue: a delivery
// waits for a token while holding one of the concurrency slots.
func (w *Worker) rateLimit(next asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		if err := w.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %v", errThrottled, err)
		}
		return next.ProcessTask(ctx, t)
	})
}

// isFailure keeps throttled deliveries from counting against the
// retry policy; the job never left PENDING.
func isFailure(err error) bool {
	return err != nil && !errors.Is(err, errThrottled)
}

// Start begins pulling tasks. It returns once the server is running.
func (w *Worker) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	events, err := w.bus.Subscribe(ctx, event.Filter{})
	if err != nil {
		cancel()
		return err
	}

	w.hooks.Add(1)
	go func() {
		defer w.hooks.Done()
		logEvents(events)
	}()

	if err = w.server.Start(w.mux); err != nil {
		cancel()
		w.hooks.Wait()
		return err
	}

	log.Info("worker started")

	return nil
}

// Stop stops pulling new tasks; in-flight tasks keep running.
func (w *Worker) Stop() {
	w.server.Stop()
}

// Shutdown waits for in-flight tasks up to the shutdown timeout, then
// returns unfinished ones to the queue.
func (w *Worker) Shutdown() {
	w.server.Shutdown()

	if w.cancel != nil {
		w.cancel()
	}
	w.hooks.Wait()

	log.Info("worker stopped")
}

func logEvents(events <-chan event.Event) {
	for e := range events {
		fields := []interface{}{
			"job_id", e.JobID,
			"mesh_id", e.MeshID,
			"queue_id", e.QueueID,
			"attempt", e.Attempt,
		}

		switch e.Type {
		case event.TypeJobRunning:
			log.Info("job running", fields...)
		case event.TypeJobProgress:
			log.Debug("job progress", append(fields, "progress", e.Progress)...)
		case event.TypeJobSucceeded:
			log.Info("job completed", append(fields, "artifact", e.Artifact, "duration", e.Duration)...)
		case event.TypeJobFailed:
			log.Error("job failed", append(fields, "error", e.Error, "duration", e.Duration)...)
		}
	}
}
