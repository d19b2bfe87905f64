package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/simsaas/simsaas/internal/event"
	"github.com/simsaas/simsaas/internal/jobstore"
	"github.com/simsaas/simsaas/internal/mesher"
	"github.com/simsaas/simsaas/internal/metrics"
	"github.com/simsaas/simsaas/internal/models"
	"github.com/simsaas/simsaas/internal/queue"
	"github.com/simsaas/simsaas/pkg/log"
)

// Store is the subset of the job store the handler writes through.
type Store interface {
	MarkRunning(ctx context.Context, id int64) (*models.Job, error)
	Succeed(ctx context.Context, id int64, fileURL string, metrics models.Metrics) (*models.Result, error)
	Fail(ctx context.Context, id int64) error
}

// LogAppender records human-readable lines against a queue entry.
type LogAppender interface {
	AppendLog(ctx context.Context, id, line string) error
}

// Handler processes one mesh task per delivery.
type Handler struct {
	store     Store
	logs      LogAppender
	processor mesher.Processor
	bus       event.Bus
}

func NewHandler(store Store, logs LogAppender, processor mesher.Processor, bus event.Bus) *Handler {
	if bus == nil {
		bus = event.New()
	}

	return &Handler{
		store:     store,
		logs:      logs,
		processor: processor,
		bus:       bus,
	}
}

// ProcessTask moves the job through RUNNING to SUCCESS or FAILED. A
// returned error hands the delivery back to the queue's retry policy.
func (h *Handler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	payload, err := queue.Decode(task.Payload())
	if err != nil {
		log.Error("discarding undecodable task", "type", task.Type(), "error", err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	jobID := payload.ID()
	queueID, ok := asynq.GetTaskID(ctx)
	if !ok {
		queueID = queue.TaskID(jobID)
	}

	attempt := 1
	if retried, ok := asynq.GetRetryCount(ctx); ok {
		attempt = retried + 1
	}

	base := event.Event{
		JobID:   jobID,
		MeshID:  payload.MeshID,
		QueueID: queueID,
		Attempt: attempt,
	}

	// terminal writes must land even when shutdown cancels ctx
	writeCtx := context.WithoutCancel(ctx)

	if _, err = h.store.MarkRunning(ctx, jobID); err != nil {
		switch {
		case errors.Is(err, jobstore.ErrAlreadySucceeded):
			log.Info("job already succeeded, skipping redelivery", "job_id", jobID, "queue_id", queueID)
			return nil
		case errors.Is(err, jobstore.ErrJobNotFound):
			log.Warn("job no longer exists", "job_id", jobID, "queue_id", queueID)
			return fmt.Errorf("job %d: %w", jobID, asynq.SkipRetry)
		default:
			log.Error("failed to mark job running", "job_id", jobID, "mesh_id", payload.MeshID, "queue_id", queueID, "op", "mark_running", "error", err)
			return err
		}
	}

	start := time.Now()
	metrics.JobsActive.Inc()
	defer metrics.JobsActive.Dec()

	h.publish(base, event.TypeJobRunning, nil)
	h.appendLog(writeCtx, queueID, fmt.Sprintf("processing started (attempt %d)", attempt))

	out, err := h.processor.Process(ctx, mesher.Request{JobID: jobID, MeshID: payload.MeshID}, func(percent int) {
		h.publish(base, event.TypeJobProgress, func(e *event.Event) { e.Progress = percent })
		h.appendLog(writeCtx, queueID, fmt.Sprintf("progress %d%%", percent))
	})
	if err == nil {
		_, err = h.store.Succeed(writeCtx, jobID, out.ArtifactURI, out.Metrics)
		if err == nil {
			h.observe(models.JobStatusSuccess, start)
			h.appendLog(writeCtx, queueID, "result stored at "+out.ArtifactURI)
			h.publish(base, event.TypeJobSucceeded, func(e *event.Event) {
				e.Artifact = out.ArtifactURI
				e.Duration = time.Since(start).Seconds()
			})
			return nil
		}
		log.Error("failed to store job result", "job_id", jobID, "mesh_id", payload.MeshID, "queue_id", queueID, "op", "succeed", "error", err)
	}

	if failErr := h.store.Fail(writeCtx, jobID); failErr != nil {
		log.Error("failed to mark job failed", "job_id", jobID, "mesh_id", payload.MeshID, "queue_id", queueID, "op", "fail", "error", failErr)
	}

	h.observe(models.JobStatusFailed, start)
	h.appendLog(writeCtx, queueID, "failed: "+err.Error())
	h.publish(base, event.TypeJobFailed, func(e *event.Event) {
		e.Error = err.Error()
		e.Duration = time.Since(start).Seconds()
	})

	return err
}

func (h *Handler) observe(status models.JobStatus, start time.Time) {
	metrics.JobRunsTotal.WithLabelValues(string(status)).Inc()
	metrics.JobRunDurationSeconds.WithLabelValues(string(status)).Observe(time.Since(start).Seconds())
}

func (h *Handler) publish(base event.Event, t event.Type, mutate func(*event.Event)) {
	e := base
	e.Type = t
	e.Timestamp = time.Now().UTC()
	if mutate != nil {
		mutate(&e)
	}
	h.bus.Publish(e)
}

func (h *Handler) appendLog(ctx context.Context, queueID, line string) {
	if h.logs == nil {
		return
	}
	if err := h.logs.AppendLog(ctx, queueID, line); err != nil {
		log.Warn("failed to append queue log", "queue_id", queueID, "error", err)
	}
}
