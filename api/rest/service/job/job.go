package job

import (
	"context"
	"errors"
	"fmt"

	"github.com/simsaas/simsaas/internal/apperr"
	"github.com/simsaas/simsaas/internal/jobstore"
	"github.com/simsaas/simsaas/internal/metrics"
	"github.com/simsaas/simsaas/internal/models"
	"github.com/simsaas/simsaas/internal/queue"
	"github.com/simsaas/simsaas/pkg/ident"
	"github.com/simsaas/simsaas/pkg/log"
	"gorm.io/gorm"
)

// Enqueuer is the queue operation submission depends on.
type Enqueuer interface {
	Enqueue(ctx context.Context, id string, p queue.Payload) error
}

type Job interface {
	Submit(*SubmitRequest) (*SubmitResponse, error)
	GetStatus(jobID string) (*models.Job, error)
	List() ([]*models.Job, error)
}

type jobService struct {
	ctx   context.Context
	db    *gorm.DB
	store *jobstore.Store
	queue Enqueuer
}

// Service returns a request-scoped job service.
func Service(ctx context.Context, db *gorm.DB, q Enqueuer) Job {
	return &jobService{
		ctx:   ctx,
		db:    db,
		store: jobstore.New(db),
		queue: q,
	}
}

type SubmitRequest struct {
	MeshID int64 `json:"meshId"`
}

type SubmitResponse struct {
	Message       string           `json:"message"`
	JobID         string           `json:"jobId"`
	MeshID        int64            `json:"meshId"`
	QueueID       string           `json:"queueId"`
	CurrentStatus models.JobStatus `json:"currentStatus"`
}

// Submit creates a PENDING job for the mesh and enqueues it. When the
// enqueue fails the job is marked FAILED before the error is returned.
func (j *jobService) Submit(req *SubmitRequest) (*SubmitResponse, error) {
	if req.MeshID <= 0 {
		return nil, apperr.BadRequest("meshId", "Mesh ID must be a positive integer")
	}

	var mesh models.Mesh
	err := j.db.WithContext(j.ctx).Select("id").First(&mesh, req.MeshID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.JobsSubmittedTotal.WithLabelValues(metrics.OutcomeNotFound).Inc()
		return nil, apperr.NotFound("Mesh with ID %d not found.", req.MeshID)
	}
	if err != nil {
		metrics.JobsSubmittedTotal.WithLabelValues(metrics.OutcomeStoreErr).Inc()
		log.Error("failed to look up mesh", "mesh_id", req.MeshID, "op", "job.submit", "error", err)
		return nil, apperr.Internal(err, "Failed to submit the job.")
	}

	job, err := j.store.Create(j.ctx, req.MeshID)
	if err != nil {
		metrics.JobsSubmittedTotal.WithLabelValues(metrics.OutcomeStoreErr).Inc()
		log.Error("failed to create job", "mesh_id", req.MeshID, "op", "job.create", "error", err)
		return nil, apperr.Internal(err, "Failed to submit the job.")
	}

	queueID := queue.TaskID(job.ID)
	payload := queue.Payload{
		JobID:  ident.Format(job.ID),
		MeshID: req.MeshID,
	}

	if err = j.queue.Enqueue(j.ctx, queueID, payload); err != nil {
		metrics.JobsSubmittedTotal.WithLabelValues(metrics.OutcomeEnqueueErr).Inc()
		log.Error("failed to enqueue job",
			"job_id", job.ID,
			"mesh_id", req.MeshID,
			"queue_id", queueID,
			"op", "queue.enqueue",
			"error", err,
		)
		return nil, j.compensate(job.ID, req.MeshID, queueID, err)
	}

	metrics.JobsSubmittedTotal.WithLabelValues(metrics.OutcomeQueued).Inc()
	log.Info("job submitted", "job_id", job.ID, "mesh_id", req.MeshID, "queue_id", queueID)

	return &SubmitResponse{
		Message:       "Job submitted and queued successfully.",
		JobID:         ident.Format(job.ID),
		MeshID:        req.MeshID,
		QueueID:       queueID,
		CurrentStatus: job.Status,
	}, nil
}

// compensate marks a job that never reached the queue as FAILED. If that
// write fails too the job stays PENDING with no queue entry and needs an
// operator; the marker log line and metric exist for alerting on it.
func (j *jobService) compensate(jobID, meshID int64, queueID string, cause error) error {
	partial := fmt.Errorf("%w: %v", apperr.ErrSubmissionPartialFailure, cause)

	if err := j.store.Abandon(context.WithoutCancel(j.ctx), jobID); err != nil {
		metrics.SubmissionCompensationFailuresTotal.Inc()
		log.Error("submission_compensation_failed",
			"job_id", jobID,
			"mesh_id", meshID,
			"queue_id", queueID,
			"op", "job.abandon",
			"error", err,
			"enqueue_error", cause,
		)
		return apperr.Internal(partial, "Failed to queue the job.")
	}

	return apperr.Internal(partial, "Failed to queue the job. The job was marked as FAILED.")
}

// GetStatus reads the job with its Result and mesh chain.
func (j *jobService) GetStatus(jobID string) (*models.Job, error) {
	id, err := ident.Parse(jobID)
	if err != nil {
		return nil, apperr.BadRequest("jobId", "Invalid Job ID format.")
	}

	job, err := j.store.Get(j.ctx, id)
	if errors.Is(err, jobstore.ErrJobNotFound) {
		return nil, apperr.NotFound("Job with ID %s not found.", ident.Format(id))
	}
	if err != nil {
		log.Error("failed to get job", "job_id", id, "op", "job.getStatus", "error", err)
		return nil, apperr.Internal(err, "Failed to retrieve the job.")
	}

	return job, nil
}

// List returns the most recent jobs with their mesh and Result.
func (j *jobService) List() ([]*models.Job, error) {
	jobs, err := j.store.List(j.ctx, jobstore.DefaultListLimit)
	if err != nil {
		log.Error("failed to list jobs", "op", "job.list", "error", err)
		return nil, apperr.Internal(err, "Failed to list jobs.")
	}

	return jobs, nil
}
