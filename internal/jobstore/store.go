// Package jobstore owns every write to the durable job record. Each
// transition is a single conditional UPDATE so concurrent or
// redelivered work items cannot move a job backwards.
package jobstore

import (
	"context"
	"errors"
	"time"

	"github.com/simsaas/simsaas/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const DefaultListLimit = 50

var (
	ErrJobNotFound       = errors.New("job not found")
	ErrAlreadySucceeded  = errors.New("job already succeeded")
	ErrInvalidTransition = errors.New("invalid job status transition")
)

type Store struct {
	db  *gorm.DB
	now func() time.Time
}

func New(db *gorm.DB) *Store {
	return &Store{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Create persists a PENDING job for meshID.
func (s *Store) Create(ctx context.Context, meshID int64) (*models.Job, error) {
	job := &models.Job{
		MeshID: meshID,
		Status: models.JobStatusPending,
	}

	if err := s.db.WithContext(ctx).Create(job).Error; err != nil {
		return nil, err
	}

	return job, nil
}

// MarkRunning moves a job to RUNNING and stamps startedAt. Redelivered
// items may find the job FAILED (retry) or RUNNING (worker crash); both
// restart in place. A SUCCESS job is never rerun.
func (s *Store) MarkRunning(ctx context.Context, id int64) (*models.Job, error) {
	now := s.now()

	res := s.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ? AND status IN ?", id, []models.JobStatus{
			models.JobStatusPending,
			models.JobStatusRunning,
			models.JobStatusFailed,
		}).
		Updates(map[string]interface{}{
			"status":      models.JobStatusRunning,
			"started_at":  now,
			"finished_at": nil,
		})
	if res.Error != nil {
		return nil, res.Error
	}

	if res.RowsAffected == 0 {
		job, err := s.find(ctx, id)
		if err != nil {
			return nil, err
		}
		if job.Status == models.JobStatusSuccess {
			return nil, ErrAlreadySucceeded
		}
		return nil, ErrInvalidTransition
	}

	return s.find(ctx, id)
}

// Succeed flips a RUNNING job to SUCCESS and creates its Result in one
// transaction.
func (s *Store) Succeed(ctx context.Context, id int64, fileURL string, metrics models.Metrics) (*models.Result, error) {
	result := &models.Result{
		JobID:   id,
		FileURL: fileURL,
		Metrics: datatypes.NewJSONType(metrics),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Job{}).
			Where("id = ? AND status = ?", id, models.JobStatusRunning).
			Updates(map[string]interface{}{
				"status":      models.JobStatusSuccess,
				"finished_at": s.now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvalidTransition
		}

		return tx.Create(result).Error
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Fail moves a RUNNING job to FAILED and stamps finishedAt.
func (s *Store) Fail(ctx context.Context, id int64) error {
	return s.finish(ctx, id, models.JobStatusRunning, func(now time.Time) map[string]interface{} {
		return map[string]interface{}{
			"status":      models.JobStatusFailed,
			"finished_at": now,
		}
	})
}

// Abandon marks a PENDING job that never reached the queue as FAILED.
// startedAt is stamped alongside finishedAt so only PENDING jobs carry
// a null startedAt.
func (s *Store) Abandon(ctx context.Context, id int64) error {
	return s.finish(ctx, id, models.JobStatusPending, func(now time.Time) map[string]interface{} {
		return map[string]interface{}{
			"status":      models.JobStatusFailed,
			"started_at":  now,
			"finished_at": now,
		}
	})
}

func (s *Store) finish(ctx context.Context, id int64, from models.JobStatus, values func(time.Time) map[string]interface{}) error {
	res := s.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ? AND status = ?", id, from).
		Updates(values(s.now()))
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		if _, err := s.find(ctx, id); err != nil {
			return err
		}
		return ErrInvalidTransition
	}

	return nil
}

// Get returns a job with its Result and the mesh, geometry and project
// it belongs to.
func (s *Store) Get(ctx context.Context, id int64) (*models.Job, error) {
	var job models.Job

	err := s.db.WithContext(ctx).
		Preload("Result").
		Preload("Mesh.Geometry.Project").
		First(&job, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}

	return &job, nil
}

// List returns the most recent jobs first with their mesh and Result.
func (s *Store) List(ctx context.Context, limit int) ([]*models.Job, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var jobs []*models.Job
	err := s.db.WithContext(ctx).
		Preload("Mesh").
		Preload("Result").
		Order("id desc").
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}

	return jobs, nil
}

func (s *Store) find(ctx context.Context, id int64) (*models.Job, error) {
	var job models.Job

	err := s.db.WithContext(ctx).First(&job, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}

	return &job, nil
}
