package jobstore

import (
	"context"
	"testing"

	"github.com/simsaas/simsaas/internal/models"
	"github.com/simsaas/simsaas/internal/testutil"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type StoreTestSuite struct {
	suite.Suite
	db    *gorm.DB
	store *Store
	mesh  *models.Mesh
	ctx   context.Context
}

func (s *StoreTestSuite) SetupTest() {
	s.db = testutil.OpenTestDB(s.T())
	s.store = New(s.db)
	s.mesh = testutil.SeedMesh(s.T(), s.db)
	s.ctx = context.Background()
}

func (s *StoreTestSuite) TearDownTest() {
	testutil.CloseDB(s.db)
}

// requireConsistent checks the status/timestamp/result coupling of a job.
func (s *StoreTestSuite) requireConsistent(id int64) *models.Job {
	job, err := s.store.Get(s.ctx, id)
	s.Require().NoError(err)

	s.Equal(job.Status == models.JobStatusPending, job.StartedAt == nil, "startedAt for %s", job.Status)
	s.Equal(!job.Status.Terminal(), job.FinishedAt == nil, "finishedAt for %s", job.Status)
	s.Equal(job.Status == models.JobStatusSuccess, job.Result != nil, "result for %s", job.Status)
	if job.StartedAt != nil && job.FinishedAt != nil {
		s.False(job.FinishedAt.Before(*job.StartedAt))
	}

	return job
}

func (s *StoreTestSuite) TestCreatePending() {
	job, err := s.store.Create(s.ctx, s.mesh.ID)
	s.Require().NoError(err)
	s.NotZero(job.ID)
	s.Equal(models.JobStatusPending, job.Status)

	s.requireConsistent(job.ID)
}

func (s *StoreTestSuite) TestCreateUnknownMeshViolatesForeignKey() {
	_, err := s.store.Create(s.ctx, 999999)
	s.Error(err)
	testutil.AssertCount(s.T(), s.db, &models.Job{}, 0)
}

func (s *StoreTestSuite) TestSuccessPath() {
	job, err := s.store.Create(s.ctx, s.mesh.ID)
	s.Require().NoError(err)

	running, err := s.store.MarkRunning(s.ctx, job.ID)
	s.Require().NoError(err)
	s.Equal(models.JobStatusRunning, running.Status)
	s.NotNil(running.StartedAt)
	s.requireConsistent(job.ID)

	result, err := s.store.Succeed(s.ctx, job.ID, "mock/results/job_1_mesh_1.dat", models.Metrics{"nodes": 800})
	s.Require().NoError(err)
	s.Equal(job.ID, result.JobID)

	got := s.requireConsistent(job.ID)
	s.Equal(models.JobStatusSuccess, got.Status)
	s.Equal("mock/results/job_1_mesh_1.dat", got.Result.FileURL)
	s.Equal(float64(800), got.Result.Metrics.Data()["nodes"])
	s.Require().NotNil(got.Mesh)
	s.Require().NotNil(got.Mesh.Geometry)
	s.Require().NotNil(got.Mesh.Geometry.Project)
	s.Equal("wing", got.Mesh.Geometry.Project.Name)
}

func (s *StoreTestSuite) TestSucceedRequiresRunning() {
	job, err := s.store.Create(s.ctx, s.mesh.ID)
	s.Require().NoError(err)

	_, err = s.store.Succeed(s.ctx, job.ID, "x", nil)
	s.ErrorIs(err, ErrInvalidTransition)

	// the transaction rolled back, so no result exists
	testutil.AssertCount(s.T(), s.db, &models.Result{}, 0)
	s.requireConsistent(job.ID)
}

func (s *StoreTestSuite) TestSucceedRollsBackOnResultFailure() {
	job, err := s.store.Create(s.ctx, s.mesh.ID)
	s.Require().NoError(err)
	_, err = s.store.MarkRunning(s.ctx, job.ID)
	s.Require().NoError(err)

	// a pre-existing result collides with the unique job_id index
	s.Require().NoError(s.db.Exec(
		"INSERT INTO results (job_id, file_url, created_at) VALUES (?, ?, CURRENT_TIMESTAMP)",
		job.ID, "stale",
	).Error)

	_, err = s.store.Succeed(s.ctx, job.ID, "fresh", models.Metrics{})
	s.Error(err)

	var reloaded models.Job
	s.Require().NoError(s.db.First(&reloaded, job.ID).Error)
	s.Equal(models.JobStatusRunning, reloaded.Status)
	s.Nil(reloaded.FinishedAt)
}

func (s *StoreTestSuite) TestFailAndRetry() {
	job, err := s.store.Create(s.ctx, s.mesh.ID)
	s.Require().NoError(err)

	_, err = s.store.MarkRunning(s.ctx, job.ID)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Fail(s.ctx, job.ID))

	failed := s.requireConsistent(job.ID)
	s.Equal(models.JobStatusFailed, failed.Status)

	// redelivery restarts the same record in place
	retried, err := s.store.MarkRunning(s.ctx, job.ID)
	s.Require().NoError(err)
	s.Equal(models.JobStatusRunning, retried.Status)
	s.Nil(retried.FinishedAt)
	s.requireConsistent(job.ID)

	testutil.AssertCount(s.T(), s.db, &models.Job{}, 1)
}

func (s *StoreTestSuite) TestFailRequiresRunning() {
	job, err := s.store.Create(s.ctx, s.mesh.ID)
	s.Require().NoError(err)

	s.ErrorIs(s.store.Fail(s.ctx, job.ID), ErrInvalidTransition)
	s.ErrorIs(s.store.Fail(s.ctx, 424242), ErrJobNotFound)
}

func (s *StoreTestSuite) TestMarkRunningNeverRerunsSuccess() {
	job, err := s.store.Create(s.ctx, s.mesh.ID)
	s.Require().NoError(err)
	_, err = s.store.MarkRunning(s.ctx, job.ID)
	s.Require().NoError(err)
	_, err = s.store.Succeed(s.ctx, job.ID, "done", nil)
	s.Require().NoError(err)

	_, err = s.store.MarkRunning(s.ctx, job.ID)
	s.ErrorIs(err, ErrAlreadySucceeded)
	s.requireConsistent(job.ID)
}

func (s *StoreTestSuite) TestMarkRunningMissing() {
	_, err := s.store.MarkRunning(s.ctx, 31337)
	s.ErrorIs(err, ErrJobNotFound)
}

func (s *StoreTestSuite) TestAbandon() {
	job, err := s.store.Create(s.ctx, s.mesh.ID)
	s.Require().NoError(err)

	s.Require().NoError(s.store.Abandon(s.ctx, job.ID))

	got := s.requireConsistent(job.ID)
	s.Equal(models.JobStatusFailed, got.Status)
	s.Nil(got.Result)

	// only PENDING jobs can be abandoned
	s.ErrorIs(s.store.Abandon(s.ctx, job.ID), ErrInvalidTransition)
}

func (s *StoreTestSuite) TestGetMissing() {
	_, err := s.store.Get(s.ctx, 1)
	s.ErrorIs(err, ErrJobNotFound)
}

func (s *StoreTestSuite) TestGetIsStableForTerminalJobs() {
	job, err := s.store.Create(s.ctx, s.mesh.ID)
	s.Require().NoError(err)
	_, err = s.store.MarkRunning(s.ctx, job.ID)
	s.Require().NoError(err)
	_, err = s.store.Succeed(s.ctx, job.ID, "done", models.Metrics{"elements": 3000})
	s.Require().NoError(err)

	first, err := s.store.Get(s.ctx, job.ID)
	s.Require().NoError(err)
	second, err := s.store.Get(s.ctx, job.ID)
	s.Require().NoError(err)
	s.Equal(first, second)
}

func (s *StoreTestSuite) TestListNewestFirstWithLimit() {
	for i := 0; i < 55; i++ {
		_, err := s.store.Create(s.ctx, s.mesh.ID)
		s.Require().NoError(err)
	}

	jobs, err := s.store.List(s.ctx, 0)
	s.Require().NoError(err)
	s.Len(jobs, DefaultListLimit)
	s.Equal(int64(55), jobs[0].ID)
	for i := 1; i < len(jobs); i++ {
		s.Greater(jobs[i-1].ID, jobs[i].ID)
	}
	s.Require().NotNil(jobs[0].Mesh)
	s.Equal(s.mesh.ID, jobs[0].Mesh.ID)
	s.Nil(jobs[0].Result)
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}
