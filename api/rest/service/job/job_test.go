package job

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/simsaas/simsaas/internal/apperr"
	"github.com/simsaas/simsaas/internal/metrics"
	metrictestutil "github.com/simsaas/simsaas/internal/metrics/testutil"
	"github.com/simsaas/simsaas/internal/models"
	"github.com/simsaas/simsaas/internal/queue"
	"github.com/simsaas/simsaas/internal/testutil"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type enqueueFunc func(ctx context.Context, id string, p queue.Payload) error

func (f enqueueFunc) Enqueue(ctx context.Context, id string, p queue.Payload) error {
	return f(ctx, id, p)
}

type recordingQueue struct {
	ids      []string
	payloads []queue.Payload
}

func (r *recordingQueue) Enqueue(_ context.Context, id string, p queue.Payload) error {
	r.ids = append(r.ids, id)
	r.payloads = append(r.payloads, p)
	return nil
}

type JobServiceTestSuite struct {
	suite.Suite
	db   *gorm.DB
	mesh *models.Mesh
	ctx  context.Context
}

func (s *JobServiceTestSuite) SetupTest() {
	s.db = testutil.OpenTestDB(s.T())
	s.mesh = testutil.SeedMesh(s.T(), s.db)
	s.ctx = context.Background()
}

func (s *JobServiceTestSuite) TearDownTest() {
	testutil.CloseDB(s.db)
}

func (s *JobServiceTestSuite) TestSubmitCreatesPendingJobAndOneEntry() {
	q := &recordingQueue{}

	resp, err := Service(s.ctx, s.db, q).Submit(&SubmitRequest{MeshID: s.mesh.ID})
	s.Require().NoError(err)

	want := &SubmitResponse{
		Message:       "Job submitted and queued successfully.",
		MeshID:        s.mesh.ID,
		CurrentStatus: models.JobStatusPending,
	}
	if diff := cmp.Diff(want, resp, cmpopts.IgnoreFields(SubmitResponse{}, "JobID", "QueueID")); diff != "" {
		s.Failf("unexpected submission", "(-want +got):\n%s", diff)
	}
	s.Equal("job_"+resp.JobID, resp.QueueID)

	s.Equal([]string{resp.QueueID}, q.ids)
	s.Equal(resp.JobID, q.payloads[0].JobID)
	s.Equal(s.mesh.ID, q.payloads[0].MeshID)

	testutil.AssertCount(s.T(), s.db, &models.Job{}, 1)

	job, err := Service(s.ctx, s.db, q).GetStatus(resp.JobID)
	s.Require().NoError(err)
	s.Equal(models.JobStatusPending, job.Status)
	s.Nil(job.StartedAt)
	s.Nil(job.FinishedAt)
	s.Nil(job.Result)
}

func (s *JobServiceTestSuite) TestSubmitEnqueuesIntoRedis() {
	redis := miniredis.RunT(s.T())
	q := queue.New(queue.Config{RedisAddr: redis.Addr(), Name: "svc-test", Attempts: 3, Backoff: time.Second})
	defer q.Close()

	resp, err := Service(s.ctx, s.db, q).Submit(&SubmitRequest{MeshID: s.mesh.ID})
	s.Require().NoError(err)

	entry, err := q.Entry(s.ctx, resp.QueueID)
	s.Require().NoError(err)
	s.Equal(queue.StateWaiting, entry.State)
	s.Require().NotNil(entry.MeshID)
	s.Equal(s.mesh.ID, *entry.MeshID)
	s.Equal(resp.JobID, entry.JobID)
}

func (s *JobServiceTestSuite) TestSubmitMissingMesh() {
	before := metrictestutil.CounterValue(s.T(), metrics.JobsSubmittedTotal, metrics.OutcomeNotFound)
	q := &recordingQueue{}

	_, err := Service(s.ctx, s.db, q).Submit(&SubmitRequest{MeshID: 999999})
	s.True(apperr.IsNotFound(err))

	testutil.AssertCount(s.T(), s.db, &models.Job{}, 0)
	s.Empty(q.ids)
	s.Equal(before+1, metrictestutil.CounterValue(s.T(), metrics.JobsSubmittedTotal, metrics.OutcomeNotFound))
}

func (s *JobServiceTestSuite) TestSubmitInvalidMesh() {
	_, err := Service(s.ctx, s.db, &recordingQueue{}).Submit(&SubmitRequest{MeshID: 0})
	s.True(apperr.IsBadRequest(err))
}

func (s *JobServiceTestSuite) TestSubmitEnqueueFailureMarksFailed() {
	q := enqueueFunc(func(context.Context, string, queue.Payload) error {
		return errors.New("redis: connection refused")
	})

	_, err := Service(s.ctx, s.db, q).Submit(&SubmitRequest{MeshID: s.mesh.ID})
	s.Require().Error(err)
	s.Equal(apperr.CodeInternal, apperr.CodeOf(err))
	s.ErrorIs(err, apperr.ErrSubmissionPartialFailure)

	var appErr *apperr.Error
	s.Require().ErrorAs(err, &appErr)
	s.NotContains(appErr.Message, "connection refused")

	var jobs []models.Job
	s.Require().NoError(s.db.Preload("Result").Find(&jobs).Error)
	s.Require().Len(jobs, 1)
	s.Equal(models.JobStatusFailed, jobs[0].Status)
	s.NotNil(jobs[0].StartedAt)
	s.NotNil(jobs[0].FinishedAt)
	s.Nil(jobs[0].Result)
	testutil.AssertCount(s.T(), s.db, &models.Result{}, 0)
}

func (s *JobServiceTestSuite) TestSubmitCompensationFailure() {
	before := metrictestutil.Value(s.T(), metrics.SubmissionCompensationFailuresTotal)

	// the job leaves PENDING behind the service's back, so the FAILED
	// mark cannot apply
	q := enqueueFunc(func(_ context.Context, id string, p queue.Payload) error {
		s.Require().NoError(s.db.Model(&models.Job{}).
			Where("1 = 1").
			Update("status", models.JobStatusRunning).Error)
		return errors.New("enqueue timeout")
	})

	_, err := Service(s.ctx, s.db, q).Submit(&SubmitRequest{MeshID: s.mesh.ID})
	s.Equal(apperr.CodeInternal, apperr.CodeOf(err))
	s.ErrorIs(err, apperr.ErrSubmissionPartialFailure)

	s.Equal(before+1, metrictestutil.Value(s.T(), metrics.SubmissionCompensationFailuresTotal))
}

func (s *JobServiceTestSuite) TestGetStatusBadID() {
	svc := Service(s.ctx, s.db, &recordingQueue{})

	for _, id := range []string{"not-a-number", "", "1.5", "99999999999999999999", "-1"} {
		_, err := svc.GetStatus(id)
		s.True(apperr.IsBadRequest(err), id)
	}
}

func (s *JobServiceTestSuite) TestGetStatusMissing() {
	_, err := Service(s.ctx, s.db, &recordingQueue{}).GetStatus("9007199254740993")
	s.True(apperr.IsNotFound(err))
}

func (s *JobServiceTestSuite) TestGetStatusIncludesChain() {
	q := &recordingQueue{}
	resp, err := Service(s.ctx, s.db, q).Submit(&SubmitRequest{MeshID: s.mesh.ID})
	s.Require().NoError(err)

	job, err := Service(s.ctx, s.db, q).GetStatus(resp.JobID)
	s.Require().NoError(err)
	s.Require().NotNil(job.Mesh)
	s.Require().NotNil(job.Mesh.Geometry)
	s.Require().NotNil(job.Mesh.Geometry.Project)
}

func (s *JobServiceTestSuite) TestList() {
	q := &recordingQueue{}
	for i := 0; i < 3; i++ {
		_, err := Service(s.ctx, s.db, q).Submit(&SubmitRequest{MeshID: s.mesh.ID})
		s.Require().NoError(err)
	}

	jobs, err := Service(s.ctx, s.db, q).List()
	s.Require().NoError(err)
	s.Require().Len(jobs, 3)
	s.Greater(jobs[0].ID, jobs[2].ID)
	s.NotNil(jobs[0].Mesh)
}

func TestJobServiceTestSuite(t *testing.T) {
	suite.Run(t, new(JobServiceTestSuite))
}
