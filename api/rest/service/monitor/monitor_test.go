package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/simsaas/simsaas/internal/apperr"
	"github.com/simsaas/simsaas/internal/queue"
	"github.com/simsaas/simsaas/pkg/ident"
	"github.com/stretchr/testify/suite"
)

type brokenQueue struct{}

func (brokenQueue) List(context.Context, []queue.State, int, int, bool) ([]*queue.Entry, error) {
	return nil, errors.New("redis down")
}

func (brokenQueue) Logs(context.Context, string, int64, int64) (*queue.LogPage, error) {
	return nil, errors.New("redis down")
}

func (brokenQueue) Entry(context.Context, string) (*queue.Entry, error) {
	return nil, errors.New("redis down")
}

type MonitorTestSuite struct {
	suite.Suite
	redis *miniredis.Miniredis
	q     *queue.Service
	ctx   context.Context
}

func (s *MonitorTestSuite) SetupTest() {
	s.redis = miniredis.RunT(s.T())
	s.q = queue.New(queue.Config{
		RedisAddr:             s.redis.Addr(),
		Name:                  "monitor-test",
		Attempts:              3,
		Backoff:               time.Second,
		CompletedRetentionAge: time.Hour,
		FailedRetentionAge:    time.Hour,
	})
	s.ctx = context.Background()

	for i := int64(1); i <= 5; i++ {
		s.Require().NoError(s.q.Enqueue(s.ctx, queue.TaskID(i), queue.Payload{
			JobID:      ident.Format(i),
			MeshID:     100 + i,
			EnqueuedAt: 1_700_000_000_000 + i,
		}))
	}
}

func (s *MonitorTestSuite) TearDownTest() {
	s.NoError(s.q.Close())
}

func intPtr(v int) *int     { return &v }
func boolPtr(v bool) *bool  { return &v }
func i64Ptr(v int64) *int64 { return &v }

func (s *MonitorTestSuite) TestDefaults() {
	entries, err := Service(s.ctx, s.q).JobList(&ListRequest{})
	s.Require().NoError(err)
	s.Require().Len(entries, 5)
	s.Equal("job_5", entries[0].ID)
	s.Equal(queue.StateWaiting, entries[0].State)
	s.Equal(int64(1_700_000_000_005), entries[0].CreatedAt)
	s.Equal(int64(105), *entries[0].MeshID)
}

func (s *MonitorTestSuite) TestRangeRespectsOrder() {
	svc := Service(s.ctx, s.q)

	desc, err := svc.JobList(&ListRequest{Start: intPtr(0), End: intPtr(1)})
	s.Require().NoError(err)
	s.Require().Len(desc, 2)
	s.Equal([]string{"job_5", "job_4"}, []string{desc[0].ID, desc[1].ID})

	asc, err := svc.JobList(&ListRequest{Start: intPtr(0), End: intPtr(1), Ascending: boolPtr(true)})
	s.Require().NoError(err)
	s.Require().Len(asc, 2)
	s.Equal([]string{"job_1", "job_2"}, []string{asc[0].ID, asc[1].ID})
}

func (s *MonitorTestSuite) TestStateValidation() {
	svc := Service(s.ctx, s.q)

	_, err := svc.JobList(&ListRequest{States: []string{"waiting", "running"}})
	s.True(apperr.IsBadRequest(err))

	_, err = svc.JobList(&ListRequest{Start: intPtr(-1)})
	s.True(apperr.IsBadRequest(err))

	_, err = svc.JobList(&ListRequest{End: intPtr(-2)})
	s.True(apperr.IsBadRequest(err))

	entries, err := svc.JobList(&ListRequest{States: []string{"completed"}})
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *MonitorTestSuite) TestLogs() {
	id := queue.TaskID(1)
	s.Require().NoError(s.q.AppendLog(s.ctx, id, "processing started (attempt 1)"))
	s.Require().NoError(s.q.AppendLog(s.ctx, id, "progress 20%"))

	page, err := Service(s.ctx, s.q).JobLogs(&LogsRequest{QueueID: id})
	s.Require().NoError(err)
	s.Equal(int64(2), page.Count)
	s.Len(page.Logs, 2)

	page, err = Service(s.ctx, s.q).JobLogs(&LogsRequest{QueueID: id, Start: i64Ptr(1), End: i64Ptr(1)})
	s.Require().NoError(err)
	s.Len(page.Logs, 1)

	_, err = Service(s.ctx, s.q).JobLogs(&LogsRequest{})
	s.True(apperr.IsBadRequest(err))
}

func (s *MonitorTestSuite) TestJob() {
	entry, err := Service(s.ctx, s.q).Job("job_3")
	s.Require().NoError(err)
	s.Equal("3", entry.JobID)

	_, err = Service(s.ctx, s.q).Job("job_404")
	s.True(apperr.IsNotFound(err))
}

func (s *MonitorTestSuite) TestQueueErrorsAreInternal() {
	svc := Service(s.ctx, brokenQueue{})

	_, err := svc.JobList(&ListRequest{})
	s.Equal(apperr.CodeInternal, apperr.CodeOf(err))

	_, err = svc.JobLogs(&LogsRequest{QueueID: "job_1"})
	s.Equal(apperr.CodeInternal, apperr.CodeOf(err))

	_, err = svc.Job("job_1")
	s.Equal(apperr.CodeInternal, apperr.CodeOf(err))
}

func TestMonitorTestSuite(t *testing.T) {
	suite.Run(t, new(MonitorTestSuite))
}
