package queue

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/simsaas/simsaas/internal/metrics"
	metrictestutil "github.com/simsaas/simsaas/internal/metrics/testutil"
	"github.com/simsaas/simsaas/pkg/ident"
	"github.com/stretchr/testify/suite"
)

type QueueTestSuite struct {
	suite.Suite
	redis *miniredis.Miniredis
	svc   *Service
	ctx   context.Context
}

func testConfig(addr string) Config {
	return Config{
		RedisAddr:               addr,
		Name:                    "simsaas-test",
		Attempts:                3,
		Backoff:                 time.Second,
		CompletedRetentionCount: 1000,
		CompletedRetentionAge:   7 * 24 * time.Hour,
		FailedRetentionCount:    5000,
		FailedRetentionAge:      14 * 24 * time.Hour,
	}
}

func (s *QueueTestSuite) SetupTest() {
	s.redis = miniredis.RunT(s.T())
	s.svc = New(testConfig(s.redis.Addr()))
	s.ctx = context.Background()
}

func (s *QueueTestSuite) TearDownTest() {
	s.NoError(s.svc.Close())
}

func (s *QueueTestSuite) enqueue(jobID, meshID int64, enqueuedAt int64) string {
	id := TaskID(jobID)
	s.Require().NoError(s.svc.Enqueue(s.ctx, id, Payload{
		JobID:      ident.Format(jobID),
		MeshID:     meshID,
		EnqueuedAt: enqueuedAt,
	}))
	return id
}

func (s *QueueTestSuite) TestTaskID() {
	s.Equal("job_42", TaskID(42))
	s.Equal("job_9007199254740993", TaskID(1<<53+1))
}

func (s *QueueTestSuite) TestEnqueueAndEntry() {
	id := s.enqueue(7, 456, 1_700_000_000_000)

	entry, err := s.svc.Entry(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("job_7", entry.ID)
	s.Equal(TaskTypeProcessMesh, entry.Name)
	s.Equal(StateWaiting, entry.State)
	s.Equal(int64(1_700_000_000_000), entry.CreatedAt)
	s.Require().NotNil(entry.MeshID)
	s.Equal(int64(456), *entry.MeshID)
	s.Equal("7", entry.JobID)

	state, err := s.svc.State(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(StateWaiting, state)
}

func (s *QueueTestSuite) TestEnqueueConflict() {
	s.enqueue(1, 1, 1)
	err := s.svc.Enqueue(s.ctx, TaskID(1), Payload{JobID: "1", MeshID: 1})
	s.ErrorIs(err, asynq.ErrTaskIDConflict)
}

func (s *QueueTestSuite) TestEnqueueStampsTime() {
	before := time.Now().UnixMilli()
	s.Require().NoError(s.svc.Enqueue(s.ctx, TaskID(3), Payload{JobID: "3", MeshID: 1}))

	entry, err := s.svc.Entry(s.ctx, TaskID(3))
	s.Require().NoError(err)
	s.GreaterOrEqual(entry.CreatedAt, before)
}

func (s *QueueTestSuite) TestEntryMissing() {
	_, err := s.svc.Entry(s.ctx, "job_404")
	s.ErrorIs(err, ErrEntryNotFound)

	s.enqueue(1, 1, 1)
	_, err = s.svc.State(s.ctx, "job_404")
	s.ErrorIs(err, ErrEntryNotFound)
}

func (s *QueueTestSuite) TestListEmptyQueue() {
	entries, err := s.svc.List(s.ctx, nil, 0, 19, false)
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *QueueTestSuite) TestListRangeAndOrder() {
	for i := int64(1); i <= 5; i++ {
		s.enqueue(i, 10+i, 1_000*i)
	}

	desc, err := s.svc.List(s.ctx, nil, 0, 1, false)
	s.Require().NoError(err)
	s.Require().Len(desc, 2)
	s.Equal("job_5", desc[0].ID)
	s.Equal("job_4", desc[1].ID)

	asc, err := s.svc.List(s.ctx, []State{StateWaiting}, 0, 1, true)
	s.Require().NoError(err)
	s.Require().Len(asc, 2)
	s.Equal("job_1", asc[0].ID)
	s.Equal("job_2", asc[1].ID)

	all, err := s.svc.List(s.ctx, nil, 0, -1, true)
	s.Require().NoError(err)
	s.Len(all, 5)

	tail, err := s.svc.List(s.ctx, nil, 3, 19, true)
	s.Require().NoError(err)
	s.Len(tail, 2)

	none, err := s.svc.List(s.ctx, nil, 10, 19, true)
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *QueueTestSuite) TestListFiltersByState() {
	s.enqueue(1, 1, 1_000)

	entries, err := s.svc.List(s.ctx, []State{StateCompleted, StateFailed, StatePrioritized}, 0, 19, false)
	s.Require().NoError(err)
	s.Empty(entries)

	entries, err = s.svc.List(s.ctx, []State{StateWaiting, StateWaiting}, 0, 19, false)
	s.Require().NoError(err)
	s.Len(entries, 1)
}

func (s *QueueTestSuite) TestListSkipsMalformedEntries() {
	s.enqueue(1, 1, 1_000)

	client := asynq.NewClient(s.svc.RedisOpt())
	defer client.Close()

	// no enqueue timestamp
	_, err := client.Enqueue(asynq.NewTask(TaskTypeProcessMesh, []byte(`{"jobId":"2","meshId":3}`)),
		asynq.Queue(s.svc.Name()), asynq.TaskID("job_2"))
	s.Require().NoError(err)

	// not json at all
	_, err = client.Enqueue(asynq.NewTask(TaskTypeProcessMesh, []byte(`garbage`)),
		asynq.Queue(s.svc.Name()), asynq.TaskID("job_3"))
	s.Require().NoError(err)

	// timestamp present but the mesh id fails validation
	_, err = client.Enqueue(asynq.NewTask(TaskTypeProcessMesh, []byte(`{"jobId":"4","meshId":-1,"enqueuedAt":5000}`)),
		asynq.Queue(s.svc.Name()), asynq.TaskID("job_4"))
	s.Require().NoError(err)

	entries, err := s.svc.List(s.ctx, nil, 0, 19, true)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal("job_1", entries[0].ID)
	s.NotNil(entries[0].MeshID)
	s.Equal("job_4", entries[1].ID)
	s.Nil(entries[1].MeshID)
}

func (s *QueueTestSuite) TestListArchivedAsFailed() {
	s.enqueue(1, 1, 1_000)
	s.enqueue(2, 1, 2_000)
	s.Require().NoError(s.svc.inspector.ArchiveTask(s.svc.Name(), "job_1"))

	failed, err := s.svc.List(s.ctx, []State{StateFailed}, 0, 19, false)
	s.Require().NoError(err)
	s.Require().Len(failed, 1)
	s.Equal("job_1", failed[0].ID)
	s.Equal(StateFailed, failed[0].State)
}

func (s *QueueTestSuite) TestLogs() {
	id := TaskID(9)
	for _, line := range []string{"processing started", "progress 50%", "result stored"} {
		s.Require().NoError(s.svc.AppendLog(s.ctx, id, line))
	}

	page, err := s.svc.Logs(s.ctx, id, 0, -1)
	s.Require().NoError(err)
	s.Equal(int64(3), page.Count)
	s.Equal([]string{"processing started", "progress 50%", "result stored"}, page.Logs)

	page, err = s.svc.Logs(s.ctx, id, 1, 1)
	s.Require().NoError(err)
	s.Equal(int64(3), page.Count)
	s.Equal([]string{"progress 50%"}, page.Logs)

	ttl := s.redis.TTL(logKey(s.svc.Name(), id))
	s.Equal(14*24*time.Hour, ttl)
}

func (s *QueueTestSuite) TestLogsMissingEntry() {
	page, err := s.svc.Logs(s.ctx, "job_1", 0, -1)
	s.Require().NoError(err)
	s.Equal(int64(0), page.Count)
	s.NotNil(page.Logs)
	s.Empty(page.Logs)
}

func (s *QueueTestSuite) TestLogsBrokerDown() {
	s.redis.Close()

	_, err := s.svc.Logs(s.ctx, "job_1", 0, -1)
	s.Error(err)
}

func (s *QueueTestSuite) TestRetryDelay() {
	s.Equal(time.Second, s.svc.RetryDelay(0))
	s.Equal(2*time.Second, s.svc.RetryDelay(1))
	s.Equal(4*time.Second, s.svc.RetryDelay(2))
	s.Equal(time.Second, s.svc.RetryDelay(-1))
}

func (s *QueueTestSuite) TestJanitorPrunesFailedBeyondCount() {
	cfg := testConfig(s.redis.Addr())
	cfg.FailedRetentionCount = 2
	cfg.FailedRetentionAge = 0
	svc := New(cfg)
	defer svc.Close()

	for i := int64(1); i <= 4; i++ {
		id := TaskID(i)
		s.Require().NoError(svc.Enqueue(s.ctx, id, Payload{JobID: ident.Format(i), MeshID: 1, EnqueuedAt: 1_000 * i}))
		s.Require().NoError(svc.AppendLog(s.ctx, id, "failed: boom"))
		s.Require().NoError(svc.inspector.ArchiveTask(svc.Name(), id))
	}

	before := metrictestutil.CounterValue(s.T(), metrics.QueuePrunedTotal, string(StateFailed))

	janitor, err := NewJanitor(svc, "@every 1m")
	s.Require().NoError(err)

	pruned, err := janitor.Prune(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, pruned[StateFailed])
	s.Equal(0, pruned[StateCompleted])

	remaining, err := svc.List(s.ctx, []State{StateFailed}, 0, -1, true)
	s.Require().NoError(err)
	s.Len(remaining, 2)

	s.Equal(before+2, metrictestutil.CounterValue(s.T(), metrics.QueuePrunedTotal, string(StateFailed)))

	logs := 0
	for i := int64(1); i <= 4; i++ {
		if s.redis.Exists(logKey(svc.Name(), TaskID(i))) {
			logs++
		}
	}
	s.Equal(2, logs)
}

func (s *QueueTestSuite) TestJanitorSchedule() {
	_, err := NewJanitor(s.svc, "not a schedule")
	s.Error(err)

	janitor, err := NewJanitor(s.svc, "*/5 * * * *")
	s.Require().NoError(err)
	janitor.Start()
	janitor.Start()
	janitor.Stop()
	janitor.Stop()
}

func TestQueueTestSuite(t *testing.T) {
	suite.Run(t, new(QueueTestSuite))
}
