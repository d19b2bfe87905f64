// Package queue is the asynq-backed work queue. Entries are correlated
// with jobs through TaskID and carry a Payload; their log lines live in
// a redis list next to the asynq keys.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/hibiken/asynq"
	pkgerrors "github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/simsaas/simsaas/pkg/env"
	"github.com/simsaas/simsaas/pkg/log"
)

const listPageSize = 100

var ErrEntryNotFound = errors.New("queue entry not found")

// Config holds the broker connection and the per-entry policy.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Name          string

	Attempts int
	Backoff  time.Duration

	CompletedRetentionCount int
	CompletedRetentionAge   time.Duration
	FailedRetentionCount    int
	FailedRetentionAge      time.Duration
}

// ConfigFromEnv builds a Config from the processed environment.
func ConfigFromEnv(vars env.Environment) Config {
	return Config{
		RedisAddr:               vars.RedisAddr,
		RedisPassword:           vars.RedisPassword,
		RedisDB:                 vars.RedisDB,
		Name:                    vars.QueueName,
		Attempts:                vars.JobAttempts,
		Backoff:                 vars.JobBackoff,
		CompletedRetentionCount: vars.CompletedRetentionCount,
		CompletedRetentionAge:   vars.CompletedRetentionAge,
		FailedRetentionCount:    vars.FailedRetentionCount,
		FailedRetentionAge:      vars.FailedRetentionAge,
	}
}

// Entry is the monitor view of a queue entry. MeshID is nil when the
// payload fails validation.
type Entry struct {
	ID        string `json:"queueId"`
	Name      string `json:"name"`
	State     State  `json:"state"`
	CreatedAt int64  `json:"createdAt"`
	MeshID    *int64 `json:"meshId,omitempty"`
	JobID     string `json:"jobId,omitempty"`
	Retried   int    `json:"retried"`
	LastError string `json:"lastError,omitempty"`
}

// LogPage is a range of log lines and the total line count.
type LogPage struct {
	Logs  []string `json:"logs"`
	Count int64    `json:"count"`
}

// Service owns the queue connections for one process. It is shared by
// the API and the worker and closed once on shutdown.
type Service struct {
	cfg       Config
	client    *asynq.Client
	inspector *asynq.Inspector
	rdb       *redis.Client
}

// New constructs the service. Connections are established lazily.
func New(cfg Config) *Service {
	opt := redisOpt(cfg)

	return &Service{
		cfg:       cfg,
		client:    asynq.NewClient(opt),
		inspector: asynq.NewInspector(opt),
		rdb: redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}),
	}
}

func redisOpt(cfg Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
}

// RedisOpt returns the connection options for an asynq server.
func (s *Service) RedisOpt() asynq.RedisClientOpt {
	return redisOpt(s.cfg)
}

// Config returns the queue configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// Name returns the asynq queue name.
func (s *Service) Name() string {
	return s.cfg.Name
}

// RetryDelay is the backoff after a failed delivery, where retried is
// the number of redeliveries already made: Backoff * 2^retried.
func (s *Service) RetryDelay(retried int) time.Duration {
	if retried < 0 {
		retried = 0
	}
	return s.cfg.Backoff * time.Duration(1<<uint(retried))
}

// Ping checks the broker connection.
func (s *Service) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Enqueue adds an entry under id. The entry gets Attempts deliveries and
// is retained after completion for CompletedRetentionAge.
func (s *Service) Enqueue(ctx context.Context, id string, p Payload) error {
	if p.EnqueuedAt == 0 {
		p.EnqueuedAt = time.Now().UnixMilli()
	}

	data, err := json.Marshal(p)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to encode payload")
	}

	maxRetry := s.cfg.Attempts - 1
	if maxRetry < 0 {
		maxRetry = 0
	}

	task := asynq.NewTask(
		TaskTypeProcessMesh,
		data,
		asynq.TaskID(id),
		asynq.Queue(s.cfg.Name),
		asynq.MaxRetry(maxRetry),
		asynq.Retention(s.cfg.CompletedRetentionAge),
	)

	if _, err = s.client.EnqueueContext(ctx, task); err != nil {
		return pkgerrors.Wrapf(err, "failed to enqueue %v", id)
	}

	return nil
}

// State returns the current state of the entry.
func (s *Service) State(ctx context.Context, id string) (State, error) {
	entry, err := s.Entry(ctx, id)
	if err != nil {
		return "", err
	}
	return entry.State, nil
}

// Entry returns the monitor view of one entry.
func (s *Service) Entry(ctx context.Context, id string) (*Entry, error) {
	info, err := s.inspector.GetTaskInfo(s.cfg.Name, id)
	if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to inspect %v", id)
	}

	qi := s.queueInfo(ctx)
	entry, ok := toEntry(info, qi != nil && qi.Paused)
	if !ok {
		return nil, ErrEntryNotFound
	}

	return entry, nil
}

// List returns entries in any of states ordered by enqueue time and
// sliced to the inclusive range [start, end]. A negative end counts
// from the last entry. Entries lacking an id or enqueue time are
// skipped.
//
// With a non-negative end each state contributes at most end+1
// entries: the ones most recently placed in it, or the earliest when
// ascending. A negative end reads every entry.
func (s *Service) List(ctx context.Context, states []State, start, end int, ascending bool) ([]*Entry, error) {
	if len(states) == 0 {
		states = AllStates
	}

	limit := 0
	if end >= 0 {
		limit = end + 1
	}

	info := s.queueInfo(ctx)
	paused := info != nil && info.Paused
	seen := make(map[string]bool)
	entries := make([]*Entry, 0)

	for _, state := range dedupe(states) {
		infos, err := s.tasksIn(state, info, limit, !ascending)
		if err != nil {
			return nil, err
		}

		for _, ti := range infos {
			entry, ok := toEntry(ti, paused)
			if !ok || seen[entry.ID] {
				continue
			}
			seen[entry.ID] = true
			entries = append(entries, entry)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.CreatedAt != b.CreatedAt {
			if ascending {
				return a.CreatedAt < b.CreatedAt
			}
			return a.CreatedAt > b.CreatedAt
		}
		if ascending {
			return a.ID < b.ID
		}
		return a.ID > b.ID
	})

	return window(entries, start, end), nil
}

// source is one asynq listing. size is the entry count reported by
// the queue info, or -1 when unknown.
type source struct {
	list listFunc
	size int
}

// listFunc reads one page of a listing; pages start at 1.
type listFunc func(size, page int) ([]*asynq.TaskInfo, error)

// tasksIn reads the entries in state. A positive limit bounds the read
// per source to the newest (or oldest) limit entries; info supplies
// the sizes used to find them and may be nil.
func (s *Service) tasksIn(state State, info *asynq.QueueInfo, limit int, newest bool) ([]*asynq.TaskInfo, error) {
	paused := info != nil && info.Paused
	active, pending, scheduled, retry, completed, archived := -1, -1, -1, -1, -1, -1
	if info != nil {
		active, pending, scheduled, retry = info.Active, info.Pending, info.Scheduled, info.Retry
		completed, archived = info.Completed, info.Archived
	}

	var sources []source

	switch state {
	case StateActive:
		sources = append(sources, source{s.lister(s.inspector.ListActiveTasks), active})
	case StateWaiting:
		if !paused {
			sources = append(sources, source{s.lister(s.inspector.ListPendingTasks), pending})
		}
	case StatePaused:
		if paused {
			sources = append(sources, source{s.lister(s.inspector.ListPendingTasks), pending})
		}
	case StateDelayed:
		sources = append(sources,
			source{s.lister(s.inspector.ListScheduledTasks), scheduled},
			source{s.lister(s.inspector.ListRetryTasks), retry},
		)
	case StateCompleted:
		sources = append(sources, source{s.lister(s.inspector.ListCompletedTasks), completed})
	case StateFailed:
		sources = append(sources, source{s.lister(s.inspector.ListArchivedTasks), archived})
	case StateWaitingChildren:
		groups, err := s.inspector.Groups(s.cfg.Name)
		if err != nil && !errors.Is(err, asynq.ErrQueueNotFound) {
			return nil, pkgerrors.Wrap(err, "failed to list task groups")
		}
		for _, g := range groups {
			group := g.Group
			sources = append(sources, source{
				list: func(size, page int) ([]*asynq.TaskInfo, error) {
					return s.inspector.ListAggregatingTasks(s.cfg.Name, group, asynq.PageSize(size), asynq.Page(page))
				},
				size: g.Size,
			})
		}
	case StatePrioritized:
		// asynq queues have no per-entry priority
	default:
		log.Warn("unrecognized queue state requested", "state", state)
	}

	var infos []*asynq.TaskInfo
	for _, src := range sources {
		batch, err := collect(src, limit, newest)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "failed to list %v entries", state)
		}
		infos = append(infos, batch...)
	}

	return infos, nil
}

// collect reads from src. asynq pages every listing oldest first, so
// the newest limit entries sit on the last two pages of size limit.
func collect(src source, limit int, newest bool) ([]*asynq.TaskInfo, error) {
	if limit <= 0 || src.size < 0 {
		return scan(src.list)
	}

	if !newest || src.size <= limit {
		return page(src.list, limit, 1)
	}

	last := (src.size + limit - 1) / limit
	prev, err := page(src.list, limit, last-1)
	if err != nil {
		return nil, err
	}
	tail, err := page(src.list, limit, last)
	if err != nil {
		return nil, err
	}

	batch := append(prev, tail...)
	if len(batch) > limit {
		batch = batch[len(batch)-limit:]
	}
	return batch, nil
}

func scan(list listFunc) ([]*asynq.TaskInfo, error) {
	var infos []*asynq.TaskInfo
	for n := 1; ; n++ {
		batch, err := page(list, listPageSize, n)
		if err != nil {
			return nil, err
		}
		infos = append(infos, batch...)
		if len(batch) < listPageSize {
			return infos, nil
		}
	}
}

func page(list listFunc, size, n int) ([]*asynq.TaskInfo, error) {
	batch, err := list(size, n)
	if errors.Is(err, asynq.ErrQueueNotFound) {
		return nil, nil
	}
	return batch, err
}

func (s *Service) lister(fn func(string, ...asynq.ListOption) ([]*asynq.TaskInfo, error)) listFunc {
	return func(size, page int) ([]*asynq.TaskInfo, error) {
		return fn(s.cfg.Name, asynq.PageSize(size), asynq.Page(page))
	}
}

// queueInfo returns nil when the queue does not exist yet or the
// broker cannot describe it.
func (s *Service) queueInfo(ctx context.Context) *asynq.QueueInfo {
	info, err := s.inspector.GetQueueInfo(s.cfg.Name)
	if err != nil {
		if !errors.Is(err, asynq.ErrQueueNotFound) {
			log.Debug("queue info unavailable", "queue", s.cfg.Name, "error", err)
		}
		return nil
	}
	return info
}

func toEntry(info *asynq.TaskInfo, paused bool) (*Entry, bool) {
	if info == nil || info.ID == "" {
		return nil, false
	}

	var raw Payload
	if err := json.Unmarshal(info.Payload, &raw); err != nil || raw.EnqueuedAt <= 0 {
		log.Warn("skipping malformed queue entry", "queue_id", info.ID)
		return nil, false
	}

	state, ok := stateOf(info.State, paused)
	if !ok {
		return nil, false
	}

	entry := &Entry{
		ID:        info.ID,
		Name:      info.Type,
		State:     state,
		CreatedAt: raw.EnqueuedAt,
		JobID:     raw.JobID,
		Retried:   info.Retried,
		LastError: info.LastErr,
	}

	if p, err := Decode(info.Payload); err == nil {
		meshID := p.MeshID
		entry.MeshID = &meshID
	}

	return entry, true
}

func dedupe(states []State) []State {
	seen := make(map[State]bool, len(states))
	out := make([]State, 0, len(states))
	for _, s := range states {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func window[T any](items []T, start, end int) []T {
	n := len(items)
	if end < 0 {
		end = n + end
	}
	if start < 0 {
		start = 0
	}
	if end >= n {
		end = n - 1
	}
	if n == 0 || start > end {
		return []T{}
	}
	return items[start : end+1]
}

func logKey(queueName, id string) string {
	return "simsaas:" + queueName + ":logs:" + id
}

// AppendLog appends line, unmodified, to the entry's log. The list
// expires with the longest retention window.
func (s *Service) AppendLog(ctx context.Context, id, line string) error {
	key := logKey(s.cfg.Name, id)

	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, key, line)
	if ttl := s.logTTL(); ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return pkgerrors.Wrapf(err, "failed to append log for %v", id)
	}

	return nil
}

func (s *Service) logTTL() time.Duration {
	if s.cfg.FailedRetentionAge > s.cfg.CompletedRetentionAge {
		return s.cfg.FailedRetentionAge
	}
	return s.cfg.CompletedRetentionAge
}

// Logs returns the log lines in the inclusive range [start, end] of the
// entry. Negative indexes count from the end.
func (s *Service) Logs(ctx context.Context, id string, start, end int64) (*LogPage, error) {
	key := logKey(s.cfg.Name, id)

	lines, err := s.rdb.LRange(ctx, key, start, end).Result()
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to read logs for %v", id)
	}

	count, err := s.rdb.LLen(ctx, key).Result()
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to count logs for %v", id)
	}

	if lines == nil {
		lines = []string{}
	}

	return &LogPage{Logs: lines, Count: count}, nil
}

func (s *Service) deleteLogs(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = logKey(s.cfg.Name, id)
	}

	return s.rdb.Del(ctx, keys...).Err()
}

// Close releases every connection held by the service.
func (s *Service) Close() error {
	var errs []error

	if err := s.client.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.inspector.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.rdb.Close(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
