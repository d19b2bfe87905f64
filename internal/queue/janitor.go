package queue

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	pkgerrors "github.com/pkg/errors"
	"github.com/robfig/cron"
	"github.com/simsaas/simsaas/internal/metrics"
	"github.com/simsaas/simsaas/pkg/log"
)

// Janitor enforces the retention counts and ages on finished entries.
// asynq already expires completed entries by age; counts and the
// failed-entry age are enforced here.
type Janitor struct {
	svc      *Service
	schedule cron.Schedule
	cron     *cron.Cron
	now      func() time.Time
	mu       sync.Mutex
}

// NewJanitor parses spec (standard five-field cron or a descriptor such
// as "@every 1m").
func NewJanitor(svc *Service, spec string) (*Janitor, error) {
	parser := cron.NewParser(
		cron.Minute |
			cron.Hour |
			cron.Dom |
			cron.Month |
			cron.Dow |
			cron.Descriptor,
	)

	sched, err := parser.Parse(spec)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "invalid janitor schedule %q", spec)
	}

	return &Janitor{
		svc:      svc,
		schedule: sched,
		now:      time.Now,
	}, nil
}

// Start runs Prune on the schedule until Stop.
func (j *Janitor) Start() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.cron != nil {
		return
	}

	j.cron = cron.New()
	j.cron.Schedule(j.schedule, cron.FuncJob(func() {
		if _, err := j.Prune(context.Background()); err != nil {
			log.Error("queue prune failure", "queue", j.svc.Name(), "error", err)
		}
	}))
	j.cron.Start()

	log.Info("queue janitor started", "queue", j.svc.Name())
}

// Stop halts the schedule. A prune already in progress finishes.
func (j *Janitor) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.cron == nil {
		return
	}

	j.cron.Stop()
	j.cron = nil

	log.Info("queue janitor stopped", "queue", j.svc.Name())
}

// Prune removes completed and failed entries beyond their retention
// limits and returns the number removed per state.
func (j *Janitor) Prune(ctx context.Context) (map[State]int, error) {
	cfg := j.svc.Config()
	pruned := make(map[State]int)

	n, err := j.prune(ctx, StateCompleted,
		cfg.CompletedRetentionCount,
		cfg.CompletedRetentionAge,
		func(info *asynq.TaskInfo) time.Time { return info.CompletedAt },
	)
	if err != nil {
		return pruned, err
	}
	pruned[StateCompleted] = n

	n, err = j.prune(ctx, StateFailed,
		cfg.FailedRetentionCount,
		cfg.FailedRetentionAge,
		func(info *asynq.TaskInfo) time.Time { return info.LastFailedAt },
	)
	if err != nil {
		return pruned, err
	}
	pruned[StateFailed] = n

	return pruned, nil
}

func (j *Janitor) prune(ctx context.Context, state State, keep int, maxAge time.Duration, finishedAt func(*asynq.TaskInfo) time.Time) (int, error) {
	infos, err := j.svc.tasksIn(state, nil, 0, false)
	if err != nil {
		return 0, err
	}

	// newest first, so everything past keep is surplus
	sort.SliceStable(infos, func(a, b int) bool {
		return finishedAt(infos[a]).After(finishedAt(infos[b]))
	})

	cutoff := j.now().Add(-maxAge)
	var removed []string

	for i, info := range infos {
		finished := finishedAt(info)
		expired := maxAge > 0 && !finished.IsZero() && finished.Before(cutoff)
		surplus := keep > 0 && i >= keep
		if !expired && !surplus {
			continue
		}

		err := j.svc.inspector.DeleteTask(j.svc.Name(), info.ID)
		if err != nil && !errors.Is(err, asynq.ErrTaskNotFound) {
			return len(removed), pkgerrors.Wrapf(err, "failed to delete %v", info.ID)
		}
		removed = append(removed, info.ID)
	}

	if err := j.svc.deleteLogs(ctx, removed...); err != nil {
		log.Warn("failed to delete pruned entry logs", "queue", j.svc.Name(), "error", err)
	}

	if len(removed) > 0 {
		metrics.QueuePrunedTotal.WithLabelValues(string(state)).Add(float64(len(removed)))
		log.Info("pruned queue entries", "queue", j.svc.Name(), "state", state, "count", len(removed))
	}

	return len(removed), nil
}
