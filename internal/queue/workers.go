package queue

import (
	"context"
	"sort"
	"time"

	"github.com/hibiken/asynq"
	pkgerrors "github.com/pkg/errors"
)

// WorkerInfo describes one worker process attached to the broker.
type WorkerInfo struct {
	ID          string         `json:"id"`
	Host        string         `json:"host"`
	PID         int            `json:"pid"`
	Concurrency int            `json:"concurrency"`
	Queues      map[string]int `json:"queues"`
	Status      string         `json:"status"`
	Started     time.Time      `json:"started"`
	Active      int            `json:"active"`
}

// Workers lists the worker processes whose heartbeat is current.
func (s *Service) Workers(ctx context.Context) ([]*WorkerInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	servers, err := s.inspector.Servers()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to list workers")
	}

	out := make([]*WorkerInfo, 0, len(servers))
	for _, srv := range servers {
		out = append(out, toWorker(srv))
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Started.Equal(out[j].Started) {
			return out[i].Started.Before(out[j].Started)
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

func toWorker(srv *asynq.ServerInfo) *WorkerInfo {
	return &WorkerInfo{
		ID:          srv.ID,
		Host:        srv.Host,
		PID:         srv.PID,
		Concurrency: srv.Concurrency,
		Queues:      srv.Queues,
		Status:      srv.Status,
		Started:     srv.Started,
		Active:      len(srv.ActiveWorkers),
	}
}
