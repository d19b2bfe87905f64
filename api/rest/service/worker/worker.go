package worker

import (
	"context"
	"time"

	"github.com/simsaas/simsaas/internal/apperr"
	"github.com/simsaas/simsaas/internal/queue"
	"github.com/simsaas/simsaas/pkg/log"
)

// Registry lists the worker processes attached to the broker.
type Registry interface {
	Workers(ctx context.Context) ([]*queue.WorkerInfo, error)
}

type Worker interface {
	Status() (*StatusResponse, error)
}

type service struct {
	ctx      context.Context
	registry Registry
	now      func() time.Time
}

func Service(ctx context.Context, registry Registry) Worker {
	return &service{ctx: ctx, registry: registry, now: time.Now}
}

type StatusResponse struct {
	ObservedAt       time.Time           `json:"observedAt"`
	Workers          []*queue.WorkerInfo `json:"workers"`
	TotalConcurrency int                 `json:"totalConcurrency"`
	TotalActive      int                 `json:"totalActive"`
}

// Status summarizes the workers currently processing the queue.
func (s *service) Status() (*StatusResponse, error) {
	workers, err := s.registry.Workers(s.ctx)
	if err != nil {
		log.Error("failed to list workers", "op", "worker.status", "error", err)
		return nil, apperr.Internal(err, "Failed to retrieve worker status.")
	}

	resp := &StatusResponse{
		ObservedAt: s.now().UTC(),
		Workers:    workers,
	}
	for _, w := range workers {
		resp.TotalConcurrency += w.Concurrency
		resp.TotalActive += w.Active
	}

	return resp, nil
}
