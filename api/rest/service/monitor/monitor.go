package monitor

import (
	"context"
	"errors"
	"strings"

	"github.com/simsaas/simsaas/internal/apperr"
	"github.com/simsaas/simsaas/internal/queue"
	"github.com/simsaas/simsaas/pkg/log"
)

const (
	DefaultStart = 0
	DefaultEnd   = 19
)

// Queue is the read side of the work queue the monitor depends on.
type Queue interface {
	List(ctx context.Context, states []queue.State, start, end int, ascending bool) ([]*queue.Entry, error)
	Logs(ctx context.Context, id string, start, end int64) (*queue.LogPage, error)
	Entry(ctx context.Context, id string) (*queue.Entry, error)
}

type Monitor interface {
	JobList(*ListRequest) ([]*queue.Entry, error)
	JobLogs(*LogsRequest) (*queue.LogPage, error)
	Job(queueID string) (*queue.Entry, error)
}

type monitorService struct {
	ctx   context.Context
	queue Queue
}

// Service returns a request-scoped monitor service.
func Service(ctx context.Context, q Queue) Monitor {
	return &monitorService{ctx: ctx, queue: q}
}

// ListRequest filters the queue view. Nil fields take their defaults:
// every state, start 0, end 19, newest first.
type ListRequest struct {
	States    []string `json:"states,omitempty"`
	Start     *int     `json:"start,omitempty"`
	End       *int     `json:"end,omitempty"`
	Ascending *bool    `json:"asc,omitempty"`
}

type LogsRequest struct {
	QueueID string `json:"queueId"`
	Start   *int64 `json:"start,omitempty"`
	End     *int64 `json:"end,omitempty"`
}

func (m *monitorService) JobList(req *ListRequest) ([]*queue.Entry, error) {
	states := make([]queue.State, 0, len(req.States))
	for _, raw := range req.States {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		state, err := queue.ParseState(raw)
		if err != nil {
			return nil, apperr.BadRequest("states", "Unknown queue state %q", raw)
		}
		states = append(states, state)
	}
	if len(states) == 0 {
		states = queue.AllStates
	}

	start, end, asc := DefaultStart, DefaultEnd, false
	if req.Start != nil {
		start = *req.Start
	}
	if req.End != nil {
		end = *req.End
	}
	if req.Ascending != nil {
		asc = *req.Ascending
	}

	if start < 0 {
		return nil, apperr.BadRequest("start", "start must not be negative")
	}
	if end < -1 {
		return nil, apperr.BadRequest("end", "end must be -1 or greater")
	}

	entries, err := m.queue.List(m.ctx, states, start, end, asc)
	if err != nil {
		log.Error("failed to list queue entries", "op", "monitor.getJobList", "states", states, "error", err)
		return nil, apperr.Internal(err, "Failed to retrieve job list.")
	}

	return entries, nil
}

func (m *monitorService) JobLogs(req *LogsRequest) (*queue.LogPage, error) {
	if strings.TrimSpace(req.QueueID) == "" {
		return nil, apperr.BadRequest("queueId", "queueId is required")
	}

	var start, end int64 = 0, -1
	if req.Start != nil {
		start = *req.Start
	}
	if req.End != nil {
		end = *req.End
	}

	page, err := m.queue.Logs(m.ctx, req.QueueID, start, end)
	if err != nil {
		log.Error("failed to get queue logs", "queue_id", req.QueueID, "op", "monitor.getJobLogs", "error", err)
		return nil, apperr.Internal(err, "Failed to retrieve job logs.")
	}

	return page, nil
}

// Job returns the live queue view of one entry. Entries pruned by
// retention are reported as not found; the job record stays
// authoritative.
func (m *monitorService) Job(queueID string) (*queue.Entry, error) {
	entry, err := m.queue.Entry(m.ctx, queueID)
	if errors.Is(err, queue.ErrEntryNotFound) {
		return nil, apperr.NotFound("Queue entry %s not found.", queueID)
	}
	if err != nil {
		log.Error("failed to get queue entry", "queue_id", queueID, "op", "monitor.getJob", "error", err)
		return nil, apperr.Internal(err, "Failed to retrieve queue entry.")
	}

	return entry, nil
}
