package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// MonitorService exposes the queue view.
type MonitorService struct {
	client *Client
}

// ListOptions narrows the queue view. Zero values leave the server
// defaults in place.
type ListOptions struct {
	States    []string
	Start     *int
	End       *int
	Ascending bool
}

func (o ListOptions) values() url.Values {
	params := url.Values{}
	if len(o.States) > 0 {
		params.Set("states", strings.Join(o.States, ","))
	}
	if o.Start != nil {
		params.Set("start", strconv.Itoa(*o.Start))
	}
	if o.End != nil {
		params.Set("end", strconv.Itoa(*o.End))
	}
	if o.Ascending {
		params.Set("asc", "true")
	}
	return params
}

func (s *MonitorService) List(ctx context.Context, opts ListOptions) ([]QueueEntry, error) {
	var out []QueueEntry
	endpoint := s.client.resolve("/v1/monitor/jobs", opts.values().Encode())
	if err := s.client.do(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, fmt.Errorf("list queue entries: %w", err)
	}
	return out, nil
}

// Logs fetches lines start..end (inclusive, negative counts from the end).
func (s *MonitorService) Logs(ctx context.Context, queueID string, start, end int64) (*LogPage, error) {
	params := url.Values{}
	params.Set("start", strconv.FormatInt(start, 10))
	params.Set("end", strconv.FormatInt(end, 10))

	var out LogPage
	endpoint := s.client.resolve("/v1/monitor/jobs/"+url.PathEscape(queueID)+"/logs", params.Encode())
	if err := s.client.do(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, fmt.Errorf("get logs: %w", err)
	}
	return &out, nil
}

// WorkerInfo describes a worker process attached to the broker.
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

type WorkersResponse struct {
	ObservedAt       time.Time    `json:"observedAt"`
	Workers          []WorkerInfo `json:"workers"`
	TotalConcurrency int          `json:"totalConcurrency"`
	TotalActive      int          `json:"totalActive"`
}

func (s *MonitorService) Workers(ctx context.Context) (*WorkersResponse, error) {
	var out WorkersResponse
	if err := s.client.do(ctx, http.MethodGet, s.client.resolve("/v1/monitor/workers"), nil, &out); err != nil {
		return nil, fmt.Errorf("list workers: %w", err)
	}
	return &out, nil
}
