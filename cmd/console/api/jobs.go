package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// JobsService exposes job-related operations.
type JobsService struct {
	client *Client
}

// Submit queues a job for the mesh.
func (s *JobsService) Submit(ctx context.Context, meshID int64) (*Submission, error) {
	var out Submission
	in := map[string]int64{"meshId": meshID}
	if err := s.client.do(ctx, http.MethodPost, s.client.resolve("/v1/jobs"), in, &out); err != nil {
		return nil, fmt.Errorf("submit job: %w", err)
	}
	return &out, nil
}

// Get fetches the stored status of a job. The id is passed through
// verbatim so the server decides whether it is well formed.
func (s *JobsService) Get(ctx context.Context, id string) (*Job, error) {
	var out Job
	endpoint := s.client.resolve("/v1/jobs/" + url.PathEscape(id))
	if err := s.client.do(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &out, nil
}

// List fetches the most recent jobs, newest first.
func (s *JobsService) List(ctx context.Context) ([]Job, error) {
	var out []Job
	if err := s.client.do(ctx, http.MethodGet, s.client.resolve("/v1/jobs"), nil, &out); err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return out, nil
}

// Stats is the aggregate view over stored jobs.
type Stats struct {
	Jobs struct {
		Total              int64            `json:"total"`
		ByStatus           map[string]int64 `json:"byStatus"`
		Recent             int64            `json:"recent"`
		SuccessRate        float64          `json:"successRate"`
		AvgDurationSeconds float64          `json:"avgDurationSeconds"`
	} `json:"jobs"`
	TopFailing []struct {
		MeshID       int64 `json:"meshId"`
		FailureCount int64 `json:"failureCount"`
	} `json:"topFailing"`
	SlowestMeshes []struct {
		MeshID             int64   `json:"meshId"`
		AvgDurationSeconds float64 `json:"avgDurationSeconds"`
	} `json:"slowestMeshes"`
}

// Stats fetches aggregate job statistics.
func (s *JobsService) Stats(ctx context.Context) (*Stats, error) {
	var out Stats
	if err := s.client.do(ctx, http.MethodGet, s.client.resolve("/v1/stats"), nil, &out); err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	return &out, nil
}
