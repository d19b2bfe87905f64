package queue

import (
	"encoding/json"
	"fmt"

	"github.com/simsaas/simsaas/pkg/ident"
)

// TaskTypeProcessMesh is the task type handled by the worker.
const TaskTypeProcessMesh = "mesh:process"

// TaskID derives the queue identity correlated with a job.
func TaskID(jobID int64) string {
	return "job_" + ident.Format(jobID)
}

// Payload is carried by every queue entry. JobID is the decimal form
// of the job identity; EnqueuedAt is epoch milliseconds.
type Payload struct {
	JobID      string `json:"jobId"`
	MeshID     int64  `json:"meshId"`
	EnqueuedAt int64  `json:"enqueuedAt"`
}

// Decode parses a payload and validates both identities.
func Decode(data []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	if _, err := ident.Parse(p.JobID); err != nil {
		return nil, fmt.Errorf("payload jobId %q: %w", p.JobID, err)
	}

	if p.MeshID <= 0 {
		return nil, fmt.Errorf("payload meshId %d must be positive", p.MeshID)
	}

	return &p, nil
}

// ID returns the native job identity.
func (p *Payload) ID() int64 {
	id, _ := ident.Parse(p.JobID)
	return id
}
