// Package mesher defines the unit of work executed for a job.
package mesher

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/simsaas/simsaas/internal/models"
)

// Request identifies the job and mesh being processed.
type Request struct {
	JobID  int64
	MeshID int64
}

// Output is what a successful run produces.
type Output struct {
	ArtifactURI string
	Metrics     models.Metrics
}

// ProgressFunc receives a completion percentage in [0, 100].
type ProgressFunc func(percent int)

// Processor performs the mesh computation. Implementations must honor
// ctx cancellation.
type Processor interface {
	Process(ctx context.Context, req Request, progress ProgressFunc) (*Output, error)
}

// Simulated stands in for a real mesher: it sleeps for Duration while
// reporting progress, then fabricates an artifact path and metrics.
type Simulated struct {
	Duration time.Duration
	Steps    int
}

// NewSimulated returns a Simulated processor reporting five progress steps.
func NewSimulated(d time.Duration) *Simulated {
	return &Simulated{Duration: d, Steps: 5}
}

func (s *Simulated) Process(ctx context.Context, req Request, progress ProgressFunc) (*Output, error) {
	steps := s.Steps
	if steps <= 0 {
		steps = 1
	}

	start := time.Now()
	interval := s.Duration / time.Duration(steps)
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for i := 1; i <= steps; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}

		if progress != nil {
			progress(i * 100 / steps)
		}
		timer.Reset(interval)
	}

	return &Output{
		ArtifactURI: fmt.Sprintf("mock/results/job_%d_mesh_%d.dat", req.JobID, req.MeshID),
		Metrics: models.Metrics{
			"processingTimeMs": float64(time.Since(start).Milliseconds()),
			"nodes":            float64(500 + rand.IntN(1000)),
			"elements":         float64(2000 + rand.IntN(5000)),
		},
	}, nil
}
