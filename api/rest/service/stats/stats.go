package stats

import (
	"context"
	"time"

	"github.com/simsaas/simsaas/internal/apperr"
	"github.com/simsaas/simsaas/internal/models"
	"github.com/simsaas/simsaas/pkg/log"
	"gorm.io/gorm"
)

const (
	recentWindow = 24 * time.Hour
	topN         = 5
)

// StatsResponse is the top-level statistics payload.
type StatsResponse struct {
	Jobs          JobStats      `json:"jobs"`
	TopFailing    []FailingMesh `json:"topFailing"`
	SlowestMeshes []SlowestMesh `json:"slowestMeshes"`
}

// JobStats contains aggregate job statistics.
type JobStats struct {
	Total              int64                      `json:"total"`
	ByStatus           map[models.JobStatus]int64 `json:"byStatus"`
	Recent             int64                      `json:"recent"`
	SuccessRate        float64                    `json:"successRate"`
	AvgDurationSeconds float64                    `json:"avgDurationSeconds"`
}

// FailingMesh is a mesh whose jobs fail often.
type FailingMesh struct {
	MeshID       int64 `json:"meshId"`
	FailureCount int64 `json:"failureCount"`
}

// SlowestMesh is a mesh whose successful jobs take longest.
type SlowestMesh struct {
	MeshID             int64   `json:"meshId"`
	AvgDurationSeconds float64 `json:"avgDurationSeconds"`
}

// Service provides statistics queries.
type Service struct {
	ctx context.Context
	db  *gorm.DB
	now func() time.Time
}

func New(ctx context.Context, db *gorm.DB) *Service {
	return &Service{ctx: ctx, db: db, now: time.Now}
}

// durationExpr returns a SQL expression computing the difference in seconds
// between finished_at and started_at for the connected dialect.
func (s *Service) durationExpr() string {
	if s.db.Dialector.Name() == "postgres" {
		return "EXTRACT(EPOCH FROM (finished_at - started_at))"
	}
	return "(JULIANDAY(finished_at) - JULIANDAY(started_at)) * 86400"
}

// Get computes aggregate statistics over the job table.
func (s *Service) Get() (*StatsResponse, error) {
	resp := &StatsResponse{
		Jobs: JobStats{ByStatus: map[models.JobStatus]int64{
			models.JobStatusPending: 0,
			models.JobStatusRunning: 0,
			models.JobStatusSuccess: 0,
			models.JobStatusFailed:  0,
		}},
	}
	durExpr := s.durationExpr()
	db := s.db.WithContext(s.ctx)

	var counts []struct {
		Status models.JobStatus
		Count  int64
	}
	if err := db.Model(&models.Job{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&counts).Error; err != nil {
		return nil, s.internal(err)
	}
	for _, c := range counts {
		resp.Jobs.ByStatus[c.Status] = c.Count
		resp.Jobs.Total += c.Count
	}

	if err := db.Model(&models.Job{}).
		Where("created_at >= ?", s.now().Add(-recentWindow)).
		Count(&resp.Jobs.Recent).Error; err != nil {
		return nil, s.internal(err)
	}

	succeeded := resp.Jobs.ByStatus[models.JobStatusSuccess]
	if finished := succeeded + resp.Jobs.ByStatus[models.JobStatusFailed]; finished > 0 {
		resp.Jobs.SuccessRate = float64(succeeded) / float64(finished)
	}

	var avg struct{ Avg *float64 }
	if err := db.Model(&models.Job{}).
		Select("AVG("+durExpr+") as avg").
		Where("status = ? AND started_at IS NOT NULL AND finished_at IS NOT NULL", models.JobStatusSuccess).
		Scan(&avg).Error; err != nil {
		return nil, s.internal(err)
	}
	if avg.Avg != nil {
		resp.Jobs.AvgDurationSeconds = *avg.Avg
	}

	resp.TopFailing = make([]FailingMesh, 0, topN)
	if err := db.Model(&models.Job{}).
		Select("mesh_id, COUNT(*) as failure_count").
		Where("status = ?", models.JobStatusFailed).
		Group("mesh_id").
		Order("failure_count DESC, mesh_id ASC").
		Limit(topN).
		Scan(&resp.TopFailing).Error; err != nil {
		return nil, s.internal(err)
	}

	var slow []struct {
		MeshID int64
		Avg    float64
	}
	if err := db.Model(&models.Job{}).
		Select("mesh_id, AVG("+durExpr+") as avg").
		Where("status = ? AND started_at IS NOT NULL AND finished_at IS NOT NULL", models.JobStatusSuccess).
		Group("mesh_id").
		Order("avg DESC, mesh_id ASC").
		Limit(topN).
		Scan(&slow).Error; err != nil {
		return nil, s.internal(err)
	}

	resp.SlowestMeshes = make([]SlowestMesh, 0, len(slow))
	for _, row := range slow {
		resp.SlowestMeshes = append(resp.SlowestMeshes, SlowestMesh{MeshID: row.MeshID, AvgDurationSeconds: row.Avg})
	}

	return resp, nil
}

func (s *Service) internal(err error) error {
	log.Error("failed to compute job statistics", "op", "stats.get", "error", err)
	return apperr.Internal(err, "Failed to compute job statistics.")
}
