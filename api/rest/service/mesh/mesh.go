package mesh

import (
	"context"
	"errors"
	"fmt"

	"github.com/simsaas/simsaas/internal/apperr"
	"github.com/simsaas/simsaas/internal/models"
	"github.com/simsaas/simsaas/pkg/log"
	"gorm.io/gorm"
)

const (
	MinResolution = 1
	MaxResolution = 10
)

type Mesh interface {
	Create(*CreateRequest) (*models.Mesh, error)
	ListByGeometry(geometryID int64) ([]*models.Mesh, error)
	Get(id int64) (*models.Mesh, error)
	Delete(id int64) (*DeleteResponse, error)
}

type meshService struct {
	ctx context.Context
	db  *gorm.DB
}

// Service returns a request-scoped mesh service.
func Service(ctx context.Context, db *gorm.DB) Mesh {
	return &meshService{ctx: ctx, db: db}
}

type CreateRequest struct {
	GeometryID int64 `json:"geometryId"`
	Resolution int   `json:"resolution"`
}

func (r *CreateRequest) Validate() error {
	if r.GeometryID <= 0 {
		return apperr.BadRequest("geometryId", "Geometry ID must be a positive integer")
	}
	if r.Resolution < MinResolution || r.Resolution > MaxResolution {
		return apperr.BadRequest("resolution", "Resolution must be between %d and %d", MinResolution, MaxResolution)
	}
	return nil
}

type DeleteResponse struct {
	Success bool   `json:"success"`
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

func (m *meshService) Create(req *CreateRequest) (*models.Mesh, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var geometry models.Geometry
	err := m.db.WithContext(m.ctx).Select("id").First(&geometry, req.GeometryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Geometry with ID %d not found.", req.GeometryID)
	}
	if err != nil {
		return nil, m.internal(err, "mesh.create", "Failed to create mesh.")
	}

	mesh := &models.Mesh{GeometryID: req.GeometryID, Resolution: req.Resolution}
	if err = m.db.WithContext(m.ctx).Create(mesh).Error; err != nil {
		return nil, m.internal(err, "mesh.create", "Failed to create mesh.")
	}

	return mesh, nil
}

func (m *meshService) ListByGeometry(geometryID int64) ([]*models.Mesh, error) {
	if geometryID <= 0 {
		return nil, apperr.BadRequest("geometryId", "Geometry ID must be a positive integer")
	}

	meshes := make([]*models.Mesh, 0)
	err := m.db.WithContext(m.ctx).
		Where("geometry_id = ?", geometryID).
		Order("id asc").
		Find(&meshes).Error
	if err != nil {
		return nil, m.internal(err, "mesh.listByGeometry", "Failed to list meshes.")
	}

	return meshes, nil
}

func (m *meshService) Get(id int64) (*models.Mesh, error) {
	var mesh models.Mesh

	err := m.db.WithContext(m.ctx).
		Preload("Geometry").
		First(&mesh, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Mesh with ID %d not found.", id)
	}
	if err != nil {
		return nil, m.internal(err, "mesh.getById", "Failed to retrieve mesh.")
	}

	return &mesh, nil
}

// Delete removes the mesh; its jobs and results cascade.
func (m *meshService) Delete(id int64) (*DeleteResponse, error) {
	res := m.db.WithContext(m.ctx).Delete(&models.Mesh{}, id)
	if res.Error != nil {
		return nil, m.internal(res.Error, "mesh.delete", "Failed to delete mesh.")
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("Mesh with ID %d not found.", id)
	}

	return &DeleteResponse{
		Success: true,
		ID:      id,
		Message: fmt.Sprintf("Mesh with ID %d deleted successfully.", id),
	}, nil
}

func (m *meshService) internal(err error, op, msg string) error {
	log.Error("mesh store failure", "op", op, "error", err)
	return apperr.Internal(err, "%s", msg)
}
