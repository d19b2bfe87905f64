package geometry

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/simsaas/simsaas/internal/apperr"
	"github.com/simsaas/simsaas/internal/models"
	"github.com/simsaas/simsaas/pkg/log"
	"gorm.io/gorm"
)

type Geometry interface {
	Create(*CreateRequest) (*models.Geometry, error)
	ListByProject(projectID int64) ([]*models.Geometry, error)
	Get(id int64) (*models.Geometry, error)
	Delete(id int64) (*DeleteResponse, error)
}

type geometryService struct {
	ctx context.Context
	db  *gorm.DB
}

// Service returns a request-scoped geometry service.
func Service(ctx context.Context, db *gorm.DB) Geometry {
	return &geometryService{ctx: ctx, db: db}
}

type CreateRequest struct {
	ProjectID int64  `json:"projectId"`
	FileURL   string `json:"fileUrl"`
}

func (r *CreateRequest) Validate() error {
	if r.ProjectID <= 0 {
		return apperr.BadRequest("projectId", "Project ID must be a positive integer")
	}

	u, err := url.Parse(r.FileURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return apperr.BadRequest("fileUrl", "Invalid URL format")
	}

	return nil
}

type DeleteResponse struct {
	Success bool   `json:"success"`
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

func (g *geometryService) Create(req *CreateRequest) (*models.Geometry, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var project models.Project
	err := g.db.WithContext(g.ctx).Select("id").First(&project, req.ProjectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Project with ID %d not found.", req.ProjectID)
	}
	if err != nil {
		return nil, g.internal(err, "geometry.create", "Failed to create geometry.")
	}

	geometry := &models.Geometry{ProjectID: req.ProjectID, FileURL: req.FileURL}
	if err = g.db.WithContext(g.ctx).Create(geometry).Error; err != nil {
		return nil, g.internal(err, "geometry.create", "Failed to create geometry.")
	}

	return geometry, nil
}

func (g *geometryService) ListByProject(projectID int64) ([]*models.Geometry, error) {
	if projectID <= 0 {
		return nil, apperr.BadRequest("projectId", "Project ID must be a positive integer")
	}

	geometries := make([]*models.Geometry, 0)
	err := g.db.WithContext(g.ctx).
		Where("project_id = ?", projectID).
		Order("id asc").
		Find(&geometries).Error
	if err != nil {
		return nil, g.internal(err, "geometry.listByProject", "Failed to list geometries.")
	}

	return geometries, nil
}

func (g *geometryService) Get(id int64) (*models.Geometry, error) {
	var geometry models.Geometry

	err := g.db.WithContext(g.ctx).
		Preload("Meshes", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		First(&geometry, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Geometry with ID %d not found.", id)
	}
	if err != nil {
		return nil, g.internal(err, "geometry.getById", "Failed to retrieve geometry.")
	}

	return &geometry, nil
}

// Delete removes the geometry; meshes, jobs and results cascade.
func (g *geometryService) Delete(id int64) (*DeleteResponse, error) {
	res := g.db.WithContext(g.ctx).Delete(&models.Geometry{}, id)
	if res.Error != nil {
		return nil, g.internal(res.Error, "geometry.delete", "Failed to delete geometry.")
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("Geometry with ID %d not found.", id)
	}

	return &DeleteResponse{
		Success: true,
		ID:      id,
		Message: fmt.Sprintf("Geometry with ID %d deleted successfully.", id),
	}, nil
}

func (g *geometryService) internal(err error, op, msg string) error {
	log.Error("geometry store failure", "op", op, "error", err)
	return apperr.Internal(err, "%s", msg)
}
