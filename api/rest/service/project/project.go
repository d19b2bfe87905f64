package project

import (
	"context"
	"strings"

	"github.com/simsaas/simsaas/internal/apperr"
	"github.com/simsaas/simsaas/internal/models"
	"github.com/simsaas/simsaas/pkg/log"
	"gorm.io/gorm"
)

type Project interface {
	Create(*CreateRequest) (*models.Project, error)
	List() ([]*models.Project, error)
}

type projectService struct {
	ctx context.Context
	db  *gorm.DB
}

// Service returns a request-scoped project service.
func Service(ctx context.Context, db *gorm.DB) Project {
	return &projectService{ctx: ctx, db: db}
}

type CreateRequest struct {
	Name string `json:"name"`
}

func (r *CreateRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return apperr.BadRequest("name", "Project name cannot be empty")
	}
	return nil
}

func (p *projectService) Create(req *CreateRequest) (*models.Project, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	project := &models.Project{Name: req.Name}
	if err := p.db.WithContext(p.ctx).Create(project).Error; err != nil {
		log.Error("failed to create project", "op", "project.create", "error", err)
		return nil, apperr.Internal(err, "Failed to create project.")
	}

	return project, nil
}

// List returns every project with its geometries.
func (p *projectService) List() ([]*models.Project, error) {
	projects := make([]*models.Project, 0)

	err := p.db.WithContext(p.ctx).
		Preload("Geometries", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Order("id asc").
		Find(&projects).Error
	if err != nil {
		log.Error("failed to list projects", "op", "project.list", "error", err)
		return nil, apperr.Internal(err, "Failed to list projects.")
	}

	return projects, nil
}
