package project

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/simsaas/simsaas/api/rest/httperr"
	"github.com/simsaas/simsaas/api/rest/service/project"
	"gorm.io/gorm"
)

type Controller struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Controller {
	return &Controller{db: db}
}

func (ctl *Controller) Post(c echo.Context) error {
	req := &project.CreateRequest{}
	if err := httperr.Bind(c, req); err != nil {
		return err
	}

	p, err := project.Service(c.Request().Context(), ctl.db).Create(req)
	if err != nil {
		return httperr.From(err)
	}

	return c.JSON(http.StatusCreated, p)
}

func (ctl *Controller) List(c echo.Context) error {
	projects, err := project.Service(c.Request().Context(), ctl.db).List()
	if err != nil {
		return httperr.From(err)
	}

	return c.JSON(http.StatusOK, projects)
}
