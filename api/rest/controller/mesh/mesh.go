package mesh

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/simsaas/simsaas/api/rest/httperr"
	"github.com/simsaas/simsaas/api/rest/service/mesh"
	"gorm.io/gorm"
)

type Controller struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Controller {
	return &Controller{db: db}
}

func (ctl *Controller) Post(c echo.Context) error {
	req := &mesh.CreateRequest{}
	if err := httperr.Bind(c, req); err != nil {
		return err
	}

	m, err := mesh.Service(c.Request().Context(), ctl.db).Create(req)
	if err != nil {
		return httperr.From(err)
	}

	return c.JSON(http.StatusCreated, m)
}

// ListByGeometry serves GET /geometries/:id/meshes.
func (ctl *Controller) ListByGeometry(c echo.Context) error {
	id, err := httperr.ParamID(c, "id")
	if err != nil {
		return err
	}

	meshes, err := mesh.Service(c.Request().Context(), ctl.db).ListByGeometry(id)
	if err != nil {
		return httperr.From(err)
	}

	return c.JSON(http.StatusOK, meshes)
}

func (ctl *Controller) Get(c echo.Context) error {
	id, err := httperr.ParamID(c, "id")
	if err != nil {
		return err
	}

	m, err := mesh.Service(c.Request().Context(), ctl.db).Get(id)
	if err != nil {
		return httperr.From(err)
	}

	return c.JSON(http.StatusOK, m)
}

func (ctl *Controller) Delete(c echo.Context) error {
	id, err := httperr.ParamID(c, "id")
	if err != nil {
		return err
	}

	resp, err := mesh.Service(c.Request().Context(), ctl.db).Delete(id)
	if err != nil {
		return httperr.From(err)
	}

	return c.JSON(http.StatusOK, resp)
}
