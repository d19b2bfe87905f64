package geometry

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/simsaas/simsaas/api/rest/httperr"
	"github.com/simsaas/simsaas/api/rest/service/geometry"
	"gorm.io/gorm"
)

type Controller struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Controller {
	return &Controller{db: db}
}

func (ctl *Controller) Post(c echo.Context) error {
	req := &geometry.CreateRequest{}
	if err := httperr.Bind(c, req); err != nil {
		return err
	}

	g, err := geometry.Service(c.Request().Context(), ctl.db).Create(req)
	if err != nil {
		return httperr.From(err)
	}

	return c.JSON(http.StatusCreated, g)
}

// ListByProject serves GET /projects/:id/geometries.
func (ctl *Controller) ListByProject(c echo.Context) error {
	id, err := httperr.ParamID(c, "id")
	if err != nil {
		return err
	}

	geometries, err := geometry.Service(c.Request().Context(), ctl.db).ListByProject(id)
	if err != nil {
		return httperr.From(err)
	}

	return c.JSON(http.StatusOK, geometries)
}

func (ctl *Controller) Get(c echo.Context) error {
	id, err := httperr.ParamID(c, "id")
	if err != nil {
		return err
	}

	g, err := geometry.Service(c.Request().Context(), ctl.db).Get(id)
	if err != nil {
		return httperr.From(err)
	}

	return c.JSON(http.StatusOK, g)
}

func (ctl *Controller) Delete(c echo.Context) error {
	id, err := httperr.ParamID(c, "id")
	if err != nil {
		return err
	}

	resp, err := geometry.Service(c.Request().Context(), ctl.db).Delete(id)
	if err != nil {
		return httperr.From(err)
	}

	return c.JSON(http.StatusOK, resp)
}
