package worker

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/simsaas/simsaas/api/rest/httperr"
	"github.com/simsaas/simsaas/api/rest/service/worker"
)

type Controller struct {
	registry worker.Registry
}

func New(registry worker.Registry) *Controller {
	return &Controller{registry: registry}
}

// Status serves GET /workers.
func (ctl *Controller) Status(c echo.Context) error {
	resp, err := worker.Service(c.Request().Context(), ctl.registry).Status()
	if err != nil {
		return httperr.From(err)
	}

	return c.JSON(http.StatusOK, resp)
}
