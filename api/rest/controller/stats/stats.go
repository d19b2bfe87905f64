package stats

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/simsaas/simsaas/api/rest/httperr"
	"github.com/simsaas/simsaas/api/rest/service/stats"
	"gorm.io/gorm"
)

type Controller struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Controller {
	return &Controller{db: db}
}

func (ctl *Controller) Get(c echo.Context) error {
	resp, err := stats.New(c.Request().Context(), ctl.db).Get()
	if err != nil {
		return httperr.From(err)
	}

	return c.JSON(http.StatusOK, resp)
}
