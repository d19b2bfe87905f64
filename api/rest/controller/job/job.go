package job

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/simsaas/simsaas/api/rest/httperr"
	"github.com/simsaas/simsaas/api/rest/service/job"
	"gorm.io/gorm"
)

type Controller struct {
	db    *gorm.DB
	queue job.Enqueuer
}

func New(db *gorm.DB, q job.Enqueuer) *Controller {
	return &Controller{db: db, queue: q}
}

// Post submits a job for the mesh named in the body.
func (ctl *Controller) Post(c echo.Context) error {
	req := &job.SubmitRequest{}
	if err := httperr.Bind(c, req); err != nil {
		return err
	}

	resp, err := job.Service(c.Request().Context(), ctl.db, ctl.queue).Submit(req)
	if err != nil {
		return httperr.From(err)
	}

	return c.JSON(http.StatusCreated, resp)
}

// Get returns the stored status of a job. The id is handed to the
// service unparsed so it can reject malformed values itself.
func (ctl *Controller) Get(c echo.Context) error {
	j, err := job.Service(c.Request().Context(), ctl.db, ctl.queue).GetStatus(c.Param("id"))
	if err != nil {
		return httperr.From(err)
	}

	return c.JSON(http.StatusOK, j)
}

func (ctl *Controller) List(c echo.Context) error {
	jobs, err := job.Service(c.Request().Context(), ctl.db, ctl.queue).List()
	if err != nil {
		return httperr.From(err)
	}

	return c.JSON(http.StatusOK, jobs)
}
