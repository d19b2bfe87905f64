package monitor

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/simsaas/simsaas/api/rest/httperr"
	"github.com/simsaas/simsaas/api/rest/service/monitor"
)

type Controller struct {
	queue monitor.Queue
}

func New(q monitor.Queue) *Controller {
	return &Controller{queue: q}
}

// List serves the queue view. States may be repeated or comma separated.
func (ctl *Controller) List(c echo.Context) error {
	req, err := parseListRequest(c)
	if err != nil {
		return err
	}

	entries, err := monitor.Service(c.Request().Context(), ctl.queue).JobList(req)
	if err != nil {
		return httperr.From(err)
	}

	return c.JSON(http.StatusOK, entries)
}

func (ctl *Controller) Get(c echo.Context) error {
	entry, err := monitor.Service(c.Request().Context(), ctl.queue).Job(c.Param("queueId"))
	if err != nil {
		return httperr.From(err)
	}

	return c.JSON(http.StatusOK, entry)
}

func (ctl *Controller) Logs(c echo.Context) error {
	req, err := parseLogsRequest(c)
	if err != nil {
		return err
	}

	page, err := monitor.Service(c.Request().Context(), ctl.queue).JobLogs(req)
	if err != nil {
		return httperr.From(err)
	}

	return c.JSON(http.StatusOK, page)
}

func parseListRequest(c echo.Context) (*monitor.ListRequest, error) {
	req := &monitor.ListRequest{}

	for _, raw := range c.QueryParams()["states"] {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				req.States = append(req.States, s)
			}
		}
	}

	var (
		start, end int
		asc        bool
	)

	err := echo.QueryParamsBinder(c).
		Int("start", &start).
		Int("end", &end).
		Bool("asc", &asc).
		BindError()
	if err != nil {
		return nil, httperr.Query(err)
	}

	if c.QueryParam("start") != "" {
		req.Start = &start
	}
	if c.QueryParam("end") != "" {
		req.End = &end
	}
	if c.QueryParam("asc") != "" {
		req.Ascending = &asc
	}

	return req, nil
}

func parseLogsRequest(c echo.Context) (*monitor.LogsRequest, error) {
	req := &monitor.LogsRequest{QueueID: c.Param("queueId")}

	var start, end int64

	err := echo.QueryParamsBinder(c).
		Int64("start", &start).
		Int64("end", &end).
		BindError()
	if err != nil {
		return nil, httperr.Query(err)
	}

	if c.QueryParam("start") != "" {
		req.Start = &start
	}
	if c.QueryParam("end") != "" {
		req.End = &end
	}

	return req, nil
}
