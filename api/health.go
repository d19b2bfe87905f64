package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/simsaas/simsaas/api/rest/bind"
)

var startedAt = time.Now()

// HealthResponse defines the data the Health
// REST endpoint returns.
type HealthResponse struct {
	Status Status            `json:"status"`
	Uptime time.Duration     `json:"uptime"`
	Checks map[string]string `json:"checks"`
}

// Status enumerates the health statuses of simsaas.
type Status string

const (
	// Healthy implies every dependency answered.
	Healthy Status = "healthy"
	// Degraded implies the database or the broker did not.
	Degraded Status = "degraded"
)

const checkTimeout = 2 * time.Second

// Health reports uptime and whether the database and the
// broker are reachable.
func Health(deps bind.Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), checkTimeout)
		defer cancel()

		resp := HealthResponse{
			Status: Healthy,
			Uptime: time.Since(startedAt),
			Checks: map[string]string{
				"database": check(func() error { return pingDB(ctx, deps) }),
				"queue":    check(func() error { return deps.Queue.Ping(ctx) }),
			},
		}

		code := http.StatusOK
		for _, v := range resp.Checks {
			if v != "ok" {
				resp.Status = Degraded
				code = http.StatusServiceUnavailable
			}
		}

		return c.JSON(code, resp)
	}
}

func pingDB(ctx context.Context, deps bind.Deps) error {
	sqlDB, err := deps.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func check(fn func() error) string {
	if err := fn(); err != nil {
		return err.Error()
	}
	return "ok"
}
