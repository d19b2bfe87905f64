package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo-contrib/prometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/simsaas/simsaas/api/gql"
	"github.com/simsaas/simsaas/api/rest/bind"
	"github.com/simsaas/simsaas/pkg/log"
)

// Server is simsaas' HTTP API.
type Server struct {
	e    *echo.Echo
	port int
}

// New builds the API router over deps.
func New(deps bind.Deps, port int) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	// health
	e.GET("/health", Health(deps))

	// metrics
	prometheus.NewPrometheus("simsaas", nil).Use(e)

	// REST
	bind.All(e.Group("/v1"), deps)

	// GraphQL
	gqlHandler := gql.Handler(deps.DB)
	e.GET("/gql", gqlHandler)
	e.POST("/gql", gqlHandler)

	return &Server{e: e, port: port}
}

// Handler exposes the router for in-process use.
func (s *Server) Handler() http.Handler {
	return s.e
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	log.Info("api listening", "port", s.port)

	err := s.e.Start(fmt.Sprintf(":%v", s.port))
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests and drains in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}
