package bind

import (
	"github.com/labstack/echo/v4"
	"github.com/simsaas/simsaas/api/rest/controller/geometry"
	"github.com/simsaas/simsaas/api/rest/controller/job"
	"github.com/simsaas/simsaas/api/rest/controller/mesh"
	"github.com/simsaas/simsaas/api/rest/controller/monitor"
	"github.com/simsaas/simsaas/api/rest/controller/project"
	"github.com/simsaas/simsaas/api/rest/controller/stats"
	"github.com/simsaas/simsaas/api/rest/controller/worker"
	"github.com/simsaas/simsaas/internal/queue"
	"gorm.io/gorm"
)

// Deps are the collaborators shared by every controller.
type Deps struct {
	DB    *gorm.DB
	Queue *queue.Service
}

func All(g *echo.Group, deps Deps) {
	Resources(g, deps)
	Jobs(g, deps)
	Monitor(g.Group("/monitor"), deps)
}

func Resources(g *echo.Group, deps Deps) {
	// projects
	{
		ctl := project.New(deps.DB)
		g.GET("/projects", ctl.List)
		g.POST("/projects", ctl.Post)
	}

	// geometries
	{
		ctl := geometry.New(deps.DB)
		g.GET("/projects/:id/geometries", ctl.ListByProject)
		g.POST("/geometries", ctl.Post)
		g.GET("/geometries/:id", ctl.Get)
		g.DELETE("/geometries/:id", ctl.Delete)
	}

	// meshes
	{
		ctl := mesh.New(deps.DB)
		g.GET("/geometries/:id/meshes", ctl.ListByGeometry)
		g.POST("/meshes", ctl.Post)
		g.GET("/meshes/:id", ctl.Get)
		g.DELETE("/meshes/:id", ctl.Delete)
	}
}

func Jobs(g *echo.Group, deps Deps) {
	ctl := job.New(deps.DB, deps.Queue)
	g.GET("/jobs", ctl.List)
	g.GET("/jobs/:id", ctl.Get)
	g.POST("/jobs", ctl.Post)

	g.GET("/stats", stats.New(deps.DB).Get)
}

func Monitor(g *echo.Group, deps Deps) {
	ctl := monitor.New(deps.Queue)
	g.GET("/jobs", ctl.List)
	g.GET("/jobs/:queueId", ctl.Get)
	g.GET("/jobs/:queueId/logs", ctl.Logs)

	g.GET("/workers", worker.New(deps.Queue).Status)
}
