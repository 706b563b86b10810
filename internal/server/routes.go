package server

import (
	"github.com/finvista/evograph/internal/server/middleware"
	"github.com/finvista/evograph/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Event routes
	apiRoutes.POST("/corpora/:id/events", routes.IngestEventsHandler, middleware.RequirePermission("event.ingest"))
	apiRoutes.GET("/corpora/:id/events", routes.GetEventsHandler, middleware.RequireAnyPermission("event.view", "corpus.view:all"))
	apiRoutes.GET("/corpora/:id/events/similar", routes.GetSimilarEventsHandler, middleware.RequireAnyPermission("event.view", "corpus.view:all"))

	// Run routes
	apiRoutes.POST("/corpora/:id/runs", routes.CreateRunHandler, middleware.RequirePermission("run.create"))
	apiRoutes.GET("/corpora/:id/runs", routes.GetRunsHandler, middleware.RequireAnyPermission("run.view", "corpus.view:all"))
	apiRoutes.GET("/runs/:run_id", routes.GetRunHandler, middleware.RequireAnyPermission("run.view", "corpus.view:all"))

	// Link routes
	apiRoutes.GET("/corpora/:id/links", routes.GetLinksHandler, middleware.RequireAnyPermission("link.view", "corpus.view:all"))

	// Corpus routes
	apiRoutes.DELETE("/corpora/:id", routes.DeleteCorpusHandler, middleware.RequirePermission("corpus.delete"))
}
