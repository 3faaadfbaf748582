package internal

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	v1 "pageflow/api/v1"
	"pageflow/internal/http"
	"pageflow/internal/server"
)

// publicCORSConfig is the permissive CORS setup for the collection endpoint, which the
// snippet calls cross-origin.
var publicCORSConfig = cors.Config{
	AllowOrigins: "*",
	AllowMethods: "POST,GET,OPTIONS",
	AllowHeaders: "Origin, Content-Type, Accept, Referrer, User-Agent",
}

// requestLogger logs one line per request.
func requestLogger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		logger.Debug("Handled request",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", c.Response().StatusCode()),
			slog.Duration("duration", time.Since(start)))
		return err
	}
}

// MountAppRoutes mounts all application routes on srv.
func MountAppRoutes(srv *fiber.App, deps *server.Deps) {
	srv.Use(recover.New())
	srv.Use(requestLogger(deps.Logger))

	// Health check endpoint
	srv.Get("/_health", deps.Handle(http.HealthIndexAction))
	srv.Head("/_health", deps.Handle(http.HealthIndexAction))

	srv.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))

	// === PUBLIC COLLECTION ROUTES ===
	publicCORS := cors.New(publicCORSConfig)
	srv.Get("/collect", publicCORS, deps.Handle(v1.CollectPixelHandler))
	srv.Post("/collect", publicCORS, deps.Handle(v1.CollectBeaconHandler))
	srv.Options("/collect", publicCORS, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	// === DASHBOARD API ROUTES ===
	api := srv.Group("/api")
	api.Get("/stats", deps.Handle(http.StatsAction))
	api.Get("/flow", deps.Handle(http.FlowAction))
	api.Get("/visitors", deps.Handle(http.VisitorsAction))
	api.Post("/purge", deps.Handle(http.PurgeAction))
	api.Delete("/data", deps.Handle(http.PurgeAction))
}
