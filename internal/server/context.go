// Package server carries the per-request context handed to HTTP handlers.
package server

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"pageflow/internal/analytics"
	"pageflow/internal/config"
	"pageflow/internal/database"
	"pageflow/internal/events"
	"pageflow/internal/metrics"
	"pageflow/internal/timeframe"
)

// Deps are the application-owned components handlers may use.
type Deps struct {
	Config    *config.Config
	Logger    *slog.Logger
	DBManager *database.DBManager
	Store     *events.Store
	Persister *events.Persister
	Engine    *analytics.Engine
	Flows     *analytics.FlowBuilder
	Metrics   *metrics.Metrics
	Clock     timeframe.TimeProvider
}

// Context wraps the fiber context with the application dependencies.
type Context struct {
	*fiber.Ctx
	*Deps
}

// HandlerFunc is a handler receiving the application context.
type HandlerFunc func(ctx *Context) error

// Handle adapts fn to a fiber handler bound to d.
func (d *Deps) Handle(fn HandlerFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return fn(&Context{Ctx: c, Deps: d})
	}
}
