package http

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"pageflow/internal/database"
	"pageflow/internal/server"
)

const (
	statusOK       = "ok"
	statusDegraded = "degraded"
	statusError    = "error"
)

// HealthStatus is the health check response. Events and LastEventID describe the
// in-memory ledger; DBStatus the durable store behind it.
type HealthStatus struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	DBStatus    string    `json:"db_status"`
	Events      int       `json:"events"`
	LastEventID uint64    `json:"last_event_id"`
}

var errNoConnection = errors.New("database connection unavailable")

// pingDatabase checks that the durable store still answers.
func pingDatabase(ctx context.Context, dm *database.DBManager) error {
	db := dm.GetConnection()
	if db == nil {
		return errNoConnection
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// HealthIndexAction reports the ledger size and whether the durable store answers.
// An unreachable store answers 503 with status "degraded".
func HealthIndexAction(ctx *server.Context) error {
	health := HealthStatus{
		Status:      statusOK,
		Timestamp:   time.Now(),
		DBStatus:    statusOK,
		Events:      ctx.Store.Len(),
		LastEventID: ctx.Store.LastID(),
	}

	if err := pingDatabase(ctx.UserContext(), ctx.DBManager); err != nil {
		ctx.Logger.Error("Database health check failed", slog.Any("error", err))
		health.Status = statusDegraded
		health.DBStatus = statusError
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(health)
	}

	return ctx.JSON(health)
}
