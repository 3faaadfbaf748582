package http

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"pageflow/internal/events"
	"pageflow/internal/server"
)

const errPurgeNotConfirmed = "Purging all data requires the confirm parameter to match the purge token"

// PurgeAction erases every stored event once confirm matches the configured token,
// then persists the empty ledger. The token may come from the query or a form body.
func PurgeAction(ctx *server.Context) error {
	confirm := ctx.Query("confirm")
	if confirm == "" {
		confirm = ctx.FormValue("confirm")
	}

	deleted, err := events.PurgeAll(ctx.UserContext(), ctx.Store, ctx.Persister, ctx.Logger, confirm, ctx.Config.PurgeToken)
	if err != nil {
		if errors.Is(err, events.ErrPurgeNotConfirmed) {
			ctx.Logger.Warn("Rejected unconfirmed purge", slog.String("ip", ctx.IP()))
			return jsonError(ctx.Ctx, fiber.StatusBadRequest, errPurgeNotConfirmed)
		}
		ctx.Logger.Error("Failed to persist purge", slog.Any("error", err))
		return jsonError(ctx.Ctx, fiber.StatusInternalServerError, errInternalServer)
	}

	ctx.Metrics.IncrementPurges()
	ctx.Metrics.SetStoreEvents(ctx.Store.Len())

	return ctx.JSON(fiber.Map{
		"success": true,
		"deleted": deleted,
	})
}
