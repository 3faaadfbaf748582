package http

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"pageflow/internal/server"
	"pageflow/internal/timeframe"
)

// StatsAction returns every breakdown for the requested range.
// Query: range=today|week|month|all|custom, start, end.
func StatsAction(ctx *server.Context) error {
	parser := timeframe.NewTimeFrameParser(ctx.Clock)
	params := timeframe.TimeFrameParserParams{
		Range: ctx.Query("range"),
		Start: ctx.Query("start"),
		End:   ctx.Query("end"),
		Tz:    ctx.Engine.Location(),
	}

	timeFrame, err := parser.ParseTimeFrame(params)
	if err != nil {
		if errors.Is(err, timeframe.ErrInvalidRange) {
			ctx.Logger.Debug("Rejected stats range", slog.Any("error", err))
			return jsonError(ctx.Ctx, fiber.StatusBadRequest, err.Error())
		}
		ctx.Logger.Error("Error parsing time frame", slog.Any("error", err))
		return jsonError(ctx.Ctx, fiber.StatusInternalServerError, errInternalServer)
	}

	stats, err := ctx.Engine.Stats(ctx.UserContext(), timeFrame)
	if err != nil {
		ctx.Logger.Error("Error fetching stats", slog.Any("error", err))
		return jsonError(ctx.Ctx, fiber.StatusInternalServerError, errInternalServer)
	}

	return ctx.JSON(stats)
}
