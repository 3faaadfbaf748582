package http

import (
	"strconv"

	"pageflow/internal/analytics"
	"pageflow/internal/server"
)

// VisitorsAction lists the most recent events with device data. Query: limit.
func VisitorsAction(ctx *server.Context) error {
	limit := ctx.Config.VisitorsDefaultLimit
	if n, err := strconv.Atoi(ctx.Query("limit")); err == nil {
		limit = n
	}

	return ctx.JSON(analytics.RecentVisitors(ctx.Store, limit))
}
