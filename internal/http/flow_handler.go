package http

import (
	"strconv"

	"pageflow/internal/server"
)

// FlowAction returns the navigation flow graph. Query: maxLayer (alias depth); a missing
// or non-numeric value uses the configured default, anything else is clamped.
func FlowAction(ctx *server.Context) error {
	depth := ctx.Config.FlowDefaultDepth
	raw := ctx.Query("maxLayer")
	if raw == "" {
		raw = ctx.Query("depth")
	}
	if n, err := strconv.Atoi(raw); err == nil {
		depth = n
	}

	return ctx.JSON(ctx.Flows.Build(depth))
}
