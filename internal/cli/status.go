package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	handlers "pageflow/internal/http"
)

// StatusCommand reports server health.
type StatusCommand struct {
	baseCommand
}

// Execute implements goflags.Commander.
func (c *StatusCommand) Execute(args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.globals.Timeout)
	defer cancel()

	var health handlers.HealthStatus
	raw, err := c.client().getJSON(ctx, "/_health", nil, &health)
	if err != nil {
		return fmt.Errorf("server %s unreachable or unhealthy: %w", c.globals.Server, err)
	}
	if c.globals.JSON {
		c.printf("%s\n", raw)
		return nil
	}

	w := tabwriter.NewWriter(c.env.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Server\t%s\n", c.globals.Server)
	fmt.Fprintf(w, "Status\t%s\n", health.Status)
	fmt.Fprintf(w, "Database\t%s\n", health.DBStatus)
	fmt.Fprintf(w, "Events in memory\t%d\n", health.Events)
	fmt.Fprintf(w, "Server time\t%s\n", health.Timestamp.Format("2006-01-02 15:04:05 MST"))
	return w.Flush()
}
