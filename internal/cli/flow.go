package cli

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"text/tabwriter"

	"pageflow/internal/analytics"
)

// FlowCommand prints the navigation flow links.
type FlowCommand struct {
	baseCommand
	Depth int `long:"depth" short:"d" description:"Maximum flow layer (server default when omitted)"`
}

// Execute implements goflags.Commander.
func (c *FlowCommand) Execute(args []string) error {
	query := url.Values{}
	if c.Depth > 0 {
		query.Set("maxLayer", strconv.Itoa(c.Depth))
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.globals.Timeout)
	defer cancel()

	var graph analytics.FlowGraph
	raw, err := c.client().getJSON(ctx, "/api/flow", query, &graph)
	if err != nil {
		return fmt.Errorf("fetch flow: %w", err)
	}
	if c.globals.JSON {
		c.printf("%s\n", raw)
		return nil
	}

	c.printf("%d sessions, %d nodes, depth %d\n\n", graph.Sessions, len(graph.Nodes), graph.MaxLayer)

	w := tabwriter.NewWriter(c.env.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "SOURCE\tTARGET\tVISITS\n")
	for _, l := range graph.Links {
		fmt.Fprintf(w, "%s\t%s\t%d\n", l.Source, l.Target, l.Value)
	}
	return w.Flush()
}
