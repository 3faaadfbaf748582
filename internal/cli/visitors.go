package cli

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"text/tabwriter"

	"pageflow/internal/analytics"
	"pageflow/internal/events"
)

// VisitorsCommand lists the most recent events.
type VisitorsCommand struct {
	baseCommand
	Limit int `long:"limit" short:"n" description:"Number of events to list (server default when omitted)"`
}

// Execute implements goflags.Commander.
func (c *VisitorsCommand) Execute(args []string) error {
	query := url.Values{}
	if c.Limit > 0 {
		query.Set("limit", strconv.Itoa(c.Limit))
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.globals.Timeout)
	defer cancel()

	var list analytics.VisitorList
	raw, err := c.client().getJSON(ctx, "/api/visitors", query, &list)
	if err != nil {
		return fmt.Errorf("fetch visitors: %w", err)
	}
	if c.globals.JSON {
		c.printf("%s\n", raw)
		return nil
	}

	w := tabwriter.NewWriter(c.env.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "TIME\tVISITOR\tURL\tDEVICE\tBROWSER\tOS\tADDRESS\n")
	for _, v := range list.Visitors {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			v.Timestamp.Format("2006-01-02 15:04:05"),
			orDash(events.Value(v.VisitorID)),
			orDash(events.Value(v.URL)),
			v.Device.Type, v.Device.Browser, v.Device.OS,
			orDash(events.Value(v.ClientAddress)))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	c.printf("\n%d distinct addresses\n", len(list.Addresses))
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
