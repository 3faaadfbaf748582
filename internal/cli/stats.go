package cli

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"text/tabwriter"

	"pageflow/internal/analytics"
)

// StatsCommand prints the aggregated statistics for a time range.
type StatsCommand struct {
	baseCommand
	Range string `long:"range" short:"r" default:"today" choice:"today" choice:"week" choice:"month" choice:"all" choice:"custom" description:"Time range"`
	Start string `long:"start" description:"Custom range start (YYYY-MM-DD)"`
	End   string `long:"end" description:"Custom range end (YYYY-MM-DD)"`
}

// Execute implements goflags.Commander.
func (c *StatsCommand) Execute(args []string) error {
	query := url.Values{"range": {c.Range}}
	if c.Start != "" {
		query.Set("start", c.Start)
	}
	if c.End != "" {
		query.Set("end", c.End)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.globals.Timeout)
	defer cancel()

	var stats analytics.Stats
	raw, err := c.client().getJSON(ctx, "/api/stats", query, &stats)
	if err != nil {
		return fmt.Errorf("fetch stats: %w", err)
	}
	if c.globals.JSON {
		c.printf("%s\n", raw)
		return nil
	}

	c.render(&stats)
	return nil
}

func (c *StatsCommand) render(s *analytics.Stats) {
	w := tabwriter.NewWriter(c.env.stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "Range\t%s (%s to %s)\n", s.Range.Label,
		s.Range.From.Format("2006-01-02 15:04"), s.Range.To.Format("2006-01-02 15:04"))
	fmt.Fprintf(w, "Page views\t%d\n", s.PV)
	fmt.Fprintf(w, "Unique visitors\t%d\n", s.UV)
	fmt.Fprintf(w, "Realtime visitors\t%d\n", s.RealtimeVisitors)
	fmt.Fprintf(w, "New / returning\t%d / %d\n", s.NewVisitors, s.ReturningVisitors)

	fmt.Fprintf(w, "\nTOP PAGES\tVIEWS\n")
	for _, p := range s.TopPages {
		fmt.Fprintf(w, "%s\t%d\n", p.URL, p.Count)
	}

	fmt.Fprintf(w, "\nTOP REFERRERS\tVISITS\n")
	for _, r := range s.TopReferrers {
		fmt.Fprintf(w, "%s\t%d\n", r.Name, r.Count)
	}

	fmt.Fprintf(w, "\nCHANNEL\tVISITS\n")
	channels := make([]string, 0, len(s.Channels))
	for name := range s.Channels {
		channels = append(channels, name)
	}
	sort.Strings(channels)
	for _, name := range channels {
		fmt.Fprintf(w, "%s\t%d\n", name, s.Channels[name])
	}

	fmt.Fprintf(w, "\nDEVICE\tVISITS\n")
	for _, d := range s.Devices {
		fmt.Fprintf(w, "%s\t%d\n", d.Name, d.Count)
	}

	fmt.Fprintf(w, "\nTREND (%s)\tVIEWS\n", s.TrendBucket)
	for _, b := range s.Trend {
		fmt.Fprintf(w, "%s\t%d\n", b.Key, b.Count)
	}
}
