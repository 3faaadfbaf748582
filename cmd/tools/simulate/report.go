package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// SimStats summarizes a finished simulation.
type SimStats struct {
	Duration        time.Duration
	Users           int
	SuccessfulUsers int
	TotalRequests   int
	SentRequests    int64
	ByUserType      map[string]int
}

// Summarize folds per-user results into totals. Only successful users are counted by type.
func Summarize(results []UserResult, users int, elapsed time.Duration) SimStats {
	stats := SimStats{
		Duration:   elapsed,
		Users:      users,
		ByUserType: make(map[string]int),
	}
	for _, r := range results {
		if !r.Success {
			continue
		}
		stats.SuccessfulUsers++
		stats.TotalRequests += r.Requests
		stats.ByUserType[r.UserType]++
	}
	return stats
}

// RPS is the request rate over the whole run.
func (s SimStats) RPS() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.TotalRequests) / s.Duration.Seconds()
}

func printReport(out io.Writer, stats SimStats, scenario *Scenario, baseURL string) {
	fmt.Fprintln(out, "\n=== Simulation Results ===")

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Duration:\t%.2fs\n", stats.Duration.Seconds())
	fmt.Fprintf(w, "Successful users:\t%d/%d\n", stats.SuccessfulUsers, stats.Users)
	fmt.Fprintf(w, "Total requests:\t%d\n", stats.TotalRequests)
	fmt.Fprintf(w, "Requests sent:\t%d\n", stats.SentRequests)
	fmt.Fprintf(w, "Average RPS:\t%.2f\n", stats.RPS())
	w.Flush()

	fmt.Fprintln(out, "\nUser types:")
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "TYPE\tUSERS\tSHARE\n")
	for _, ut := range scenario.UserTypes {
		n := stats.ByUserType[ut.Name]
		share := 0.0
		if stats.SuccessfulUsers > 0 {
			share = float64(n) / float64(stats.SuccessfulUsers) * 100
		}
		fmt.Fprintf(w, "%s\t%d\t%.1f%%\n", ut.Name, n, share)
	}
	w.Flush()

	fmt.Fprintf(out, "\nStats: %s/api/stats\nFlow:  %s/api/flow\n", baseURL, baseURL)
}
