// Package analytics derives statistics and navigation flows from the visit ledger.
//
// The package is organized into focused modules:
//   - analytics.go: Engine and shared result types
//   - stats.go: the full breakdown for one time frame
//   - rankings.go: first-seen-stable counting and top-N selection
//   - trends.go: minute and period trends
//   - visitors.go: unique, real-time, new/returning and entry/exit metrics
//   - breakdowns.go: device, browser, OS and channel tallies
//   - sessions.go: per-visitor page sequences
//   - flows.go: layered transition graph
//   - visitor_list.go: recent events enriched with device data
//
// Every computation reads one events.Snapshot and never mutates it.
package analytics

import (
	"log/slog"
	"time"

	"pageflow/internal/events"
	"pageflow/internal/pkg/async"
	"pageflow/internal/timeframe"
)

// Windows independent of the requested range.
const (
	RealtimeWindow    = 5 * time.Minute
	MinuteTrendWindow = 60 * time.Minute
)

// Result sizes
const (
	TopPagesLimit     = 10
	TopReferrersLimit = 10
	EntryExitLimit    = 5
)

// MetricCountResult represents a generic key-count pair for query results
type MetricCountResult struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// Engine computes statistics over the store. It is stateless between calls.
type Engine struct {
	store  *events.Store
	clock  timeframe.TimeProvider
	loc    *time.Location
	pool   *async.Pool
	logger *slog.Logger
}

// NewEngine creates an aggregation engine reading store. Buckets are rendered in loc.
func NewEngine(store *events.Store, clock timeframe.TimeProvider, loc *time.Location, logger *slog.Logger) *Engine {
	if clock == nil {
		clock = &timeframe.DefaultTimeProvider{}
	}
	if loc == nil {
		loc = time.Local
	}
	return &Engine{
		store:  store,
		clock:  clock,
		loc:    loc,
		pool:   async.NewPool(4),
		logger: logger,
	}
}

// Location returns the timezone used for buckets.
func (e *Engine) Location() *time.Location {
	return e.loc
}
