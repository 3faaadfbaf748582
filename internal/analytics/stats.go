package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pageflow/internal/events"
	"pageflow/internal/pkg/async"
	"pageflow/internal/timeframe"
)

// RangeInfo echoes the resolved time frame.
type RangeInfo struct {
	Label string    `json:"label"`
	From  time.Time `json:"from"`
	To    time.Time `json:"to"`
}

// Stats is the full breakdown for one time frame.
type Stats struct {
	Range             RangeInfo           `json:"range"`
	PV                int                 `json:"pv"`
	UV                int                 `json:"uv"`
	RealtimeVisitors  int                 `json:"realtimeVisitors"`
	NewVisitors       int                 `json:"newVisitors"`
	ReturningVisitors int                 `json:"returningVisitors"`
	MinuteTrend       []MinuteCount       `json:"minuteTrend"`
	Trend             []BucketCount       `json:"trend"`
	TrendBucket       string              `json:"trendBucket"`
	TopPages          []PageCount         `json:"topPages"`
	TopReferrers      []ReferrerCount     `json:"topReferrers"`
	Devices           []MetricCountResult `json:"devices"`
	Browsers          []MetricCountResult `json:"browsers"`
	OperatingSystems  []MetricCountResult `json:"operatingSystems"`
	Channels          map[string]int64    `json:"channels"`
	EntryPages        []PageCount         `json:"entryPages"`
	ExitPages         []PageCount         `json:"exitPages"`
}

type visitorSplit struct {
	newVisitors, returning int
}

type entryExit struct {
	entry, exit []PageCount
}

// Stats computes every breakdown for tf from one snapshot. Breakdowns run concurrently;
// if any of them fails the whole call fails.
func (e *Engine) Stats(ctx context.Context, tf *timeframe.TimeFrame) (*Stats, error) {
	snap := e.store.Snapshot()
	now := e.clock.Now(e.loc)
	inRange := snap.Query(events.Between(tf.From, tf.To))

	stats := &Stats{
		Range: RangeInfo{
			Label: string(tf.Label),
			From:  tf.From.In(e.loc),
			To:    tf.To.In(e.loc),
		},
		PV:          len(inRange),
		UV:          uniqueVisitors(inRange),
		TrendBucket: string(tf.BucketSize),
	}

	tasks := []async.Task{
		{Name: "realtime", Execute: func() (interface{}, error) {
			return realtimeVisitors(snap, now), nil
		}},
		{Name: "new_returning", Execute: func() (interface{}, error) {
			n, r := newAndReturning(snap, tf.From, now)
			return visitorSplit{newVisitors: n, returning: r}, nil
		}},
		{Name: "minute_trend", Execute: func() (interface{}, error) {
			return minuteTrend(snap, now, e.loc), nil
		}},
		{Name: "trend", Execute: func() (interface{}, error) {
			return periodTrend(inRange, tf), nil
		}},
		{Name: "top_pages", Execute: func() (interface{}, error) {
			return topPages(inRange, TopPagesLimit), nil
		}},
		{Name: "top_referrers", Execute: func() (interface{}, error) {
			return topReferrers(inRange, TopReferrersLimit), nil
		}},
		{Name: "devices", Execute: func() (interface{}, error) {
			return deviceBreakdown(inRange), nil
		}},
		{Name: "channels", Execute: func() (interface{}, error) {
			return channelBreakdown(inRange), nil
		}},
		{Name: "entry_exit", Execute: func() (interface{}, error) {
			entry, exit := entryExitPages(inRange, EntryExitLimit)
			return entryExit{entry: entry, exit: exit}, nil
		}},
	}

	results := e.pool.Execute(ctx, tasks)
	if err := async.FirstError(tasks, results); err != nil {
		e.logger.Error("Failed to compute stats",
			slog.String("range", string(tf.Label)),
			slog.Any("error", err))
		return nil, fmt.Errorf("compute stats: %w", err)
	}

	stats.RealtimeVisitors = results["realtime"].Data.(int)
	split := results["new_returning"].Data.(visitorSplit)
	stats.NewVisitors, stats.ReturningVisitors = split.newVisitors, split.returning
	stats.MinuteTrend = results["minute_trend"].Data.([]MinuteCount)
	stats.Trend = results["trend"].Data.([]BucketCount)
	stats.TopPages = results["top_pages"].Data.([]PageCount)
	stats.TopReferrers = results["top_referrers"].Data.([]ReferrerCount)
	devices := results["devices"].Data.(DeviceBreakdown)
	stats.Devices, stats.Browsers, stats.OperatingSystems = devices.Types, devices.Browsers, devices.OperatingSystems
	stats.Channels = results["channels"].Data.(map[string]int64)
	ee := results["entry_exit"].Data.(entryExit)
	stats.EntryPages, stats.ExitPages = ee.entry, ee.exit

	e.logger.Debug("Computed stats",
		slog.String("range", string(tf.Label)),
		slog.Int("pv", stats.PV),
		slog.Int("uv", stats.UV))
	return stats, nil
}
