package analytics_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pageflow/internal/analytics"
	"pageflow/internal/events"
	"pageflow/internal/testsupport"
	"pageflow/internal/timeframe"
)

const (
	uaWindowsChrome = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	uaIPhone        = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	uaIPad          = "Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	uaMacChrome     = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// 2024-07-15 14:30:00 UTC (Monday)
var now = time.Date(2024, 7, 15, 14, 30, 0, 0, time.UTC)

func seedLedger() *events.Store {
	day := 24 * time.Hour
	return testsupport.SeedStore(now,
		testsupport.Visit{Ago: 10 * day, Visitor: "v1", URL: "/home", Referrer: testsupport.Ptr(""), UserAgent: uaWindowsChrome},
		testsupport.Visit{Ago: 3 * day, Visitor: "v2", URL: "/home", Referrer: testsupport.Ptr("https://www.google.com/search?q=pageflow"), UserAgent: uaIPhone},
		testsupport.Visit{Ago: 3*day - time.Minute, Visitor: "v2", URL: "/pricing", Referrer: testsupport.Ptr("/home"), UserAgent: uaIPhone},
		testsupport.Visit{Ago: time.Hour, Visitor: "v3", URL: "/home", Referrer: testsupport.Ptr("https://facebook.com/"), UserAgent: uaIPad},
		testsupport.Visit{Ago: 59 * time.Minute, Visitor: "v3", URL: "/docs", UserAgent: uaIPad},
		testsupport.Visit{Ago: 2 * time.Minute, Visitor: "v1", URL: "/pricing", UserAgent: uaMacChrome},
		testsupport.Visit{Ago: time.Minute, Visitor: "v4", URL: "/home"},
		testsupport.Visit{Ago: 30 * time.Second, URL: "/home"},
	)
}

func newEngine(store *events.Store) *analytics.Engine {
	return analytics.NewEngine(store, testsupport.FixedClock(now), time.UTC, testsupport.GetLogger())
}

func parseRange(t *testing.T, rangeLabel string) *timeframe.TimeFrame {
	t.Helper()
	parser := timeframe.NewTimeFrameParser(testsupport.FixedClock(now))
	tf, err := parser.ParseTimeFrame(timeframe.TimeFrameParserParams{Range: rangeLabel, Tz: time.UTC})
	require.NoError(t, err)
	return tf
}

func TestStatsWeek(t *testing.T) {
	engine := newEngine(seedLedger())

	stats, err := engine.Stats(context.Background(), parseRange(t, "week"))
	require.NoError(t, err)

	assert.Equal(t, "week", stats.Range.Label)
	assert.Equal(t, 7, stats.PV)
	assert.Equal(t, 4, stats.UV)
	assert.Equal(t, 2, stats.RealtimeVisitors)
	assert.Equal(t, 3, stats.NewVisitors)
	assert.Equal(t, 1, stats.ReturningVisitors)

	assert.Equal(t, []analytics.MinuteCount{
		{Minute: "2024-07-15 13:30", Count: 1},
		{Minute: "2024-07-15 13:31", Count: 1},
		{Minute: "2024-07-15 14:28", Count: 1},
		{Minute: "2024-07-15 14:29", Count: 2},
	}, stats.MinuteTrend)

	assert.Equal(t, "day", stats.TrendBucket)
	assert.Equal(t, []analytics.BucketCount{
		{Key: "2024-07-12", Count: 2},
		{Key: "2024-07-15", Count: 5},
	}, stats.Trend)

	assert.Equal(t, []analytics.PageCount{
		{URL: "/home", Count: 4},
		{URL: "/pricing", Count: 2},
		{URL: "/docs", Count: 1},
	}, stats.TopPages)

	assert.Equal(t, []analytics.ReferrerCount{
		{Referrer: "https://www.google.com/search?q=pageflow", Name: "Google", Count: 1},
		{Referrer: "/home", Name: "/home", Count: 1},
		{Referrer: "https://facebook.com/", Name: "Facebook", Count: 1},
	}, stats.TopReferrers)

	assert.Equal(t, map[string]int64{
		"direct":   4,
		"search":   1,
		"social":   1,
		"referral": 1,
	}, stats.Channels)

	assert.Equal(t, []analytics.MetricCountResult{
		{Name: "mobile", Count: 2},
		{Name: "tablet", Count: 2},
		{Name: "unknown", Count: 2},
		{Name: "desktop", Count: 1},
	}, stats.Devices)
	assert.Equal(t, []analytics.MetricCountResult{
		{Name: "Safari", Count: 4},
		{Name: "Unknown", Count: 2},
		{Name: "Chrome", Count: 1},
	}, stats.Browsers)
	assert.Equal(t, []analytics.MetricCountResult{
		{Name: "iOS", Count: 4},
		{Name: "Unknown", Count: 2},
		{Name: "macOS", Count: 1},
	}, stats.OperatingSystems)

	assert.Equal(t, []analytics.PageCount{
		{URL: "/home", Count: 3},
		{URL: "/pricing", Count: 1},
	}, stats.EntryPages)
	assert.Equal(t, []analytics.PageCount{
		{URL: "/pricing", Count: 2},
		{URL: "/docs", Count: 1},
		{URL: "/home", Count: 1},
	}, stats.ExitPages)
}

func TestStatsToday(t *testing.T) {
	engine := newEngine(seedLedger())

	stats, err := engine.Stats(context.Background(), parseRange(t, "today"))
	require.NoError(t, err)

	assert.Equal(t, 5, stats.PV)
	assert.Equal(t, 3, stats.UV)
	assert.Equal(t, 2, stats.NewVisitors)
	assert.Equal(t, 2, stats.ReturningVisitors)
	assert.Equal(t, "hour", stats.TrendBucket)
	assert.Equal(t, []analytics.BucketCount{
		{Key: "13", Count: 2},
		{Key: "14", Count: 3},
	}, stats.Trend)
}

func TestStatsEmptyStore(t *testing.T) {
	engine := newEngine(events.NewStore())

	stats, err := engine.Stats(context.Background(), parseRange(t, "all"))
	require.NoError(t, err)

	assert.Zero(t, stats.PV)
	assert.Zero(t, stats.UV)

	body, err := json.Marshal(stats)
	require.NoError(t, err)
	// Empty breakdowns render as arrays, not null.
	assert.Contains(t, string(body), `"topPages":[]`)
	assert.Contains(t, string(body), `"minuteTrend":[]`)
	assert.Contains(t, string(body), `"channels":{"direct":0,"referral":0,"search":0,"social":0}`)
}

func TestStatsIsIdempotent(t *testing.T) {
	engine := newEngine(seedLedger())

	for _, label := range []string{"today", "week", "month", "all"} {
		t.Run(label, func(t *testing.T) {
			tf := parseRange(t, label)

			first, err := engine.Stats(context.Background(), tf)
			require.NoError(t, err)
			second, err := engine.Stats(context.Background(), tf)
			require.NoError(t, err)

			a, err := json.Marshal(first)
			require.NoError(t, err)
			b, err := json.Marshal(second)
			require.NoError(t, err)
			assert.Equal(t, string(a), string(b))
		})
	}
}

func TestStatsRankingsAreStable(t *testing.T) {
	visits := make([]testsupport.Visit, 0, 30)
	// Fifteen pages with identical counts: ties must keep first-seen order.
	for i := 0; i < 15; i++ {
		url := "/p" + string(rune('a'+i))
		visits = append(visits,
			testsupport.Visit{Ago: time.Minute, Visitor: "v" + url, URL: url},
			testsupport.Visit{Ago: time.Minute, Visitor: "w" + url, URL: url},
		)
	}
	engine := newEngine(testsupport.SeedStore(now, visits...))
	tf := parseRange(t, "today")

	stats, err := engine.Stats(context.Background(), tf)
	require.NoError(t, err)
	require.Len(t, stats.TopPages, analytics.TopPagesLimit)
	require.Len(t, stats.EntryPages, analytics.EntryExitLimit)
	for i, p := range stats.TopPages {
		assert.Equal(t, "/p"+string(rune('a'+i)), p.URL)
	}

	for i := 0; i < 5; i++ {
		again, err := engine.Stats(context.Background(), tf)
		require.NoError(t, err)
		assert.Equal(t, stats.TopPages, again.TopPages)
		assert.Equal(t, stats.EntryPages, again.EntryPages)
		assert.Equal(t, stats.ExitPages, again.ExitPages)
	}
}
