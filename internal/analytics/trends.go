package analytics

import (
	"time"

	"pageflow/internal/events"
	"pageflow/internal/timeframe"
)

// MinuteCount is one point of the trailing-hour trend.
type MinuteCount struct {
	Minute string `json:"minute"`
	Count  int64  `json:"count"`
}

// BucketCount is one point of the period trend; Key is an hour ("15") or a day ("2006-01-02").
type BucketCount struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// minuteTrend counts events per minute over the trailing hour. Only minutes with events
// are emitted, in ascending order.
func minuteTrend(snap *events.Snapshot, now time.Time, loc *time.Location) []MinuteCount {
	c := newCounter()
	for _, ev := range snap.Query(events.Between(now.Add(-MinuteTrendWindow), now)) {
		c.add(timeframe.MinuteKey(ev.Timestamp, loc))
	}

	out := make([]MinuteCount, 0, len(c.keys))
	for _, k := range c.sortedKeys() {
		out = append(out, MinuteCount{Minute: k, Count: c.get(k)})
	}
	return out
}

// periodTrend buckets in-range events by hour of day for today and by day otherwise.
func periodTrend(inRange []events.Event, tf *timeframe.TimeFrame) []BucketCount {
	c := newCounter()
	for i := range inRange {
		c.add(tf.BucketKey(inRange[i].Timestamp))
	}

	out := make([]BucketCount, 0, len(c.keys))
	for _, k := range c.sortedKeys() {
		out = append(out, BucketCount{Key: k, Count: c.get(k)})
	}
	return out
}
