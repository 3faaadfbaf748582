package analytics

import (
	"time"

	"pageflow/internal/events"
)

// PageCount is a ranked URL.
type PageCount struct {
	URL   string `json:"url"`
	Count int64  `json:"count"`
}

func toPageCounts(ranked []MetricCountResult) []PageCount {
	out := make([]PageCount, len(ranked))
	for i, r := range ranked {
		out[i] = PageCount{URL: r.Name, Count: r.Count}
	}
	return out
}

// uniqueVisitors counts distinct visitor ids among evs.
func uniqueVisitors(evs []events.Event) int {
	seen := make(map[string]struct{})
	for i := range evs {
		if evs[i].HasVisitor() {
			seen[*evs[i].VisitorID] = struct{}{}
		}
	}
	return len(seen)
}

// realtimeVisitors counts distinct visitors active in the trailing window, regardless of
// the requested range.
func realtimeVisitors(snap *events.Snapshot, now time.Time) int {
	return uniqueVisitors(snap.Query(events.Between(now.Add(-RealtimeWindow), now)))
}

// newAndReturning splits every visitor in the ledger by whether their first event falls
// within [from, now]. The lookup deliberately spans the whole ledger, not the range.
func newAndReturning(snap *events.Snapshot, from, now time.Time) (newVisitors, returning int) {
	for _, id := range snap.Visitors() {
		first, ok := snap.FirstSeen(id)
		if !ok {
			continue
		}
		if !first.Before(from) && !first.After(now) {
			newVisitors++
		} else {
			returning++
		}
	}
	return newVisitors, returning
}

// before orders events by (timestamp, id).
func before(a, b *events.Event) bool {
	if a.Timestamp.Equal(b.Timestamp) {
		return a.ID < b.ID
	}
	return a.Timestamp.Before(b.Timestamp)
}

// entryExitPages takes, per visitor, the earliest and latest in-range event carrying a URL
// and ranks the resulting pages.
func entryExitPages(inRange []events.Event, limit int) (entry, exit []PageCount) {
	type bounds struct {
		first, last *events.Event
	}

	order := make([]string, 0)
	byVisitor := make(map[string]*bounds)
	for i := range inRange {
		ev := &inRange[i]
		if !ev.HasVisitor() || !ev.HasURL() {
			continue
		}
		b, ok := byVisitor[*ev.VisitorID]
		if !ok {
			byVisitor[*ev.VisitorID] = &bounds{first: ev, last: ev}
			order = append(order, *ev.VisitorID)
			continue
		}
		if before(ev, b.first) {
			b.first = ev
		}
		if before(b.last, ev) {
			b.last = ev
		}
	}

	entries, exits := newCounter(), newCounter()
	for _, id := range order {
		b := byVisitor[id]
		entries.add(*b.first.URL)
		exits.add(*b.last.URL)
	}
	return toPageCounts(entries.top(limit)), toPageCounts(exits.top(limit))
}
