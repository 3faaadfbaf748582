package analytics

import (
	"sort"

	"pageflow/internal/events"
)

// Session is one visitor's page sequence ordered by (timestamp, id).
type Session struct {
	VisitorID string
	Events    []events.Event
}

// BuildSessions groups every event carrying both a visitor id and a URL by visitor.
// Sessions come back in order of each visitor's first appearance in the ledger.
func BuildSessions(snap *events.Snapshot) []Session {
	sessions := make([]Session, 0, len(snap.Visitors()))
	for _, id := range snap.Visitors() {
		all := snap.VisitorEvents(id)
		pages := all[:0]
		for _, ev := range all {
			if ev.HasURL() {
				pages = append(pages, ev)
			}
		}
		if len(pages) == 0 {
			continue
		}
		sort.SliceStable(pages, func(i, j int) bool {
			return before(&pages[i], &pages[j])
		})
		sessions = append(sessions, Session{VisitorID: id, Events: pages})
	}
	return sessions
}
