package analytics

import (
	"pageflow/internal/events"
	"pageflow/internal/pkg/user_agent"
	"pageflow/internal/visitors"
)

// Visitor listing bounds
const (
	MinVisitorsLimit     = 1
	MaxVisitorsLimit     = 100
	DefaultVisitorsLimit = 50
)

// VisitorEntry is a recent event with its device classification.
type VisitorEntry struct {
	events.Event
	Device user_agent.Classification `json:"device"`
	Alias  string                    `json:"alias"`
}

// VisitorList is the most recent events plus the distinct client addresses among them.
// Addresses feed an external geo lookup; nothing here resolves them.
type VisitorList struct {
	Visitors  []VisitorEntry `json:"visitors"`
	Addresses []string       `json:"addresses"`
	Limit     int            `json:"limit"`
}

// ClampVisitorsLimit bounds a requested limit to [MinVisitorsLimit, MaxVisitorsLimit].
func ClampVisitorsLimit(limit int) int {
	switch {
	case limit < MinVisitorsLimit:
		return MinVisitorsLimit
	case limit > MaxVisitorsLimit:
		return MaxVisitorsLimit
	default:
		return limit
	}
}

// RecentVisitors lists the newest events by (timestamp, id), classified.
func RecentVisitors(store *events.Store, limit int) *VisitorList {
	limit = ClampVisitorsLimit(limit)
	recent := store.Recent(limit)

	list := &VisitorList{
		Visitors:  make([]VisitorEntry, len(recent)),
		Addresses: make([]string, 0),
		Limit:     limit,
	}
	seen := make(map[string]bool)
	for i, ev := range recent {
		list.Visitors[i] = VisitorEntry{
			Event:  ev,
			Device: user_agent.Classify(events.Value(ev.ClientSignature)),
			Alias: visitors.Alias(visitors.Key(
				events.Value(ev.VisitorID),
				events.Value(ev.ClientAddress),
				events.Value(ev.ClientSignature),
			)),
		}
		if addr := events.Value(ev.ClientAddress); addr != "" && !seen[addr] {
			seen[addr] = true
			list.Addresses = append(list.Addresses, addr)
		}
	}
	return list
}
