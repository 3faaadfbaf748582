package events

import (
	"sort"
	"time"
)

// Snapshot is an immutable point-in-time view of a Store. Every slice it returns is shared
// with the store and must be treated as read-only.
type Snapshot struct {
	events    []Event
	byTime    []int
	byVisitor map[string][]int
	visitors  []string
}

// Len returns the number of events in the snapshot.
func (s *Snapshot) Len() int {
	return len(s.events)
}

// All returns every event in ID order.
func (s *Snapshot) All() []Event {
	return s.events
}

// Query returns the events matching f in ID order.
func (s *Snapshot) Query(f Filter) []Event {
	if f.From.IsZero() && f.To.IsZero() {
		out := make([]Event, 0, len(s.events))
		for i := range s.events {
			if f.Match(&s.events[i]) {
				out = append(out, s.events[i])
			}
		}
		return out
	}

	window := s.window(f.From, f.To)
	positions := make([]int, 0, len(window))
	for _, pos := range window {
		if f.Match(&s.events[pos]) {
			positions = append(positions, pos)
		}
	}
	// Positions follow ID order.
	sort.Ints(positions)

	out := make([]Event, len(positions))
	for i, pos := range positions {
		out[i] = s.events[pos]
	}
	return out
}

// window returns the byTime positions whose timestamps fall within [from, to].
func (s *Snapshot) window(from, to time.Time) []int {
	lo := 0
	if !from.IsZero() {
		lo = sort.Search(len(s.byTime), func(i int) bool {
			return !s.events[s.byTime[i]].Timestamp.Before(from)
		})
	}
	hi := len(s.byTime)
	if !to.IsZero() {
		hi = sort.Search(len(s.byTime), func(i int) bool {
			return s.events[s.byTime[i]].Timestamp.After(to)
		})
	}
	if hi < lo {
		return nil
	}
	return s.byTime[lo:hi]
}

// Recent returns up to limit events, newest first by (timestamp, id).
func (s *Snapshot) Recent(limit int) []Event {
	if limit <= 0 {
		return []Event{}
	}
	if limit > len(s.byTime) {
		limit = len(s.byTime)
	}
	out := make([]Event, 0, limit)
	for i := len(s.byTime) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.events[s.byTime[i]])
	}
	return out
}

// Visitors returns every visitor identifier in order of first appearance.
func (s *Snapshot) Visitors() []string {
	return s.visitors
}

// VisitorEvents returns a visitor's events in ID order.
func (s *Snapshot) VisitorEvents(visitorID string) []Event {
	positions := s.byVisitor[visitorID]
	out := make([]Event, len(positions))
	for i, pos := range positions {
		out[i] = s.events[pos]
	}
	return out
}

// FirstSeen returns the earliest timestamp recorded for a visitor.
func (s *Snapshot) FirstSeen(visitorID string) (time.Time, bool) {
	positions := s.byVisitor[visitorID]
	if len(positions) == 0 {
		return time.Time{}, false
	}
	first := s.events[positions[0]].Timestamp
	for _, pos := range positions[1:] {
		if ts := s.events[pos].Timestamp; ts.Before(first) {
			first = ts
		}
	}
	return first, true
}
