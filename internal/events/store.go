package events

import (
	"sort"
	"sync"
	"time"
)

// Store is the in-memory, append-only visit ledger. It is the single source of truth for
// analytics; durability is handled separately by a Persister.
//
// Appends are serialized by the store mutex. Readers capture a Snapshot under a short read
// lock and compute without holding it, so ingestion never waits on aggregation.
type Store struct {
	mu sync.RWMutex

	events []Event // ordered by ID; existing elements are never modified

	// byTime holds positions into events ordered by (Timestamp, ID). In-order appends
	// extend it; an out-of-order timestamp replaces it with a fresh copy so captured
	// snapshots keep a stable view.
	byTime []int

	byVisitor map[string][]int
	visitors  []string // first-appearance order

	nextID     uint64
	generation uint64
	now        func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock overrides the clock used to stamp events appended without a timestamp.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates an empty store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		byVisitor: make(map[string][]int),
		nextID:    1,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append inserts one event, assigning its ID and, when unset, its timestamp.
func (s *Store) Append(ev Event) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev.ID = s.nextID
	s.nextID++
	if ev.Timestamp.IsZero() {
		ev.Timestamp = s.now().UTC()
	}
	if ev.EventType == "" {
		ev.EventType = EventTypePageView
	}

	s.insertLocked(ev)
	return ev.ID
}

func (s *Store) insertLocked(ev Event) {
	pos := len(s.events)
	s.events = append(s.events, ev)

	n := len(s.byTime)
	if n == 0 || !ev.Timestamp.Before(s.events[s.byTime[n-1]].Timestamp) {
		s.byTime = append(s.byTime, pos)
	} else {
		// ev carries the largest ID, so it sorts after every equal timestamp.
		at := sort.Search(n, func(i int) bool {
			return s.events[s.byTime[i]].Timestamp.After(ev.Timestamp)
		})
		next := make([]int, 0, n+1)
		next = append(next, s.byTime[:at]...)
		next = append(next, pos)
		next = append(next, s.byTime[at:]...)
		s.byTime = next
	}

	if ev.HasVisitor() {
		id := *ev.VisitorID
		if _, seen := s.byVisitor[id]; !seen {
			s.visitors = append(s.visitors, id)
		}
		s.byVisitor[id] = append(s.byVisitor[id], pos)
	}
}

// Restore replaces the store contents with previously persisted events, keeping their IDs.
func (s *Store) Restore(events []Event) {
	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetLocked()
	for _, ev := range sorted {
		if ev.EventType == "" {
			ev.EventType = EventTypePageView
		}
		s.insertLocked(ev)
		if ev.ID >= s.nextID {
			s.nextID = ev.ID + 1
		}
	}
}

// PurgeAll removes every event atomically and returns how many were removed. IDs keep
// increasing after a purge.
func (s *Store) PurgeAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.events)
	s.resetLocked()
	s.generation++
	return n
}

func (s *Store) resetLocked() {
	s.events = nil
	s.byTime = nil
	s.byVisitor = make(map[string][]int)
	s.visitors = nil
}

// Len returns the number of stored events.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// LastID returns the highest ID handed out so far, or 0.
func (s *Store) LastID() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextID - 1
}

// Generation changes every time the store is purged.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Query returns the events matching f in ID order.
func (s *Store) Query(f Filter) []Event {
	return s.capture(false).Query(f)
}

// Recent returns up to limit events, newest first by (timestamp, id).
func (s *Store) Recent(limit int) []Event {
	return s.capture(false).Recent(limit)
}

// Snapshot captures a point-in-time view of the store, including the visitor index.
func (s *Store) Snapshot() *Snapshot {
	return s.capture(true)
}

func (s *Store) capture(withVisitors bool) *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &Snapshot{
		events: s.events[:len(s.events):len(s.events)],
		byTime: s.byTime[:len(s.byTime):len(s.byTime)],
	}
	if withVisitors {
		snap.visitors = s.visitors[:len(s.visitors):len(s.visitors)]
		snap.byVisitor = make(map[string][]int, len(s.byVisitor))
		for id, positions := range s.byVisitor {
			snap.byVisitor[id] = positions[:len(positions):len(positions)]
		}
	}
	return snap
}

// Pending returns the events a persister that last wrote up to afterID in the given
// generation still has to write. When the store was purged since, reset is true and the
// full contents are returned.
func (s *Store) Pending(afterID, generation uint64) (pending []Event, current uint64, reset bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if generation != s.generation {
		pending = make([]Event, len(s.events))
		copy(pending, s.events)
		return pending, s.generation, true
	}

	at := sort.Search(len(s.events), func(i int) bool {
		return s.events[i].ID > afterID
	})
	pending = make([]Event, len(s.events)-at)
	copy(pending, s.events[at:])
	return pending, s.generation, false
}
