package events

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrPurgeNotConfirmed is returned when a purge is requested without the exact confirmation token.
var ErrPurgeNotConfirmed = errors.New("purge not confirmed")

// CollectInput defines the raw values received by the collection endpoint.
// Referrer keeps the distinction between an absent parameter (nil) and an empty one.
type CollectInput struct {
	VisitorID       string
	URL             string
	Referrer        *string
	EventType       string
	MetaData        string
	ClientAddress   string
	ClientSignature string
}

// Event converts the input into an event ready to append. Empty optional values become
// absent columns and a blank event type becomes a page view. Every string is copied so
// the event never shares memory with request buffers.
func (in *CollectInput) Event() Event {
	eventType := strings.TrimSpace(in.EventType)
	if eventType == "" {
		eventType = EventTypePageView
	}

	var referrer *string
	if in.Referrer != nil {
		r := strings.Clone(*in.Referrer)
		referrer = &r
	}

	return Event{
		VisitorID:       Optional(strings.Clone(strings.TrimSpace(in.VisitorID))),
		URL:             Optional(strings.Clone(in.URL)),
		Referrer:        referrer,
		EventType:       strings.Clone(eventType),
		MetaData:        Optional(strings.Clone(in.MetaData)),
		ClientAddress:   Optional(strings.Clone(in.ClientAddress)),
		ClientSignature: Optional(strings.Clone(in.ClientSignature)),
	}
}

// Collect appends one event to the store. It never fails; missing fields are tolerated.
func Collect(store *Store, logger *slog.Logger, input *CollectInput) uint64 {
	id := store.Append(input.Event())
	logger.Debug("Collected event",
		slog.Uint64("id", id),
		slog.String("event_type", input.EventType),
		slog.String("url", input.URL))
	return id
}

// PurgeAll erases the whole ledger when confirm matches token exactly and immediately
// persists the empty state. A mismatched token leaves the store untouched.
func PurgeAll(ctx context.Context, store *Store, persister *Persister, logger *slog.Logger, confirm, token string) (int, error) {
	if token == "" || subtle.ConstantTimeCompare([]byte(confirm), []byte(token)) != 1 {
		return 0, ErrPurgeNotConfirmed
	}

	deleted := store.PurgeAll()
	logger.Warn("Purged all visits", slog.Int("deleted", deleted))

	if persister == nil {
		return deleted, nil
	}
	if _, err := persister.Persist(ctx); err != nil {
		return deleted, fmt.Errorf("persist after purge: %w", err)
	}
	return deleted, nil
}
