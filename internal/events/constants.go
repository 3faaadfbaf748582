package events

// Event types and defaults
const (
	// EventTypePageView is recorded when the collector does not send a type.
	EventTypePageView = "pageview"

	// DefaultPurgeToken is the confirmation value a purge must carry unless configured otherwise.
	DefaultPurgeToken = "DELETE_ALL_DATA"
)
