package events

import "time"

// Event represents one recorded visit in the ledger. Events are write-once: the store
// assigns ID and Timestamp on append and nothing mutates them afterwards.
type Event struct {
	ID              uint64    `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Timestamp       time.Time `gorm:"index:idx_timestamp;not null" json:"timestamp"`
	ClientAddress   *string   `gorm:"column:ip" json:"clientAddress"`
	ClientSignature *string   `gorm:"column:user_agent" json:"clientSignature"`
	VisitorID       *string   `gorm:"column:uid;index:idx_uid" json:"visitorId"`
	URL             *string   `gorm:"column:url" json:"url"`
	Referrer        *string   `gorm:"column:referrer" json:"referrer"`
	EventType       string    `gorm:"column:event_type;not null;default:pageview" json:"eventType"`
	MetaData        *string   `gorm:"column:meta_data;type:text" json:"metaData"`
}

// TableName keeps the durable table name stable regardless of the struct name.
func (Event) TableName() string {
	return "visits"
}

// HasVisitor reports whether the event carries a visitor identifier.
func (e *Event) HasVisitor() bool {
	return e.VisitorID != nil && *e.VisitorID != ""
}

// HasURL reports whether the event carries a page URL.
func (e *Event) HasURL() bool {
	return e.URL != nil && *e.URL != ""
}

// Value dereferences an optional column, returning "" when absent.
func Value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Optional converts a raw value to an optional column; empty strings become absent.
func Optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
