package events

import "time"

// Column names an optional event column a Filter can require to be present.
type Column string

const (
	ColumnVisitorID       Column = "uid"
	ColumnClientAddress   Column = "ip"
	ColumnClientSignature Column = "user_agent"
	ColumnURL             Column = "url"
	ColumnReferrer        Column = "referrer"
	ColumnMetaData        Column = "meta_data"
)

// Filter selects events by inclusive timestamp range and non-null columns.
// Zero From or To leaves that side of the range open.
type Filter struct {
	From    time.Time
	To      time.Time
	NotNull []Column
}

// Between returns a filter for the inclusive range [from, to].
func Between(from, to time.Time) Filter {
	return Filter{From: from, To: to}
}

// Require returns a copy of the filter that also requires the given columns.
func (f Filter) Require(cols ...Column) Filter {
	notNull := make([]Column, 0, len(f.NotNull)+len(cols))
	notNull = append(notNull, f.NotNull...)
	notNull = append(notNull, cols...)
	f.NotNull = notNull
	return f
}

// inRange reports whether t falls within the filter's time bounds.
func (f Filter) inRange(t time.Time) bool {
	if !f.From.IsZero() && t.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && t.After(f.To) {
		return false
	}
	return true
}

// Match reports whether ev satisfies the filter.
func (f Filter) Match(ev *Event) bool {
	if !f.inRange(ev.Timestamp) {
		return false
	}
	for _, col := range f.NotNull {
		if !hasColumn(ev, col) {
			return false
		}
	}
	return true
}

func hasColumn(ev *Event, col Column) bool {
	switch col {
	case ColumnVisitorID:
		return ev.HasVisitor()
	case ColumnURL:
		return ev.HasURL()
	case ColumnClientAddress:
		return ev.ClientAddress != nil
	case ColumnClientSignature:
		return ev.ClientSignature != nil
	case ColumnReferrer:
		return ev.Referrer != nil
	case ColumnMetaData:
		return ev.MetaData != nil
	default:
		return false
	}
}
