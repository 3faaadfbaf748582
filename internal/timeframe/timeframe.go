package timeframe

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRange is returned for unknown range selectors and malformed or inverted bounds.
var ErrInvalidRange = errors.New("invalid time range")

// TimeFrameBucketSize is the granularity of the period trend.
type TimeFrameBucketSize string

const (
	TimeFrameBucketSizeDay  TimeFrameBucketSize = "day"
	TimeFrameBucketSizeHour TimeFrameBucketSize = "hour"
)

// TimeFrameRangeLabel represents the available time range options
type TimeFrameRangeLabel string

const (
	TimeFrameRangeLabelToday  TimeFrameRangeLabel = "today"
	TimeFrameRangeLabelWeek   TimeFrameRangeLabel = "week"
	TimeFrameRangeLabelMonth  TimeFrameRangeLabel = "month"
	TimeFrameRangeLabelAll    TimeFrameRangeLabel = "all"
	TimeFrameRangeLabelCustom TimeFrameRangeLabel = "custom"
)

// Bucket key layouts, always rendered in the frame's location.
const (
	MinuteKeyLayout = "2006-01-02 15:04"
	HourKeyLayout   = "15"
	DayKeyLayout    = "2006-01-02"
)

type TimeProvider interface {
	Now(loc *time.Location) time.Time
}

// DefaultTimeProvider is the default implementation that uses the system clock
type DefaultTimeProvider struct{}

// Now returns the current time in loc
func (p *DefaultTimeProvider) Now(loc *time.Location) time.Time {
	return time.Now().In(loc)
}

// FixedTimeProvider always returns the same instant. Used by tests and replays.
type FixedTimeProvider struct {
	CurrentTime time.Time
}

func (p *FixedTimeProvider) Now(loc *time.Location) time.Time {
	return p.CurrentTime.In(loc)
}

// TimeFrame represents an inclusive period between two points in time
type TimeFrame struct {
	From       time.Time
	To         time.Time
	Label      TimeFrameRangeLabel
	BucketSize TimeFrameBucketSize
	Tz         *time.Location
}

// NewTimeFrame builds a frame for [from, to]; today frames bucket by hour, everything else by day.
func NewTimeFrame(from, to time.Time, label TimeFrameRangeLabel, tz *time.Location) (*TimeFrame, error) {
	if tz == nil {
		tz = time.Local
	}
	if from.After(to) {
		return nil, fmt.Errorf("%w: start %s is after end %s", ErrInvalidRange,
			from.Format(time.RFC3339), to.Format(time.RFC3339))
	}

	bucket := TimeFrameBucketSizeDay
	if label == TimeFrameRangeLabelToday {
		bucket = TimeFrameBucketSizeHour
	}

	return &TimeFrame{
		From:       from,
		To:         to,
		Label:      label,
		BucketSize: bucket,
		Tz:         tz,
	}, nil
}

// Contains reports whether t lies within the frame, bounds included.
func (tf *TimeFrame) Contains(t time.Time) bool {
	return !t.Before(tf.From) && !t.After(tf.To)
}

// Duration returns the length of the frame.
func (tf *TimeFrame) Duration() time.Duration {
	return tf.To.Sub(tf.From)
}

// BucketKey returns the period-trend key for t.
func (tf *TimeFrame) BucketKey(t time.Time) string {
	if tf.BucketSize == TimeFrameBucketSizeHour {
		return t.In(tf.Tz).Format(HourKeyLayout)
	}
	return t.In(tf.Tz).Format(DayKeyLayout)
}

// MinuteKey truncates t to the minute in loc.
func MinuteKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(MinuteKeyLayout)
}

// StartOfDay returns local midnight of the day containing t.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// EndOfDay returns the last representable instant of the day containing t.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, loc)
}
