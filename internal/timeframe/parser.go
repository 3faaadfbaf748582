package timeframe

import (
	"fmt"
	"strings"
	"time"
)

const dateOnlyLayout = "2006-01-02"

type TimeFrameParserParams struct {
	Range string
	Start string
	End   string
	Tz    *time.Location
}

type TimeFrameParser struct {
	timeProvider TimeProvider
}

func NewTimeFrameParser(timeProvider ...TimeProvider) *TimeFrameParser {
	var provider TimeProvider = &DefaultTimeProvider{}
	if len(timeProvider) > 0 && timeProvider[0] != nil {
		provider = timeProvider[0]
	}

	return &TimeFrameParser{
		timeProvider: provider,
	}
}

// ParseTimeFrame resolves a range selector into an inclusive frame ending now. An empty
// selector means today.
func (p *TimeFrameParser) ParseTimeFrame(params TimeFrameParserParams) (*TimeFrame, error) {
	loc := params.Tz
	if loc == nil {
		loc = time.Local
	}
	now := p.timeProvider.Now(loc)

	label := TimeFrameRangeLabel(strings.ToLower(strings.TrimSpace(params.Range)))
	switch label {
	case "", TimeFrameRangeLabelToday:
		return NewTimeFrame(StartOfDay(now, loc), now, TimeFrameRangeLabelToday, loc)
	case TimeFrameRangeLabelWeek:
		return NewTimeFrame(now.AddDate(0, 0, -7), now, label, loc)
	case TimeFrameRangeLabelMonth:
		return NewTimeFrame(now.AddDate(0, -1, 0), now, label, loc)
	case TimeFrameRangeLabelAll:
		return NewTimeFrame(time.Unix(0, 0).In(loc), now, label, loc)
	case TimeFrameRangeLabelCustom:
		return p.parseCustomRange(params.Start, params.End, now, loc)
	default:
		return nil, fmt.Errorf("%w: unknown range %q", ErrInvalidRange, params.Range)
	}
}

func (p *TimeFrameParser) parseCustomRange(start, end string, now time.Time, loc *time.Location) (*TimeFrame, error) {
	if strings.TrimSpace(start) == "" {
		return nil, fmt.Errorf("%w: custom range requires a start", ErrInvalidRange)
	}

	from, err := parseBound(start, loc, false)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid start: %v", ErrInvalidRange, err)
	}

	to := now
	if strings.TrimSpace(end) != "" {
		to, err = parseBound(end, loc, true)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid end: %v", ErrInvalidRange, err)
		}
	}

	return NewTimeFrame(from, to, TimeFrameRangeLabelCustom, loc)
}

// parseBound accepts RFC 3339 timestamps or bare dates; a bare end date covers the whole day.
func parseBound(value string, loc *time.Location, isEnd bool) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.In(loc), nil
	}

	date, err := time.ParseInLocation(dateOnlyLayout, value, loc)
	if err != nil {
		return time.Time{}, err
	}
	if isEnd {
		return EndOfDay(date, loc), nil
	}
	return date, nil
}
