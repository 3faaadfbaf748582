package timeframe_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pageflow/internal/timeframe"
)

func TestRangeMembership(t *testing.T) {
	now := time.Date(2024, 7, 15, 14, 30, 0, 0, time.UTC)
	parser := timeframe.NewTimeFrameParser(&timeframe.FixedTimeProvider{CurrentTime: now})

	points := map[string]time.Time{
		"T-10d": now.Add(-10 * 24 * time.Hour),
		"T-3d":  now.Add(-3 * 24 * time.Hour),
		"T-1h":  now.Add(-time.Hour),
		"T-1m":  now.Add(-time.Minute),
	}

	week, err := parser.ParseTimeFrame(timeframe.TimeFrameParserParams{Range: "week", Tz: time.UTC})
	require.NoError(t, err)
	assert.False(t, week.Contains(points["T-10d"]))
	assert.True(t, week.Contains(points["T-3d"]))
	assert.True(t, week.Contains(points["T-1h"]))
	assert.True(t, week.Contains(points["T-1m"]))

	today, err := parser.ParseTimeFrame(timeframe.TimeFrameParserParams{Range: "today", Tz: time.UTC})
	require.NoError(t, err)
	assert.False(t, today.Contains(points["T-10d"]))
	assert.False(t, today.Contains(points["T-3d"]))
	assert.True(t, today.Contains(points["T-1h"]))
	assert.True(t, today.Contains(points["T-1m"]))
	assert.False(t, today.Contains(time.Date(2024, 7, 14, 23, 59, 59, 0, time.UTC)))
}

func TestContainsIsInclusive(t *testing.T) {
	from := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC)
	tf, err := timeframe.NewTimeFrame(from, to, timeframe.TimeFrameRangeLabelCustom, time.UTC)
	require.NoError(t, err)

	assert.True(t, tf.Contains(from))
	assert.True(t, tf.Contains(to))
	assert.False(t, tf.Contains(to.Add(time.Nanosecond)))
	assert.False(t, tf.Contains(from.Add(-time.Nanosecond)))
	assert.Equal(t, 24*time.Hour, tf.Duration())
}

func TestBucketKeysUseFrameLocation(t *testing.T) {
	berlin := mustLoadLocation("Europe/Berlin")
	instant := time.Date(2024, 7, 15, 22, 30, 0, 0, time.UTC) // 00:30 next day in Berlin

	today, err := timeframe.NewTimeFrame(instant.Add(-time.Hour), instant, timeframe.TimeFrameRangeLabelToday, berlin)
	require.NoError(t, err)
	assert.Equal(t, timeframe.TimeFrameBucketSizeHour, today.BucketSize)
	assert.Equal(t, "00", today.BucketKey(instant))

	week, err := timeframe.NewTimeFrame(instant.Add(-time.Hour), instant, timeframe.TimeFrameRangeLabelWeek, berlin)
	require.NoError(t, err)
	assert.Equal(t, "2024-07-16", week.BucketKey(instant))

	assert.Equal(t, "2024-07-16 00:30", timeframe.MinuteKey(instant, berlin))
	assert.Equal(t, "2024-07-15 22:30", timeframe.MinuteKey(instant.Add(15*time.Second), time.UTC))
}

func TestNewTimeFrameRejectsInvertedBounds(t *testing.T) {
	from := time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC)
	_, err := timeframe.NewTimeFrame(from, from.Add(-time.Second), timeframe.TimeFrameRangeLabelCustom, time.UTC)
	assert.ErrorIs(t, err, timeframe.ErrInvalidRange)
}
