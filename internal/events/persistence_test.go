package events_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pageflow/internal/events"
	"pageflow/internal/testsupport"
)

func TestPersistAndLoad(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()
	ctx := context.Background()

	store := testsupport.SeedStore(refTime,
		testsupport.Visit{Ago: time.Hour, Visitor: "v1", URL: "/a", Referrer: testsupport.Ptr("")},
		testsupport.Visit{Ago: time.Minute, Visitor: "v1", URL: "/b", Referrer: testsupport.Ptr("https://google.com/")},
		testsupport.Visit{Address: "10.0.0.1", UserAgent: "Mozilla/5.0"},
	)
	persister := events.NewPersister(db, store, logger)

	result, err := persister.Persist(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Written)
	assert.False(t, result.Reset)

	var count int64
	require.NoError(t, db.Model(&events.Event{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)

	t.Run("nothing pending writes nothing", func(t *testing.T) {
		result, err := persister.Persist(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, result.Written)
	})

	t.Run("incremental persist writes only new events", func(t *testing.T) {
		store.Append(events.Event{URL: testsupport.Ptr("/c")})
		result, err := persister.Persist(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Written)

		require.NoError(t, db.Model(&events.Event{}).Count(&count).Error)
		assert.Equal(t, int64(4), count)
	})

	t.Run("load restores ids and optional columns", func(t *testing.T) {
		restored := events.NewStore()
		loader := events.NewPersister(db, restored, logger)

		n, err := loader.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, 4, n)
		assert.Equal(t, uint64(4), restored.LastID())

		got := restored.Query(events.Filter{})
		require.Len(t, got, 4)
		assert.Equal(t, "v1", events.Value(got[0].VisitorID))
		require.NotNil(t, got[0].Referrer)
		assert.Equal(t, "", *got[0].Referrer)
		assert.True(t, refTime.Add(-time.Hour).Equal(got[0].Timestamp))
		assert.Nil(t, got[2].VisitorID)
		assert.Nil(t, got[2].Referrer)
		assert.Equal(t, "10.0.0.1", events.Value(got[2].ClientAddress))

		assert.Equal(t, uint64(5), restored.Append(events.Event{}))
	})
}

func TestPersistAfterPurgeRewritesTable(t *testing.T) {
	db := testsupport.SetupTestDB(t)
	ctx := context.Background()

	store := testsupport.SeedStore(refTime,
		testsupport.Visit{Visitor: "v1", URL: "/a"},
		testsupport.Visit{Visitor: "v2", URL: "/b"},
	)
	persister := events.NewPersister(db, store, testsupport.GetLogger())
	_, err := persister.Persist(ctx)
	require.NoError(t, err)

	store.PurgeAll()
	result, err := persister.Persist(ctx)
	require.NoError(t, err)
	assert.True(t, result.Reset)
	assert.Equal(t, 0, result.Written)

	var count int64
	require.NoError(t, db.Model(&events.Event{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	store.Append(events.Event{URL: testsupport.Ptr("/after")})
	result, err = persister.Persist(ctx)
	require.NoError(t, err)
	assert.False(t, result.Reset)
	assert.Equal(t, 1, result.Written)

	var rows []events.Event
	require.NoError(t, db.Order("id").Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, uint64(3), rows[0].ID)
}
