package testsupport

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pageflow/internal/analytics"
	"pageflow/internal/config"
	"pageflow/internal/database"
	"pageflow/internal/events"
	"pageflow/internal/logging"
	"pageflow/internal/metrics"
	"pageflow/internal/server"
	"pageflow/internal/timeframe"
)

// testDBCache caches test databases by root test name so subtests share one database.
var (
	testDBCache   = make(map[string]*gorm.DB)
	testDBCacheMu sync.Mutex
)

// SetupTestDB creates a named in-memory database with the visits table migrated.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	rootName := t.Name()
	if idx := strings.Index(rootName, "/"); idx > 0 {
		rootName = rootName[:idx]
	}

	testDBCacheMu.Lock()
	if db, exists := testDBCache[rootName]; exists {
		testDBCacheMu.Unlock()
		return db
	}
	testDBCacheMu.Unlock()

	dsn := fmt.Sprintf("file:test_%s_%d?mode=memory&cache=shared", rootName, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("testsupport: failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(&events.Event{}); err != nil {
		t.Fatalf("testsupport: failed to migrate models: %v", err)
	}

	testDBCacheMu.Lock()
	testDBCache[rootName] = db
	testDBCacheMu.Unlock()

	t.Cleanup(func() {
		testDBCacheMu.Lock()
		delete(testDBCache, rootName)
		testDBCacheMu.Unlock()
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// GetLogger returns a logger that discards everything.
func GetLogger() *slog.Logger {
	return logging.Discard()
}

// FixedClock returns a time provider frozen at now.
func FixedClock(now time.Time) *timeframe.FixedTimeProvider {
	return &timeframe.FixedTimeProvider{CurrentTime: now}
}

// Ptr returns a pointer to s, for optional event columns.
func Ptr(s string) *string {
	return &s
}

// Visit describes one event to seed, relative to a reference instant.
type Visit struct {
	Ago       time.Duration
	Visitor   string
	URL       string
	Referrer  *string
	UserAgent string
	Address   string
}

// Event builds an event for v relative to now.
func (v Visit) Event(now time.Time) events.Event {
	return events.Event{
		Timestamp:       now.Add(-v.Ago).UTC(),
		VisitorID:       events.Optional(v.Visitor),
		URL:             events.Optional(v.URL),
		Referrer:        v.Referrer,
		ClientSignature: events.Optional(v.UserAgent),
		ClientAddress:   events.Optional(v.Address),
		EventType:       events.EventTypePageView,
	}
}

// SeedStore creates a store whose clock is frozen at now and appends visits in order.
func SeedStore(now time.Time, visits ...Visit) *events.Store {
	store := events.NewStore(events.WithClock(func() time.Time { return now }))
	for _, v := range visits {
		store.Append(v.Event(now))
	}
	return store
}

// TestConfig returns a test configuration storing its database under a temporary directory.
func TestConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		AppName:                "pageflow",
		AppPort:                "0",
		Environment:            config.Test,
		LogLevel:               config.LogLevelError,
		Timezone:               "UTC",
		StoragePath:            t.TempDir(),
		PersistIntervalSeconds: 10,
		PurgeToken:             events.DefaultPurgeToken,
		FlowMaxLinks:           config.MinFlowLinks,
		FlowDefaultDepth:       analytics.DefaultFlowLayer,
		VisitorsDefaultLimit:   analytics.DefaultVisitorsLimit,
	}
}

// NewTestDeps wires handler dependencies around store with a clock frozen at now and a
// file-backed database in a temporary directory.
func NewTestDeps(t *testing.T, store *events.Store, now time.Time) *server.Deps {
	t.Helper()

	cfg := TestConfig(t)
	log := GetLogger()

	dbManager := database.NewDBManager(cfg, log)
	if err := dbManager.Init(); err != nil {
		t.Fatalf("testsupport: failed to init database: %v", err)
	}
	t.Cleanup(func() {
		dbManager.Close()
	})

	clock := FixedClock(now)
	return &server.Deps{
		Config:    cfg,
		Logger:    log,
		DBManager: dbManager,
		Store:     store,
		Persister: events.NewPersister(dbManager.GetConnection(), store, log),
		Engine:    analytics.NewEngine(store, clock, time.UTC, log),
		Flows:     analytics.NewFlowBuilder(store, cfg.GetFlowMaxLinks(), log),
		Metrics:   metrics.New(),
		Clock:     clock,
	}
}
