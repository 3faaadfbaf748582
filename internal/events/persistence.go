package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const persistBatchSize = 500

// PersistResult describes one persist run.
type PersistResult struct {
	Written int
	Reset   bool
}

// Persister copies the in-memory ledger into the durable visits table. Runs are serialized;
// each run writes only the events appended since the previous one, or rewrites the table
// when the store was purged in between.
type Persister struct {
	mu     sync.Mutex
	db     *gorm.DB
	store  *Store
	logger *slog.Logger

	lastID     uint64
	generation uint64
}

// NewPersister creates a persister for store backed by db.
func NewPersister(db *gorm.DB, store *Store, logger *slog.Logger) *Persister {
	return &Persister{
		db:         db,
		store:      store,
		logger:     logger,
		generation: store.Generation(),
	}
}

// Load replaces the store contents with the durable table and returns the number of rows read.
func (p *Persister) Load(ctx context.Context) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var rows []Event
	if err := p.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return 0, fmt.Errorf("load visits: %w", err)
	}

	p.store.Restore(rows)
	p.lastID = p.store.LastID()
	p.generation = p.store.Generation()

	p.logger.Info("Loaded visits from durable storage",
		slog.Int("count", len(rows)),
		slog.Uint64("last_id", p.lastID))
	return len(rows), nil
}

// Persist writes pending events to durable storage.
func (p *Persister) Persist(ctx context.Context) (PersistResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pending, generation, reset := p.store.Pending(p.lastID, p.generation)
	if !reset && len(pending) == 0 {
		return PersistResult{}, nil
	}

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if reset {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Event{}).Error; err != nil {
				return fmt.Errorf("clear visits: %w", err)
			}
		}
		if len(pending) == 0 {
			return nil
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			CreateInBatches(pending, persistBatchSize).Error; err != nil {
			return fmt.Errorf("insert visits: %w", err)
		}
		return nil
	})
	if err != nil {
		return PersistResult{}, err
	}

	if n := len(pending); n > 0 && pending[n-1].ID > p.lastID {
		p.lastID = pending[n-1].ID
	}
	p.generation = generation

	result := PersistResult{Written: len(pending), Reset: reset}
	p.logger.Debug("Persisted visits",
		slog.Int("written", result.Written),
		slog.Bool("reset", result.Reset),
		slog.Uint64("last_id", p.lastID))
	return result, nil
}
