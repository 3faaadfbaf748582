package jobs

import (
	"context"
	"log/slog"

	"pageflow/internal/events"
	"pageflow/internal/metrics"
)

// PersistJob writes the events appended since the last run to the durable snapshot.
type PersistJob struct {
	persister *events.Persister
	store     *events.Store
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewPersistJob(persister *events.Persister, store *events.Store, m *metrics.Metrics, logger *slog.Logger) *PersistJob {
	return &PersistJob{
		persister: persister,
		store:     store,
		metrics:   m,
		logger:    logger,
	}
}

// Run performs one incremental persist. A failure leaves the in-memory store untouched
// and the next run retries the same events.
func (j *PersistJob) Run(ctx context.Context) error {
	result, err := j.persister.Persist(ctx)
	j.metrics.ObservePersist(result.Written, err)
	j.metrics.SetStoreEvents(j.store.Len())
	if err != nil {
		return err
	}

	if result.Written > 0 || result.Reset {
		j.logger.Debug("Persisted events",
			slog.Int("written", result.Written),
			slog.Bool("reset", result.Reset),
			slog.Int("in_memory", j.store.Len()))
	}
	return nil
}
