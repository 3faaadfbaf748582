package jobs

import (
	"context"
	"log/slog"

	"gorm.io/gorm"
)

// CheckpointJob folds the SQLite write-ahead log back into the main database file so
// the WAL does not grow without bound between restarts.
type CheckpointJob struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewCheckpointJob(db *gorm.DB, logger *slog.Logger) *CheckpointJob {
	return &CheckpointJob{
		db:     db,
		logger: logger,
	}
}

type checkpointResult struct {
	Busy         int
	Log          int
	Checkpointed int
}

// Run truncates the WAL after checkpointing every frame.
func (j *CheckpointJob) Run(ctx context.Context) error {
	var result checkpointResult
	if err := j.db.WithContext(ctx).Raw("PRAGMA wal_checkpoint(TRUNCATE)").Scan(&result).Error; err != nil {
		j.logger.Error("Failed to checkpoint WAL", slog.Any("error", err))
		return err
	}

	j.logger.Debug("Checkpointed WAL",
		slog.Int("busy", result.Busy),
		slog.Int("log_frames", result.Log),
		slog.Int("checkpointed_frames", result.Checkpointed))
	return nil
}
