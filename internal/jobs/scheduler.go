package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// CheckpointInterval is how often the WAL is folded back into the database file.
const CheckpointInterval = time.Hour

// Scheduler is responsible for running background jobs
type Scheduler struct {
	logger    *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	interval  time.Duration
	stateMu   sync.Mutex
	isRunning bool
	wg        sync.WaitGroup

	// Mutex to prevent concurrent job executions
	processingMutex sync.Mutex
	isProcessing    bool

	// Job instances
	persistJob    *PersistJob
	checkpointJob *CheckpointJob

	// Tickers for each job type
	persistTicker    *time.Ticker
	checkpointTicker *time.Ticker
}

// NewScheduler creates a scheduler running persistJob every interval. checkpointJob may be nil.
func NewScheduler(persistJob *PersistJob, checkpointJob *CheckpointJob, interval time.Duration, logger *slog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		logger:        logger,
		ctx:           ctx,
		cancel:        cancel,
		interval:      interval,
		persistJob:    persistJob,
		checkpointJob: checkpointJob,
	}
}

// executeJobSafely runs a job only if no other job is currently executing
func (s *Scheduler) executeJobSafely(jobName string, jobFunc func(context.Context) error) {
	s.processingMutex.Lock()
	if s.isProcessing {
		s.logger.Debug("Skipping job execution - previous job still running", slog.String("job", jobName))
		s.processingMutex.Unlock()
		return
	}
	s.isProcessing = true
	s.processingMutex.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic recovered in background job",
				slog.String("job", jobName),
				slog.Any("panic", r))
		}

		s.processingMutex.Lock()
		s.isProcessing = false
		s.processingMutex.Unlock()
	}()

	if err := jobFunc(s.ctx); err != nil {
		s.logger.Error("Error executing job", slog.String("job", jobName), slog.Any("error", err))
	}
}

// Start begins all background jobs
func (s *Scheduler) Start() error {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	if s.isRunning {
		s.logger.Info("Background jobs already running.")
		return nil
	}
	if s.ctx.Err() != nil {
		s.logger.Info("Background jobs were stopped and cannot be restarted.")
		return nil
	}

	s.logger.Info("Starting background jobs...")
	s.isRunning = true

	s.startPersistJob()
	if s.checkpointJob != nil {
		s.startCheckpointJob()
	}

	s.logger.Info("Background jobs started", slog.Duration("persist_interval", s.interval))
	return nil
}

func (s *Scheduler) startPersistJob() {
	s.persistTicker = time.NewTicker(s.interval)
	s.runEvery("persist", s.persistTicker, s.persistJob.Run)
}

func (s *Scheduler) startCheckpointJob() {
	s.checkpointTicker = time.NewTicker(CheckpointInterval)
	s.runEvery("checkpoint", s.checkpointTicker, s.checkpointJob.Run)
}

func (s *Scheduler) runEvery(jobName string, ticker *time.Ticker, jobFunc func(context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-ticker.C:
				s.executeJobSafely(jobName, jobFunc)
			case <-s.ctx.Done():
				s.logger.Debug("Background job stopped", slog.String("job", jobName))
				return
			}
		}
	}()
}

// Stop halts all background jobs and runs one last persist so nothing appended before
// shutdown is lost. The final persist honors ctx for its deadline.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	s.logger.Info("Stopping background jobs...")
	if s.persistTicker != nil {
		s.persistTicker.Stop()
	}
	if s.checkpointTicker != nil {
		s.checkpointTicker.Stop()
	}
	s.cancel()
	s.wg.Wait()
	s.isRunning = false

	if err := s.persistJob.Run(ctx); err != nil {
		s.logger.Error("Final persist failed", slog.Any("error", err))
		return err
	}
	s.logger.Info("Background jobs stopped")
	return nil
}

// IsRunning returns whether jobs are currently running
func (s *Scheduler) IsRunning() bool {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.isRunning
}
