package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/brushline/paintquote/internal/application/port"
	"go.uber.org/zap"
)

// archiveCheckpoint names the checkpoint row holding the last archived seq
const archiveCheckpoint = "audit_archive"

// ArchiveWorkerConfig holds configuration for the archive worker
type ArchiveWorkerConfig struct {
	PollInterval time.Duration
	BatchSize    int
	PutTimeout   time.Duration
}

// DefaultArchiveWorkerConfig returns default configuration
func DefaultArchiveWorkerConfig() ArchiveWorkerConfig {
	return ArchiveWorkerConfig{
		PollInterval: 10 * time.Second,
		BatchSize:    100,
		PutTimeout:   5 * time.Second,
	}
}

// ArchiveWorker copies committed audit entries to the off-site archive in seq
// order and advances a checkpoint after each one.
type ArchiveWorker struct {
	config ArchiveWorkerConfig

	auditRepo   port.AuditRepository
	checkpoints port.CheckpointRepository
	archive     port.AuditArchive
	logger      *zap.Logger

	mu            sync.RWMutex
	cancel        context.CancelFunc
	done          chan struct{}
	isRunning     bool
	archivedCount int
	lastError     error
}

// NewArchiveWorker creates a new archive worker
func NewArchiveWorker(
	config ArchiveWorkerConfig,
	auditRepo port.AuditRepository,
	checkpoints port.CheckpointRepository,
	archive port.AuditArchive,
	logger *zap.Logger,
) *ArchiveWorker {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultArchiveWorkerConfig().BatchSize
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultArchiveWorkerConfig().PollInterval
	}
	if config.PutTimeout <= 0 {
		config.PutTimeout = DefaultArchiveWorkerConfig().PutTimeout
	}
	return &ArchiveWorker{
		config:      config,
		auditRepo:   auditRepo,
		checkpoints: checkpoints,
		archive:     archive,
		logger:      logger,
	}
}

// Start begins the polling loop
func (w *ArchiveWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.isRunning {
		return fmt.Errorf("archive worker already running")
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	w.isRunning = true

	w.logger.Info("ArchiveWorker started",
		zap.Duration("poll_interval", w.config.PollInterval),
		zap.Int("batch_size", w.config.BatchSize))

	go w.pollLoop(ctx)
	return nil
}

// Stop cancels the loop and waits for the in-flight batch to finish
func (w *ArchiveWorker) Stop() error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}
	w.isRunning = false
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	cancel()
	<-done

	w.mu.RLock()
	defer w.mu.RUnlock()
	w.logger.Info("ArchiveWorker stopped", zap.Int("archived_count", w.archivedCount))
	return nil
}

// Name returns the worker name for identification
func (w *ArchiveWorker) Name() string {
	return "ArchiveWorker"
}

// ArchivedCount returns how many entries this worker has archived
func (w *ArchiveWorker) ArchivedCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.archivedCount
}

// LastError returns the error from the most recent failed batch
func (w *ArchiveWorker) LastError() error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastError
}

func (w *ArchiveWorker) pollLoop(ctx context.Context) {
	defer close(w.done)
	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil {
				w.mu.Lock()
				w.lastError = err
				w.mu.Unlock()
				w.logger.Error("Failed to archive audit entries", zap.Error(err))
			}
		}
	}
}

// RunOnce archives one batch after the checkpoint and returns how many entries
// were archived. A failed put stops the batch so the checkpoint never skips an entry.
func (w *ArchiveWorker) RunOnce(ctx context.Context) (int, error) {
	after, err := w.checkpoints.Get(ctx, archiveCheckpoint)
	if err != nil {
		return 0, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	entries, err := w.auditRepo.ListAfter(ctx, after, w.config.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list audit entries: %w", err)
	}

	archived := 0
	for _, entry := range entries {
		putCtx, cancel := context.WithTimeout(ctx, w.config.PutTimeout)
		err := w.archive.Put(putCtx, entry)
		cancel()
		if err != nil {
			return archived, fmt.Errorf("failed to archive entry %d: %w", entry.Seq, err)
		}
		if err := w.checkpoints.Set(ctx, archiveCheckpoint, entry.Seq); err != nil {
			return archived, fmt.Errorf("failed to advance checkpoint to %d: %w", entry.Seq, err)
		}
		archived++

		w.mu.Lock()
		w.archivedCount++
		w.mu.Unlock()
	}

	if archived > 0 {
		w.logger.Debug("Archived audit entries",
			zap.Int("count", archived),
			zap.Int64("checkpoint", entries[archived-1].Seq))
	}
	return archived, nil
}
