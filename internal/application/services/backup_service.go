package services

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/agendadrte/core/internal/infrastructure/config"
	"github.com/agendadrte/core/internal/infrastructure/logger"
)

// BackupService schedules periodic snapshots and fields write-triggered
// backup requests. Write-triggered requests are rate limited so a burst
// of saves produces one snapshot, not one per save.
type BackupService struct {
	agenda  *AgendaService
	cfg     config.BackupConfig
	logger  *logger.Logger
	limiter *rate.Limiter

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewBackupService creates a backup scheduler over the agenda service.
func NewBackupService(agenda *AgendaService, cfg config.BackupConfig, logger *logger.Logger) *BackupService {
	// At most one write-triggered snapshot per interval, with a burst of
	// one so the first save after a quiet period backs up immediately.
	return &BackupService{
		agenda:  agenda,
		cfg:     cfg,
		logger:  logger.WithComponent("backup"),
		limiter: rate.NewLimiter(rate.Every(cfg.Interval), 1),
	}
}

// Start launches the periodic snapshot loop. Calling Start on a running
// service is a no-op.
func (b *BackupService) Start(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.cfg.Enabled || b.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.done = make(chan struct{})

	go b.run(ctx)
	b.logger.Infow("Backup scheduler started", "interval", b.cfg.Interval, "retention", b.cfg.Retention)
}

func (b *BackupService) run(ctx context.Context) {
	defer close(b.done)

	ticker := time.NewTicker(b.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := b.agenda.CreateBackupSnapshot(ctx, "scheduled"); err != nil {
				b.logger.Errorw("Scheduled backup failed", "error", err)
			}
		}
	}
}

// Stop halts the snapshot loop and waits for it to exit.
func (b *BackupService) Stop() {
	b.mu.Lock()
	cancel, done := b.cancel, b.done
	b.cancel, b.done = nil, nil
	b.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	b.logger.Infow("Backup scheduler stopped")
}

// TriggerAfterSave requests a snapshot following a write. The request is
// dropped when one was taken recently; durability of the write itself
// never depends on it.
func (b *BackupService) TriggerAfterSave(ctx context.Context) {
	if !b.cfg.Enabled || !b.agenda.Settings().AutoBackup {
		return
	}
	if !b.limiter.Allow() {
		return
	}
	if _, err := b.agenda.CreateBackupSnapshot(ctx, "after-save"); err != nil {
		b.logger.Errorw("Write-triggered backup failed", "error", err)
	}
}

// RunNow takes a snapshot immediately, bypassing the rate limit.
func (b *BackupService) RunNow(ctx context.Context, reason string) error {
	_, err := b.agenda.CreateBackupSnapshot(ctx, reason)
	return err
}
