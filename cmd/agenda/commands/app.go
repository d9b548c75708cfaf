package commands

import (
	"context"
	"fmt"

	"github.com/agendadrte/core/internal/adapters/blobstore"
	"github.com/agendadrte/core/internal/adapters/kvstore"
	"github.com/agendadrte/core/internal/application/services"
	"github.com/agendadrte/core/internal/infrastructure/config"
	"github.com/agendadrte/core/internal/infrastructure/logger"
)

// app bundles the wired services a command needs, plus their teardown.
type app struct {
	cfg      *config.Config
	logger   *logger.Logger
	agenda   *services.AgendaService
	backup   *services.BackupService
	calendar *services.CalendarService
	export   *services.ExportService

	kv    *kvstore.Store
	blobs *blobstore.Store
}

// bootstrap loads configuration, opens both stores, and rebuilds the
// in-memory state. Failure to open either store is fatal: the agenda
// never runs against partial storage.
func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	kv, err := kvstore.New(cfg.Storage.KVPath(), cfg.Storage.MaxRecordBytes)
	if err != nil {
		appLogger.Close()
		return nil, fmt.Errorf("failed to open key-value store: %w", err)
	}

	blobs := blobstore.New(cfg.Storage.ObjectsPath(), cfg.Storage.MaxAttachmentBytes)
	if err := blobs.Open(ctx); err != nil {
		kv.Close()
		appLogger.Close()
		return nil, fmt.Errorf("failed to open object store: %w", err)
	}

	agenda := services.NewAgendaService(kv, blobs, cfg, appLogger)
	if err := agenda.Rebuild(ctx); err != nil {
		blobs.Close()
		kv.Close()
		appLogger.Close()
		return nil, fmt.Errorf("failed to rebuild state: %w", err)
	}

	return &app{
		cfg:      cfg,
		logger:   appLogger,
		agenda:   agenda,
		backup:   services.NewBackupService(agenda, cfg.Backup, appLogger),
		calendar: services.NewCalendarService(agenda),
		export:   services.NewExportService(agenda, cfg.Export, appLogger),
		kv:       kv,
		blobs:    blobs,
	}, nil
}

func (a *app) close() {
	a.blobs.Close()
	a.kv.Close()
	a.logger.Close()
}
