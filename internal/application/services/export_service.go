package services

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/agendadrte/core/internal/adapters/export"
	"github.com/agendadrte/core/internal/domain/entities"
	"github.com/agendadrte/core/internal/infrastructure/config"
	"github.com/agendadrte/core/internal/infrastructure/logger"
	"github.com/agendadrte/core/internal/ports"
)

// ExportFormat names a supported report format.
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatXLSX ExportFormat = "xlsx"
	FormatPDF  ExportFormat = "pdf"
	FormatDOCX ExportFormat = "docx"
)

// ExportService renders agenda reports to files in the configured output
// directory, using the department's fixed naming convention.
type ExportService struct {
	agenda *AgendaService
	cfg    config.ExportConfig
	logger *logger.Logger
}

// NewExportService creates an export service.
func NewExportService(agenda *AgendaService, cfg config.ExportConfig, logger *logger.Logger) *ExportService {
	return &ExportService{
		agenda: agenda,
		cfg:    cfg,
		logger: logger.WithComponent("export"),
	}
}

// FileName returns the conventional report file name for a format on a
// given day: Agenda_DRTE_<YYYYMMDD>.xlsx, Tareas_DRTE_<YYYYMMDD>.csv,
// and Reporte_DRTE_<YYYYMMDD>.pdf or .docx.
func FileName(format ExportFormat, at time.Time) string {
	stamp := at.Format("20060102")
	switch format {
	case FormatXLSX:
		return fmt.Sprintf("Agenda_DRTE_%s.xlsx", stamp)
	case FormatCSV:
		return fmt.Sprintf("Tareas_DRTE_%s.csv", stamp)
	default:
		return fmt.Sprintf("Reporte_DRTE_%s.%s", stamp, format)
	}
}

// Write renders the tasks matching the filter to w in the given format.
func (e *ExportService) Write(w io.Writer, format ExportFormat, filter ports.TaskFilter) error {
	tasks := e.agenda.ListTasks(filter)
	now := entities.NowAtOffset(e.agenda.Settings().UTCOffsetHours)

	switch format {
	case FormatCSV:
		return export.WriteCSV(w, tasks)
	case FormatXLSX:
		return export.WriteXLSX(w, tasks, now)
	case FormatPDF:
		return export.WritePDF(w, tasks, now)
	case FormatDOCX:
		return export.WriteDOCX(w, tasks, now)
	default:
		return fmt.Errorf("%w: unknown export format %q", entities.ErrValidation, format)
	}
}

// ExportToFile renders a report into the configured output directory and
// returns the path written.
func (e *ExportService) ExportToFile(format ExportFormat, filter ports.TaskFilter) (string, error) {
	if err := os.MkdirAll(e.cfg.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	now := entities.NowAtOffset(e.agenda.Settings().UTCOffsetHours)
	path := filepath.Join(e.cfg.OutputDir, FileName(format, now))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := e.Write(f, format, filter); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to finish %s: %w", path, err)
	}

	e.logger.Infow("Report exported", "format", format, "path", path)
	return path, nil
}
