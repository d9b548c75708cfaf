package services

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agendadrte/core/internal/domain/entities"
	"github.com/agendadrte/core/internal/infrastructure/config"
	"github.com/agendadrte/core/internal/infrastructure/logger"
	"github.com/agendadrte/core/internal/ports"
)

func TestFileNameConventions(t *testing.T) {
	at := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "Agenda_DRTE_20260310.xlsx", FileName(FormatXLSX, at))
	assert.Equal(t, "Tareas_DRTE_20260310.csv", FileName(FormatCSV, at))
	assert.Equal(t, "Reporte_DRTE_20260310.pdf", FileName(FormatPDF, at))
	assert.Equal(t, "Reporte_DRTE_20260310.docx", FileName(FormatDOCX, at))
}

func TestExportToFile(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.SaveTask(ctx, basicInput("exportable"), nil)
	require.NoError(t, err)

	outDir := t.TempDir()
	exp := NewExportService(svc, config.ExportConfig{OutputDir: outDir}, logger.NewNop())

	for _, format := range []ExportFormat{FormatCSV, FormatXLSX, FormatPDF, FormatDOCX} {
		path, err := exp.ExportToFile(format, ports.TaskFilter{})
		require.NoError(t, err, "format %s", format)
		assert.True(t, strings.HasPrefix(path, outDir))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
		assert.True(t, strings.HasSuffix(path, "."+string(format)), "path %s", path)
	}
}

func TestExportUnknownFormat(t *testing.T) {
	svc, _ := newTestService(t)
	exp := NewExportService(svc, config.ExportConfig{OutputDir: t.TempDir()}, logger.NewNop())

	_, err := exp.ExportToFile("ods", ports.TaskFilter{})
	assert.ErrorIs(t, err, entities.ErrValidation)

	// A failed export leaves no partial file behind.
	entries, err := os.ReadDir(exp.cfg.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
