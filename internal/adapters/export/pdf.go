package export

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/agendadrte/core/internal/domain/entities"
)

// WritePDF writes the report as an A4 portrait document: title block,
// status summary, then the numbered task list with page footers.
func WritePDF(w io.Writer, tasks []*entities.Task, generatedAt time.Time) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetAutoPageBreak(true, 20)
	pdf.AliasNbPages("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-13)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 4, fmt.Sprintf("Página %d de {nb}", pdf.PageNo()), "", 1, "C", false, 0, "")
		pdf.CellFormat(0, 4, tr("Sistema Agenda Digital DRTE - Confidencial"), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 10, tr(reportTitle), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, tr(reportSubtitle), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, tr("Generado: "+generatedAt.Format("02/01/2006 15:04")), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	var pending, completed int
	for _, t := range tasks {
		switch t.Status {
		case entities.StatusPending:
			pending++
		case entities.StatusCompleted:
			completed++
		}
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 7, tr("RESUMEN ESTADÍSTICO"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Total de tareas: %d", len(tasks)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Pendientes: %d", pending), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Completadas: %d", completed), "", 1, "L", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 7, "DETALLE DE TAREAS", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	for i, task := range tasks {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.MultiCell(0, 5, tr(fmt.Sprintf("%d. %s", i+1, task.Title)), "", "L", false)

		pdf.SetFont("Helvetica", "", 9)
		pdf.SetX(pdf.GetX() + 5)
		meta := fmt.Sprintf("Fecha: %s | Categoría: %s | Prioridad: %s | Estado: %s",
			task.Date, task.Category.Label(), task.Priority.Label(), task.Status.Label())
		pdf.MultiCell(0, 5, tr(meta), "", "L", false)

		if task.Description != "" {
			pdf.SetX(pdf.GetX() + 5)
			pdf.MultiCell(0, 5, tr(task.Description), "", "L", false)
		}
		pdf.Ln(3)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}
