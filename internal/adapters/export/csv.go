// Package export renders agenda reports in the formats the department
// circulates: XLSX, PDF, DOCX, and plain CSV.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/agendadrte/core/internal/domain/entities"
)

// reportTitle heads every exported document.
const reportTitle = "AGENDA DIGITAL DRTE - REPORTE PROFESIONAL"

// reportSubtitle names the office the reports are produced for.
const reportSubtitle = "Asesor Nacional - Departamento de Investigación, Desarrollo e Implementación"

// columns are the task table headers shared by the CSV and XLSX exports.
var columns = []string{
	"ID", "Título", "Descripción", "Fecha", "Hora", "Categoría",
	"Prioridad", "Estado", "Ubicación", "Etiquetas", "Adjuntos",
	"Fecha Creación", "Fecha Actualización",
}

func taskRow(t *entities.Task) []string {
	return []string{
		t.ID,
		t.Title,
		t.Description,
		t.Date,
		t.Time,
		t.Category.Label(),
		t.Priority.Label(),
		t.Status.Label(),
		t.Location,
		strings.Join(t.Tags, "; "),
		strconv.Itoa(len(t.AttachmentIDs)),
		t.CreatedAt.Format(time.RFC3339),
		t.UpdatedAt.Format(time.RFC3339),
	}
}

// WriteCSV writes the task table as UTF-8 CSV with a leading BOM so
// spreadsheet tools detect the encoding.
func WriteCSV(w io.Writer, tasks []*entities.Task) error {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	for _, t := range tasks {
		if err := cw.Write(taskRow(t)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
