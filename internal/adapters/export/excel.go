package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/agendadrte/core/internal/domain/entities"
)

const sheetName = "Tareas DRTE"

// WriteXLSX writes the task table as a styled workbook with a title
// banner, a generation timestamp, and fixed column widths.
func WriteXLSX(w io.Writer, tasks []*entities.Task, generatedAt time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	lastCol, _ := excelize.ColumnNumberToName(len(columns))

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"2C3E50"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	subtitleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Italic: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"ECF0F1"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}

	if err := f.SetCellValue(sheetName, "A1", reportTitle); err != nil {
		return err
	}
	if err := f.MergeCell(sheetName, "A1", lastCol+"1"); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", lastCol+"1", titleStyle); err != nil {
		return err
	}

	if err := f.SetCellValue(sheetName, "A2", "Generado: "+generatedAt.Format("02/01/2006 15:04")); err != nil {
		return err
	}
	if err := f.MergeCell(sheetName, "A2", lastCol+"2"); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A2", lastCol+"2", subtitleStyle); err != nil {
		return err
	}

	// Row 3 stays blank; row 4 holds the table headers.
	if err := f.SetSheetRow(sheetName, "A4", &columns); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A4", lastCol+"4", headerStyle); err != nil {
		return err
	}

	for i, task := range tasks {
		cell := fmt.Sprintf("A%d", 5+i)
		row := taskRow(task)
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return err
		}
	}

	widths := []float64{15, 30, 50, 12, 8, 15, 12, 12, 20, 25, 10, 20, 20}
	for i, width := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
