package export

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/agendadrte/core/internal/domain/entities"
)

func sampleTasks() []*entities.Task {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	return []*entities.Task{
		{
			ID:          "t1",
			Title:       "Revisión del PNTF",
			Description: "Revisar avances con la región",
			Date:        "2026-03-10",
			Time:        "09:30",
			Category:    entities.CategoryMeeting,
			Priority:    entities.PriorityHigh,
			Status:      entities.StatusPending,
			Location:    "oficina",
			Tags:        []string{"mep", "región"},
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:        "t2",
			Title:     "Informe, con comas \"citado\"",
			Date:      "2026-03-11",
			Category:  entities.CategoryReport,
			Priority:  entities.PriorityMedium,
			Status:    entities.StatusCompleted,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleTasks()); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	out := buf.Bytes()
	if !bytes.HasPrefix(out, []byte{0xEF, 0xBB, 0xBF}) {
		t.Fatal("missing UTF-8 BOM")
	}

	r := csv.NewReader(bytes.NewReader(out[3:]))
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header plus 2 tasks", len(rows))
	}
	if rows[0][1] != "Título" {
		t.Fatalf("header mismatch: %v", rows[0])
	}
	if rows[1][5] != "Reunión" || rows[1][7] != "Pendiente" {
		t.Fatalf("labels not localized: %v", rows[1])
	}
	if rows[2][1] != `Informe, con comas "citado"` {
		t.Fatalf("quoting broken: %q", rows[2][1])
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	generatedAt := time.Date(2026, 3, 10, 15, 4, 0, 0, time.UTC)
	if err := WriteXLSX(&buf, sampleTasks(), generatedAt); err != nil {
		t.Fatalf("write xlsx: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	title, err := f.GetCellValue(sheetName, "A1")
	if err != nil {
		t.Fatalf("read title: %v", err)
	}
	if title != reportTitle {
		t.Fatalf("got title %q", title)
	}

	header, err := f.GetCellValue(sheetName, "B4")
	if err != nil {
		t.Fatalf("read header: %v", err)
	}
	if header != "Título" {
		t.Fatalf("got header %q", header)
	}

	first, err := f.GetCellValue(sheetName, "B5")
	if err != nil {
		t.Fatalf("read first row: %v", err)
	}
	if first != "Revisión del PNTF" {
		t.Fatalf("got first task %q", first)
	}
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePDF(&buf, sampleTasks(), time.Now()); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatal("output is not a PDF")
	}
	if buf.Len() < 1000 {
		t.Fatalf("suspiciously small pdf: %d bytes", buf.Len())
	}
}

func TestWriteDOCX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteDOCX(&buf, sampleTasks(), time.Now()); err != nil {
		t.Fatalf("write docx: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("output is not a zip: %v", err)
	}

	parts := make(map[string]bool)
	for _, f := range zr.File {
		parts[f.Name] = true
	}
	for _, want := range []string{"[Content_Types].xml", "_rels/.rels", "word/document.xml"} {
		if !parts[want] {
			t.Fatalf("missing part %s", want)
		}
	}

	doc, err := zr.Open("word/document.xml")
	if err != nil {
		t.Fatalf("open document part: %v", err)
	}
	defer doc.Close()
	var body bytes.Buffer
	if _, err := body.ReadFrom(doc); err != nil {
		t.Fatalf("read document part: %v", err)
	}
	text := body.String()
	if !strings.Contains(text, reportTitle) {
		t.Fatal("title missing from document")
	}
	if !strings.Contains(text, "Informe, con comas &#34;citado&#34;") {
		t.Fatal("task text not escaped into document")
	}
}
