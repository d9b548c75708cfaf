package export

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/agendadrte/core/internal/domain/entities"
)

// A .docx file is a zip of OOXML parts. The report needs only the three
// mandatory parts: content types, the package relationships, and the
// document body itself.

const docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const docxRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

// WriteDOCX writes the report as a Word document: centered title block, a
// status summary table, then one heading and metadata line per task.
func WriteDOCX(w io.Writer, tasks []*entities.Task, generatedAt time.Time) error {
	zw := zip.NewWriter(w)

	parts := []struct {
		name string
		body string
	}{
		{"[Content_Types].xml", docxContentTypes},
		{"_rels/.rels", docxRels},
		{"word/document.xml", documentXML(tasks, generatedAt)},
	}
	for _, part := range parts {
		f, err := zw.Create(part.name)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", part.name, err)
		}
		if _, err := f.Write([]byte(part.body)); err != nil {
			return fmt.Errorf("failed to write %s: %w", part.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish docx: %w", err)
	}
	return nil
}

func documentXML(tasks []*entities.Task, generatedAt time.Time) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)

	writePara(&b, reportTitle, paraOpts{bold: true, size: 32, center: true})
	writePara(&b, reportSubtitle, paraOpts{size: 22, center: true})
	writePara(&b, "Fecha de generación: "+generatedAt.Format("02/01/2006 15:04"), paraOpts{italic: true, size: 20, center: true})
	writePara(&b, "", paraOpts{})

	var pending, completed int
	for _, t := range tasks {
		switch t.Status {
		case entities.StatusPending:
			pending++
		case entities.StatusCompleted:
			completed++
		}
	}

	writePara(&b, "RESUMEN ESTADÍSTICO", paraOpts{bold: true, size: 28})
	writeStatsTable(&b, [][2]string{
		{"Total de tareas", fmt.Sprintf("%d", len(tasks))},
		{"Tareas pendientes", fmt.Sprintf("%d", pending)},
		{"Tareas completadas", fmt.Sprintf("%d", completed)},
	})

	writePara(&b, "DETALLE DE TAREAS", paraOpts{bold: true, size: 28, pageBreak: true})
	for i, task := range tasks {
		writePara(&b, fmt.Sprintf("%d. %s", i+1, task.Title), paraOpts{bold: true, size: 24})
		meta := fmt.Sprintf("Fecha: %s | Categoría: %s | Prioridad: %s | Estado: %s",
			task.Date, task.Category.Label(), task.Priority.Label(), task.Status.Label())
		writePara(&b, meta, paraOpts{bold: true})
		if task.Description != "" {
			writePara(&b, task.Description, paraOpts{})
		}
		writePara(&b, "", paraOpts{})
	}

	b.WriteString(`</w:body></w:document>`)
	return b.String()
}

type paraOpts struct {
	bold      bool
	italic    bool
	center    bool
	pageBreak bool
	size      int // half-points; zero keeps the document default
}

func writePara(b *strings.Builder, text string, opts paraOpts) {
	b.WriteString(`<w:p>`)
	if opts.center || opts.pageBreak {
		b.WriteString(`<w:pPr>`)
		if opts.pageBreak {
			b.WriteString(`<w:pageBreakBefore/>`)
		}
		if opts.center {
			b.WriteString(`<w:jc w:val="center"/>`)
		}
		b.WriteString(`</w:pPr>`)
	}
	if text != "" {
		b.WriteString(`<w:r>`)
		if opts.bold || opts.italic || opts.size > 0 {
			b.WriteString(`<w:rPr>`)
			if opts.bold {
				b.WriteString(`<w:b/>`)
			}
			if opts.italic {
				b.WriteString(`<w:i/>`)
			}
			if opts.size > 0 {
				fmt.Fprintf(b, `<w:sz w:val="%d"/>`, opts.size)
			}
			b.WriteString(`</w:rPr>`)
		}
		b.WriteString(`<w:t xml:space="preserve">`)
		xml.EscapeText(b, []byte(text))
		b.WriteString(`</w:t></w:r>`)
	}
	b.WriteString(`</w:p>`)
}

func writeStatsTable(b *strings.Builder, rows [][2]string) {
	b.WriteString(`<w:tbl><w:tblPr><w:tblW w:w="5000" w:type="pct"/>` +
		`<w:tblBorders><w:top w:val="single"/><w:bottom w:val="single"/>` +
		`<w:left w:val="single"/><w:right w:val="single"/>` +
		`<w:insideH w:val="single"/><w:insideV w:val="single"/></w:tblBorders></w:tblPr>`)
	for _, row := range rows {
		b.WriteString(`<w:tr>`)
		b.WriteString(`<w:tc><w:tcPr><w:shd w:val="clear" w:fill="2C3E50"/></w:tcPr>`)
		writePara(b, row[0], paraOpts{bold: true})
		b.WriteString(`</w:tc><w:tc>`)
		writePara(b, row[1], paraOpts{})
		b.WriteString(`</w:tc></w:tr>`)
	}
	b.WriteString(`</w:tbl>`)
}
