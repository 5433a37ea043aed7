package export

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDFRenderer writes attendance sheets as a printable landscape document.
type PDFRenderer struct{}

// NewPDFRenderer builds a PDF renderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// Render creates one landscape A4 page per class section.
func (r *PDFRenderer) Render(sheet Sheet) ([]byte, error) {
	if sheet.Days <= 0 {
		return nil, fmt.Errorf("pdf sheet requires a positive day count")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)

	const usableWidth = 277.0
	nameWidth := 60.0
	dayWidth := (usableWidth - nameWidth) / float64(sheet.Days)

	for _, section := range sheet.Sections {
		pdf.AddPage()

		pdf.SetFont("Arial", "B", 13)
		pdf.CellFormat(0, 8, strings.ToUpper(sheet.Title), "", 1, "C", false, 0, "")
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 7, section.Heading, "", 1, "L", false, 0, "")
		pdf.Ln(2)

		pdf.SetFont("Arial", "B", 8)
		pdf.CellFormat(nameWidth, 7, "Student Name", "1", 0, "C", false, 0, "")
		for day := 1; day <= sheet.Days; day++ {
			pdf.CellFormat(dayWidth, 7, strconv.Itoa(day), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 8)
		for _, student := range section.Students {
			pdf.CellFormat(nameWidth, 6, student.Name, "1", 0, "L", false, 0, "")
			for _, cell := range student.Cells {
				pdf.CellFormat(dayWidth, 6, cell, "1", 0, "C", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
