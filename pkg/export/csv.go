package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
)

// CSVRenderer writes attendance sheets as CSV, one section per class.
type CSVRenderer struct{}

// NewCSVRenderer builds a CSV renderer.
func NewCSVRenderer() *CSVRenderer {
	return &CSVRenderer{}
}

// Render produces CSV bytes for the sheet. A UTF-8 BOM is prepended so the
// file opens cleanly in spreadsheet applications.
func (r *CSVRenderer) Render(sheet Sheet) ([]byte, error) {
	if sheet.Days <= 0 {
		return nil, fmt.Errorf("csv sheet requires a positive day count")
	}
	buf := &bytes.Buffer{}
	buf.WriteString("\xEF\xBB\xBF")
	writer := csv.NewWriter(buf)

	if err := writer.Write([]string{sheet.Title}); err != nil {
		return nil, fmt.Errorf("write sheet title: %w", err)
	}

	header := make([]string, 0, sheet.Days+1)
	header = append(header, "Student Name")
	for day := 1; day <= sheet.Days; day++ {
		header = append(header, strconv.Itoa(day))
	}

	for _, section := range sheet.Sections {
		if err := writer.Write([]string{section.Heading}); err != nil {
			return nil, fmt.Errorf("write section heading: %w", err)
		}
		if err := writer.Write(header); err != nil {
			return nil, fmt.Errorf("write section header: %w", err)
		}
		for _, student := range section.Students {
			record := make([]string, 0, sheet.Days+1)
			record = append(record, student.Name)
			record = append(record, student.Cells...)
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("write student row: %w", err)
			}
		}
		if err := writer.Write([]string{""}); err != nil {
			return nil, fmt.Errorf("write section separator: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
