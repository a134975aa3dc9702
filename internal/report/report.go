// Package report renders analytics results as downloadable exports.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"spendlens/internal/analytics"
)

// Format is an export file type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// Formats lists every supported export.
var Formats = []Format{FormatCSV, FormatPDF, FormatXLSX}

// ParseFormat accepts a case-insensitive format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported report format %q", s)
}

// ContentType is the MIME type served with the export.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/octet-stream"
}

// Filename builds the download name, e.g. expenses_report_20260101.pdf.
func (f Format) Filename(at time.Time) string {
	return fmt.Sprintf("expenses_report_%s.%s", at.Format("20060102"), f)
}

// Renderer writes a pipeline result in one export format.
type Renderer interface {
	Render(w io.Writer, res *analytics.Result) error
}

// NewRenderer returns the renderer of a format.
func NewRenderer(f Format) (Renderer, error) {
	switch f {
	case FormatCSV:
		return CSVRenderer{}, nil
	case FormatPDF:
		return PDFRenderer{}, nil
	case FormatXLSX:
		return XLSXRenderer{}, nil
	}
	return nil, fmt.Errorf("unsupported report format %q", f)
}

// Render writes res to w in format f.
func Render(w io.Writer, f Format, res *analytics.Result) error {
	r, err := NewRenderer(f)
	if err != nil {
		return err
	}
	if err := r.Render(w, res); err != nil {
		return fmt.Errorf("render %s: %w", f, err)
	}
	return nil
}
