package report

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"spendlens/internal/analytics"
	"spendlens/internal/core"
)

const pdfColumnWidth = 60

// PDFRenderer lays out a one-column report: title, total, insights and the
// transaction table.
type PDFRenderer struct{}

func (PDFRenderer) Render(w io.Writer, res *analytics.Result) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "Expense Report", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("Total spending: $%s", core.FormatAmount(res.Summary.Total)), "", 1, "L", false, 0, "")
	if res.Forecast != nil {
		pdf.CellFormat(0, 8, fmt.Sprintf("Forecast for %s: $%s", res.Forecast.NextPeriod, core.FormatAmount(res.Forecast.Predicted)), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	if len(res.Insights) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, "Insights", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		for _, in := range res.Insights {
			pdf.MultiCell(0, 6, tr("- "+in.Message), "", "L", false)
		}
		pdf.Ln(4)
	}

	pdf.SetFont("Arial", "B", 12)
	for _, h := range []string{"Date", "Category", "Amount ($)"} {
		pdf.CellFormat(pdfColumnWidth, 8, h, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 12)
	for _, t := range res.Transactions {
		pdf.CellFormat(pdfColumnWidth, 8, t.Date.Format("2006-01-02"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(pdfColumnWidth, 8, tr(t.Category), "1", 0, "L", false, 0, "")
		pdf.CellFormat(pdfColumnWidth, 8, core.FormatAmount(t.Amount), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	return pdf.Output(w)
}
