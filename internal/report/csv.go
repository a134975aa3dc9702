package report

import (
	"encoding/csv"
	"io"

	"spendlens/internal/analytics"
	"spendlens/internal/core"
)

var csvHeader = []string{"Date", "Category", "Amount", "Description"}

// CSVRenderer exports the cleaned transactions.
type CSVRenderer struct{}

func (CSVRenderer) Render(w io.Writer, res *analytics.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, t := range res.Transactions {
		if err := cw.Write([]string{
			t.Date.Format("2006-01-02"),
			t.Category,
			core.FormatAmount(t.Amount),
			t.Description,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
