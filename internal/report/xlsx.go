package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"spendlens/internal/analytics"
)

const (
	sheetTransactions  = "Transactions"
	sheetByCategory    = "By Category"
	sheetByMonth       = "By Month"
	sheetSpendingTypes = "Spending Types"
)

// XLSXRenderer writes a workbook with one sheet per aggregate.
type XLSXRenderer struct{}

func (XLSXRenderer) Render(w io.Writer, res *analytics.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetTransactions); err != nil {
		return err
	}
	for _, name := range []string{sheetByCategory, sheetByMonth, sheetSpendingTypes} {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#2D3436"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	numberStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return err
	}

	sw := sheetWriter{f: f, headerStyle: headerStyle, numberStyle: numberStyle}

	sw.headerRow(sheetTransactions, "Date", "Category", "Amount", "Description")
	for i, t := range res.Transactions {
		sw.row(sheetTransactions, i+2, t.Date.Format("2006-01-02"), t.Category, t.Amount.InexactFloat64(), t.Description)
	}
	sw.numberColumn(sheetTransactions, "C", len(res.Transactions)+1)

	sw.headerRow(sheetByCategory, "Category", "Amount")
	sorted := res.Aggregates.Categories.Sorted()
	for i, ca := range sorted {
		sw.row(sheetByCategory, i+2, ca.Name, ca.Amount.InexactFloat64())
	}
	sw.numberColumn(sheetByCategory, "B", len(sorted)+1)

	sw.headerRow(sheetByMonth, "Month", "Amount")
	for i, pa := range res.Aggregates.Periods {
		sw.row(sheetByMonth, i+2, pa.Period.String(), pa.Amount.InexactFloat64())
	}
	sw.numberColumn(sheetByMonth, "B", len(res.Aggregates.Periods)+1)

	sw.headerRow(sheetSpendingTypes, "Month", "Spending Type")
	if st := res.SpendingTypes; st != nil {
		for i, p := range st.Periods {
			sw.row(sheetSpendingTypes, i+2, p.String(), analytics.SpendingTypeName(st.Labels[i]))
		}
	} else if res.ClusteringErr != nil {
		sw.row(sheetSpendingTypes, 2, res.ClusteringErr.Error())
	}

	if sw.err != nil {
		return sw.err
	}
	for _, name := range []string{sheetTransactions, sheetByCategory, sheetByMonth, sheetSpendingTypes} {
		if err := f.SetColWidth(name, "A", "D", 18); err != nil {
			return err
		}
	}
	_, err = f.WriteTo(w)
	return err
}

// sheetWriter keeps the first error so the layout code stays linear.
type sheetWriter struct {
	f           *excelize.File
	headerStyle int
	numberStyle int
	err         error
}

func (s *sheetWriter) row(sheet string, n int, values ...any) {
	if s.err != nil {
		return
	}
	s.err = s.f.SetSheetRow(sheet, fmt.Sprintf("A%d", n), &values)
}

func (s *sheetWriter) headerRow(sheet string, titles ...string) {
	values := make([]any, len(titles))
	for i, t := range titles {
		values[i] = t
	}
	s.row(sheet, 1, values...)
	if s.err != nil {
		return
	}
	last, err := excelize.CoordinatesToCellName(len(titles), 1)
	if err != nil {
		s.err = err
		return
	}
	s.err = s.f.SetCellStyle(sheet, "A1", last, s.headerStyle)
}

func (s *sheetWriter) numberColumn(sheet, col string, lastRow int) {
	if s.err != nil || lastRow < 2 {
		return
	}
	s.err = s.f.SetCellStyle(sheet, col+"2", fmt.Sprintf("%s%d", col, lastRow), s.numberStyle)
}
