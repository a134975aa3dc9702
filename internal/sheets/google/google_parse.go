package google

import (
	"fmt"
	"strings"

	"spendlens/internal/core"
)

// valuesToTable converts a values matrix (as returned by Sheets API) into a
// raw table. The first row is the header; trailing empty rows are skipped
// and short rows are kept as they are.
func valuesToTable(values [][]interface{}) core.RawTable {
	if len(values) == 0 {
		return core.RawTable{}
	}
	header := toStrings(values[0])
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	table := core.RawTable{Columns: header}
	for _, v := range values[1:] {
		row := toStrings(v)
		if blank(row) {
			continue
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		if v == nil {
			continue
		}
		out[i] = fmt.Sprint(v)
	}
	return out
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
