package ingest

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestReadCSV(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		columns []string
		rows    int
		wantErr bool
	}{
		{
			name:    "standard",
			input:   "Date,Category,Amount,Description\n2026-01-01,Food,20,lunch\n2026-01-02,Transport,15,\n",
			columns: []string{"Date", "Category", "Amount", "Description"},
			rows:    2,
		},
		{
			name:    "bom and padded header",
			input:   "\xEF\xBB\xBF Date , Category,Amount\n2026-01-01,Food,20\n",
			columns: []string{"Date", "Category", "Amount"},
			rows:    1,
		},
		{
			name:    "ragged and blank rows",
			input:   "Date,Category,Amount\n2026-01-01,Food\n,,\n2026-01-03,Food,5,extra\n",
			columns: []string{"Date", "Category", "Amount"},
			rows:    2,
		},
		{
			name:    "empty",
			input:   "",
			columns: nil,
			rows:    0,
		},
		{
			name:    "broken quote",
			input:   "Date,Category,Amount\n\"2026-01-01,Food,20\n",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := ReadCSV(strings.NewReader(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ReadCSV() err=%v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !reflect.DeepEqual(table.Columns, tt.columns) {
				t.Fatalf("columns=%q, want %q", table.Columns, tt.columns)
			}
			if len(table.Rows) != tt.rows {
				t.Fatalf("rows=%d, want %d", len(table.Rows), tt.rows)
			}
		})
	}
}

func TestReadFileAndWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte("Date,Category,Amount\n2026-01-01,Food,\"1,200.50\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	table, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if table.Rows[0][2] != "1,200.50" {
		t.Fatalf("quoted cell not preserved: %q", table.Rows[0][2])
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, table); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	want := "Date,Category,Amount\n2026-01-01,Food,\"1,200.50\"\n"
	if buf.String() != want {
		t.Fatalf("WriteCSV=%q, want %q", buf.String(), want)
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
