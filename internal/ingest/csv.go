// Package ingest turns uploaded files into raw tables.
package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"spendlens/internal/core"
)

// MaxUploadBytes caps the size of a single upload.
const MaxUploadBytes = 10 << 20

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV parses a CSV stream whose first row is the header. An empty stream
// yields a table with no columns. Rows keep their cells verbatim; ragged rows
// are allowed and left for the normalizer to judge.
func ReadCSV(r io.Reader) (core.RawTable, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return core.RawTable{}, nil
	}
	if err != nil {
		return core.RawTable{}, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	table := core.RawTable{Columns: header}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return core.RawTable{}, fmt.Errorf("read csv: %w", err)
		}
		if isBlank(row) {
			continue
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// ReadFile opens path and parses it with ReadCSV.
func ReadFile(path string) (core.RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return core.RawTable{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// WriteCSV writes a raw table with its header.
func WriteCSV(w io.Writer, table core.RawTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(table.Rows); err != nil {
		return err
	}
	return cw.Error()
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
