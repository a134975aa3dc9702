package core

import (
	"testing"
	"time"
)

func TestPeriodOrderingAndNext(t *testing.T) {
	jan := Period{Year: 2026, Month: time.January}
	dec := Period{Year: 2025, Month: time.December}

	if !dec.Before(jan) || jan.Before(dec) {
		t.Fatalf("expected %s before %s", dec, jan)
	}
	if dec.Next() != jan {
		t.Fatalf("expected next of %s to be %s, got %s", dec, jan, dec.Next())
	}
	if got := dec.MonthsUntil(Period{Year: 2026, Month: time.March}); got != 3 {
		t.Fatalf("expected 3 months, got %d", got)
	}
	if jan.String() != "2026-01" {
		t.Fatalf("unexpected string %q", jan.String())
	}
	p, err := ParsePeriod("2026-01")
	if err != nil || p != jan {
		t.Fatalf("parse period: %v %v", p, err)
	}
}

func TestRawTableColumns(t *testing.T) {
	rt := RawTable{Columns: []string{" Date", "CATEGORY", "Description"}}
	if rt.Index("date") != 0 || rt.Index("category") != 1 {
		t.Fatalf("case-insensitive lookup failed")
	}
	missing := rt.MissingColumns()
	if len(missing) != 1 || missing[0] != ColumnAmount {
		t.Fatalf("expected amount missing, got %v", missing)
	}
}

func TestRecordValidate(t *testing.T) {
	good := Record{Date: "2026-01-01", Category: "Food", Amount: "12.50"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Record{
		{Date: "nope", Category: "Food", Amount: "1"},
		{Date: "2026-01-01", Category: "Food", Amount: "0"},
		{Date: "2026-01-01", Category: "Food", Amount: "abc"},
		{Date: "2026-01-01", Category: " ", Amount: "1"},
	}
	for i, r := range bads {
		if err := r.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestRecordsTableRoundTrip(t *testing.T) {
	rt := RawTable{
		Columns: []string{"Amount", "Date", "Category"},
		Rows:    [][]string{{"20", "2026-01-01", "Food"}, {"15"}},
	}
	recs, err := TableRecords("alice", rt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 2 || recs[0].Date != "2026-01-01" || recs[0].Owner != "alice" {
		t.Fatalf("unexpected records: %+v", recs)
	}
	if recs[1].Date != "" || recs[1].Amount != "15" {
		t.Fatalf("short row not padded: %+v", recs[1])
	}

	back := RecordsTable(recs)
	if len(back.Rows) != 2 || back.Rows[0][2] != "20" {
		t.Fatalf("unexpected table: %+v", back)
	}

	if _, err := TableRecords("alice", RawTable{Columns: []string{"Date"}}); err == nil {
		t.Fatalf("expected missing column error")
	}
}
