// Package core provides amount and date parsing utilities.
//
// This file contains the lenient parsers used when turning raw table
// cells into transactions.
package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// dateLayouts are tried in order. Month-first is preferred over day-first
// for slash dates.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
	"2006-01",
	"Jan 2, 2006",
	"2 Jan 2006",
	"January 2, 2006",
}

// ParseAmount converts a decimal string to a decimal value.
//
// It accepts dot (12.34) and comma (12,34) decimal separators, a leading
// currency symbol, and thousands separators when a dot is present
// (1,234.50). A lone comma followed by exactly three digits (1,234) could be
// either separator and is rejected. The sign is preserved; positivity is the
// caller's concern.
//
// Examples:
//
//	ParseAmount("12.34")    -> 12.34
//	ParseAmount("12,34")    -> 12.34
//	ParseAmount("$1,234.5") -> 1234.5
//	ParseAmount("-5")       -> -5
//	ParseAmount("1,234")    -> ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "$€£ ")
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", "")
	} else if i := strings.IndexByte(s, ','); i >= 0 && strings.Count(s, ",") == 1 {
		if len(s)-i-1 == 3 {
			return decimal.Zero, ErrInvalidAmount
		}
		s = s[:i] + "." + s[i+1:]
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParsePositiveAmount is ParseAmount restricted to values above zero.
func ParsePositiveAmount(s string) (decimal.Decimal, error) {
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParseDate parses a calendar date and truncates it to UTC midnight.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, ErrInvalidDate
}

// RoundAmount rounds to cents for display.
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// FormatAmount renders an amount with two decimals for display and export.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
