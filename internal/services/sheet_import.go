package services

import (
	"context"
	"fmt"

	"spendlens/internal/core"
)

// TableSource reads a raw expense table from an external spreadsheet.
type TableSource interface {
	ReadTable(ctx context.Context, rng string) (core.RawTable, error)
}

// ImportSheet copies a spreadsheet range into the owner's records.
func (s *RecordService) ImportSheet(ctx context.Context, owner string, src TableSource, rng string) (int, error) {
	raw, err := src.ReadTable(ctx, rng)
	if err != nil {
		return 0, fmt.Errorf("read sheet: %w", err)
	}
	return s.Import(ctx, owner, raw)
}
