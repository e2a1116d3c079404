package repository

import (
	"context"
	"errors"

	"github.com/rpattn/assetscan/internal/domain"
)

// ErrFileAssetNotFound is returned when a path has no file asset row.
var ErrFileAssetNotFound = errors.New("file asset not found")

// AssetRepository persists file assets and their spreadsheet structure.
// Every write is an idempotent upsert on the natural key.
type AssetRepository interface {
	// UpsertFileAsset inserts the asset or, on path conflict, overwrites all
	// non-key attributes. Returns the stored id.
	UpsertFileAsset(ctx context.Context, asset domain.FileAsset) (int64, error)
	GetFileAsset(ctx context.Context, path string) (domain.FileAsset, error)
	// ListFileAssets pages through assets in id order.
	ListFileAssets(ctx context.Context, limit, offset int) ([]domain.FileAsset, error)

	// UpsertSheet resolves the owning asset by path at write time and
	// upserts on (asset, sheet name). Returns the sheet id.
	UpsertSheet(ctx context.Context, filePath string, sheet domain.SheetMetadata) (int64, error)
	ListSheets(ctx context.Context, filePath string) ([]domain.SheetMetadata, error)

	// UpsertRowSample upserts on (sample.SheetID, sample.RowNumber).
	UpsertRowSample(ctx context.Context, sample domain.RowSample) error
	ListRowSamples(ctx context.Context, sheetID int64) ([]domain.RowSample, error)

	Stats(ctx context.Context) (domain.CatalogStats, error)
}

// AuditRepository appends audit records. Records are never updated.
type AuditRepository interface {
	Append(ctx context.Context, record domain.AuditRecord) error
	List(ctx context.Context, limit int) ([]domain.AuditRecord, error)
}

// sampleColumns lists the row sample columns in bind order after the key.
const sampleColumns = `sheet_name, col_no, row_no, is_row,
	col_data_1, col_data_2, col_data_3, col_data_4, col_data_5,
	col_data_6, col_data_7, col_data_8, col_data_9, col_data_10, is_truncate`

// sampleArgs flattens a row sample into bind arguments matching sampleColumns,
// prefixed with the sheet id.
func sampleArgs(sample domain.RowSample) []any {
	args := make([]any, 0, 16)
	args = append(args,
		sample.SheetID,
		sample.SheetName,
		sample.ColumnCount,
		sample.RowNumber,
		domain.YesNo(sample.IsDataRow),
	)
	for _, value := range sample.Values {
		args = append(args, value)
	}
	return append(args, domain.YesNo(sample.IsTruncated))
}

// sampleScan holds the scan targets for one row sample row.
type sampleScan struct {
	sample     domain.RowSample
	isRow      string
	isTruncate string
}

func (s *sampleScan) targets() []any {
	targets := []any{
		&s.sample.ID,
		&s.sample.SheetID,
		&s.sample.SheetName,
		&s.sample.ColumnCount,
		&s.sample.RowNumber,
		&s.isRow,
	}
	for i := range s.sample.Values {
		targets = append(targets, &s.sample.Values[i])
	}
	return append(targets, &s.isTruncate)
}

func (s *sampleScan) result() domain.RowSample {
	s.sample.IsDataRow = domain.ParseYesNo(s.isRow)
	s.sample.IsTruncated = domain.ParseYesNo(s.isTruncate)
	return s.sample
}
