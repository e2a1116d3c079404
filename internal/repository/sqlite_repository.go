package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rpattn/assetscan/internal/domain"

	"github.com/google/uuid"
)

// The SQLite backend mirrors the pgx repositories statement for statement;
// only placeholders and value types differ.

type sqliteAssetRepository struct {
	db *sql.DB
}

// NewSQLiteAssetRepository wires an AssetRepository backed by database/sql on SQLite.
func NewSQLiteAssetRepository(db *sql.DB) AssetRepository {
	return &sqliteAssetRepository{db: db}
}

func (r *sqliteAssetRepository) UpsertFileAsset(ctx context.Context, asset domain.FileAsset) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(
		ctx,
		`INSERT INTO file_assets (file_path, file_size, file_name, file_extension, modification_time, access_time, creation_time)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (file_path) DO UPDATE SET
		   file_size = excluded.file_size,
		   file_name = excluded.file_name,
		   file_extension = excluded.file_extension,
		   modification_time = excluded.modification_time,
		   access_time = excluded.access_time,
		   creation_time = excluded.creation_time
		 RETURNING id`,
		asset.Path,
		asset.Size,
		asset.Name,
		asset.Extension,
		asset.ModifiedAt,
		asset.AccessedAt,
		asset.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert file asset %s: %w", asset.Path, err)
	}
	return id, nil
}

func (r *sqliteAssetRepository) GetFileAsset(ctx context.Context, path string) (domain.FileAsset, error) {
	var asset domain.FileAsset
	err := r.db.QueryRowContext(
		ctx,
		`SELECT id, file_path, file_size, file_name, file_extension, modification_time, access_time, creation_time
		 FROM file_assets WHERE file_path = ?`,
		path,
	).Scan(&asset.ID, &asset.Path, &asset.Size, &asset.Name, &asset.Extension, &asset.ModifiedAt, &asset.AccessedAt, &asset.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.FileAsset{}, fmt.Errorf("%w: %s", ErrFileAssetNotFound, path)
		}
		return domain.FileAsset{}, fmt.Errorf("failed to get file asset: %w", err)
	}
	return asset, nil
}

func (r *sqliteAssetRepository) ListFileAssets(ctx context.Context, limit, offset int) ([]domain.FileAsset, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, file_path, file_size, file_name, file_extension, modification_time, access_time, creation_time
		 FROM file_assets ORDER BY id LIMIT ? OFFSET ?`,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list file assets: %w", err)
	}
	defer rows.Close()

	var assets []domain.FileAsset
	for rows.Next() {
		var asset domain.FileAsset
		if err := rows.Scan(&asset.ID, &asset.Path, &asset.Size, &asset.Name, &asset.Extension, &asset.ModifiedAt, &asset.AccessedAt, &asset.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan file asset: %w", err)
		}
		assets = append(assets, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate file assets: %w", err)
	}
	return assets, nil
}

func (r *sqliteAssetRepository) UpsertSheet(ctx context.Context, filePath string, sheet domain.SheetMetadata) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(
		ctx,
		`INSERT INTO sheet_metadata (file_asset_id, sheet_name, total_cols, total_rows)
		 SELECT id, ?, ?, ? FROM file_assets WHERE file_path = ?
		 ON CONFLICT (file_asset_id, sheet_name) DO UPDATE SET
		   total_cols = excluded.total_cols,
		   total_rows = excluded.total_rows
		 RETURNING id`,
		sheet.Name,
		sheet.TotalColumns,
		sheet.TotalRows,
		filePath,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: %s", ErrFileAssetNotFound, filePath)
		}
		return 0, fmt.Errorf("failed to upsert sheet %s: %w", sheet.Name, err)
	}
	return id, nil
}

func (r *sqliteAssetRepository) ListSheets(ctx context.Context, filePath string) ([]domain.SheetMetadata, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT s.id, s.file_asset_id, s.sheet_name, s.total_cols, s.total_rows
		 FROM sheet_metadata s
		 JOIN file_assets f ON f.id = s.file_asset_id
		 WHERE f.file_path = ?
		 ORDER BY s.id`,
		filePath,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sheets: %w", err)
	}
	defer rows.Close()

	sheets := []domain.SheetMetadata{}
	for rows.Next() {
		var sheet domain.SheetMetadata
		if scanErr := rows.Scan(&sheet.ID, &sheet.FileAssetID, &sheet.Name, &sheet.TotalColumns, &sheet.TotalRows); scanErr != nil {
			return nil, fmt.Errorf("failed to scan sheet: %w", scanErr)
		}
		sheets = append(sheets, sheet)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate sheets: %w", rowsErr)
	}
	return sheets, nil
}

func (r *sqliteAssetRepository) UpsertRowSample(ctx context.Context, sample domain.RowSample) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO sheet_row_samples (sheet_id, `+sampleColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (sheet_id, row_no) DO UPDATE SET
		   sheet_name = excluded.sheet_name,
		   col_no = excluded.col_no,
		   is_row = excluded.is_row,
		   col_data_1 = excluded.col_data_1,
		   col_data_2 = excluded.col_data_2,
		   col_data_3 = excluded.col_data_3,
		   col_data_4 = excluded.col_data_4,
		   col_data_5 = excluded.col_data_5,
		   col_data_6 = excluded.col_data_6,
		   col_data_7 = excluded.col_data_7,
		   col_data_8 = excluded.col_data_8,
		   col_data_9 = excluded.col_data_9,
		   col_data_10 = excluded.col_data_10,
		   is_truncate = excluded.is_truncate`,
		sampleArgs(sample)...,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert row %d of sheet %s: %w", sample.RowNumber, sample.SheetName, err)
	}
	return nil
}

func (r *sqliteAssetRepository) ListRowSamples(ctx context.Context, sheetID int64) ([]domain.RowSample, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, sheet_id, `+sampleColumns+`
		 FROM sheet_row_samples WHERE sheet_id = ?
		 ORDER BY row_no`,
		sheetID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list row samples: %w", err)
	}
	defer rows.Close()

	samples := []domain.RowSample{}
	for rows.Next() {
		var scan sampleScan
		if scanErr := rows.Scan(scan.targets()...); scanErr != nil {
			return nil, fmt.Errorf("failed to scan row sample: %w", scanErr)
		}
		samples = append(samples, scan.result())
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate row samples: %w", rowsErr)
	}
	return samples, nil
}

func (r *sqliteAssetRepository) Stats(ctx context.Context) (domain.CatalogStats, error) {
	var stats domain.CatalogStats
	err := r.db.QueryRowContext(ctx, statsQuery).Scan(
		&stats.FileAssets,
		&stats.Sheets,
		&stats.RowSamples,
		&stats.AuditRecords,
	)
	if err != nil {
		return domain.CatalogStats{}, fmt.Errorf("failed to count catalog rows: %w", err)
	}
	return stats, nil
}

type sqliteAuditRepository struct {
	db *sql.DB
}

// NewSQLiteAuditRepository wires an AuditRepository backed by database/sql on SQLite.
func NewSQLiteAuditRepository(db *sql.DB) AuditRepository {
	return &sqliteAuditRepository{db: db}
}

func (r *sqliteAuditRepository) Append(ctx context.Context, record domain.AuditRecord) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO audit_records (run_id, pc_ip_address, start_time, end_time, duration_seconds)
		 VALUES (?, ?, ?, ?, ?)`,
		record.RunID.String(),
		record.Address,
		record.StartedAt,
		record.EndedAt,
		record.Duration.Seconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to append audit record: %w", err)
	}
	return nil
}

func (r *sqliteAuditRepository) List(ctx context.Context, limit int) ([]domain.AuditRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, run_id, pc_ip_address, start_time, end_time, duration_seconds
		 FROM audit_records
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit records: %w", err)
	}
	defer rows.Close()

	records := []domain.AuditRecord{}
	for rows.Next() {
		var (
			record  domain.AuditRecord
			runID   string
			seconds float64
		)
		if scanErr := rows.Scan(&record.ID, &runID, &record.Address, &record.StartedAt, &record.EndedAt, &seconds); scanErr != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", scanErr)
		}
		parsed, parseErr := uuid.Parse(runID)
		if parseErr != nil {
			return nil, fmt.Errorf("failed to parse audit run id %q: %w", runID, parseErr)
		}
		record.RunID = parsed
		record.Duration = secondsToDuration(seconds)
		records = append(records, record)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate audit records: %w", rowsErr)
	}
	return records, nil
}
