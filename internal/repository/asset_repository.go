package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/rpattn/assetscan/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type assetRepository struct {
	pool *pgxpool.Pool
}

// NewAssetRepository wires an AssetRepository backed by pgxpool.
func NewAssetRepository(pool *pgxpool.Pool) AssetRepository {
	return &assetRepository{pool: pool}
}

func (r *assetRepository) UpsertFileAsset(ctx context.Context, asset domain.FileAsset) (int64, error) {
	var id int64
	err := r.pool.QueryRow(
		ctx,
		`INSERT INTO file_assets (file_path, file_size, file_name, file_extension, modification_time, access_time, creation_time)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (file_path) DO UPDATE SET
		   file_size = EXCLUDED.file_size,
		   file_name = EXCLUDED.file_name,
		   file_extension = EXCLUDED.file_extension,
		   modification_time = EXCLUDED.modification_time,
		   access_time = EXCLUDED.access_time,
		   creation_time = EXCLUDED.creation_time
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

func (r *assetRepository) GetFileAsset(ctx context.Context, path string) (domain.FileAsset, error) {
	var (
		asset                       domain.FileAsset
		modified, accessed, created pgtype.Timestamptz
	)
	err := r.pool.QueryRow(
		ctx,
		`SELECT id, file_path, file_size, file_name, file_extension, modification_time, access_time, creation_time
		 FROM file_assets WHERE file_path = $1`,
		path,
	).Scan(&asset.ID, &asset.Path, &asset.Size, &asset.Name, &asset.Extension, &modified, &accessed, &created)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.FileAsset{}, fmt.Errorf("%w: %s", ErrFileAssetNotFound, path)
		}
		return domain.FileAsset{}, fmt.Errorf("failed to get file asset: %w", err)
	}
	asset.ModifiedAt = modified.Time
	asset.AccessedAt = accessed.Time
	asset.CreatedAt = created.Time
	return asset, nil
}

func (r *assetRepository) ListFileAssets(ctx context.Context, limit, offset int) ([]domain.FileAsset, error) {
	rows, err := r.pool.Query(
		ctx,
		`SELECT id, file_path, file_size, file_name, file_extension, modification_time, access_time, creation_time
		 FROM file_assets ORDER BY id LIMIT $1 OFFSET $2`,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list file assets: %w", err)
	}
	defer rows.Close()

	var assets []domain.FileAsset
	for rows.Next() {
		var (
			asset                       domain.FileAsset
			modified, accessed, created pgtype.Timestamptz
		)
		if err := rows.Scan(&asset.ID, &asset.Path, &asset.Size, &asset.Name, &asset.Extension, &modified, &accessed, &created); err != nil {
			return nil, fmt.Errorf("failed to scan file asset: %w", err)
		}
		asset.ModifiedAt = modified.Time
		asset.AccessedAt = accessed.Time
		asset.CreatedAt = created.Time
		assets = append(assets, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate file assets: %w", err)
	}
	return assets, nil
}

func (r *assetRepository) UpsertSheet(ctx context.Context, filePath string, sheet domain.SheetMetadata) (int64, error) {
	var id int64
	err := r.pool.QueryRow(
		ctx,
		`INSERT INTO sheet_metadata (file_asset_id, sheet_name, total_cols, total_rows)
		 SELECT id, $2::text, $3::integer, $4::integer FROM file_assets WHERE file_path = $1
		 ON CONFLICT (file_asset_id, sheet_name) DO UPDATE SET
		   total_cols = EXCLUDED.total_cols,
		   total_rows = EXCLUDED.total_rows
		 RETURNING id`,
		filePath,
		sheet.Name,
		sheet.TotalColumns,
		sheet.TotalRows,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: %s", ErrFileAssetNotFound, filePath)
		}
		return 0, fmt.Errorf("failed to upsert sheet %s: %w", sheet.Name, err)
	}
	return id, nil
}

func (r *assetRepository) ListSheets(ctx context.Context, filePath string) ([]domain.SheetMetadata, error) {
	rows, err := r.pool.Query(
		ctx,
		`SELECT s.id, s.file_asset_id, s.sheet_name, s.total_cols, s.total_rows
		 FROM sheet_metadata s
		 JOIN file_assets f ON f.id = s.file_asset_id
		 WHERE f.file_path = $1
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

func (r *assetRepository) UpsertRowSample(ctx context.Context, sample domain.RowSample) error {
	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO sheet_row_samples (sheet_id, `+sampleColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		 ON CONFLICT (sheet_id, row_no) DO UPDATE SET
		   sheet_name = EXCLUDED.sheet_name,
		   col_no = EXCLUDED.col_no,
		   is_row = EXCLUDED.is_row,
		   col_data_1 = EXCLUDED.col_data_1,
		   col_data_2 = EXCLUDED.col_data_2,
		   col_data_3 = EXCLUDED.col_data_3,
		   col_data_4 = EXCLUDED.col_data_4,
		   col_data_5 = EXCLUDED.col_data_5,
		   col_data_6 = EXCLUDED.col_data_6,
		   col_data_7 = EXCLUDED.col_data_7,
		   col_data_8 = EXCLUDED.col_data_8,
		   col_data_9 = EXCLUDED.col_data_9,
		   col_data_10 = EXCLUDED.col_data_10,
		   is_truncate = EXCLUDED.is_truncate`,
		sampleArgs(sample)...,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert row %d of sheet %s: %w", sample.RowNumber, sample.SheetName, err)
	}
	return nil
}

func (r *assetRepository) ListRowSamples(ctx context.Context, sheetID int64) ([]domain.RowSample, error) {
	rows, err := r.pool.Query(
		ctx,
		`SELECT id, sheet_id, `+sampleColumns+`
		 FROM sheet_row_samples WHERE sheet_id = $1
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

func (r *assetRepository) Stats(ctx context.Context) (domain.CatalogStats, error) {
	var stats domain.CatalogStats
	err := r.pool.QueryRow(ctx, statsQuery).Scan(
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

const statsQuery = `SELECT
	(SELECT COUNT(*) FROM file_assets),
	(SELECT COUNT(*) FROM sheet_metadata),
	(SELECT COUNT(*) FROM sheet_row_samples),
	(SELECT COUNT(*) FROM audit_records)`
