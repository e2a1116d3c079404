// Package ingestion maps scan results onto repository writes.
package ingestion

import (
	"context"
	"fmt"

	"github.com/rpattn/assetscan/internal/domain"
	"github.com/rpattn/assetscan/internal/logging"
	"github.com/rpattn/assetscan/internal/repository"
	"github.com/rpattn/assetscan/internal/spreadsheet"
)

// Service records assets, workbook structure and audit records. Failures are
// logged once and never abort the rest of a batch.
type Service struct {
	assets repository.AssetRepository
	audits repository.AuditRepository
	logger logging.Logger
}

// NewService creates a new ingestion service. Nil repositories make the
// corresponding operations write nothing.
func NewService(
	assets repository.AssetRepository,
	audits repository.AuditRepository,
	logger logging.Logger,
) *Service {
	return &Service{
		assets: assets,
		audits: audits,
		logger: logger,
	}
}

// Summary counts persisted rows and failures for one run.
type Summary struct {
	AssetsRecorded int  `json:"assetsRecorded"`
	AssetsFailed   int  `json:"assetsFailed"`
	SheetsRecorded int  `json:"sheetsRecorded"`
	SheetsFailed   int  `json:"sheetsFailed"`
	RowsRecorded   int  `json:"rowsRecorded"`
	RowsFailed     int  `json:"rowsFailed"`
	AuditRecorded  bool `json:"auditRecorded"`
}

// Failures is the total number of failed writes.
func (s Summary) Failures() int {
	return s.AssetsFailed + s.SheetsFailed + s.RowsFailed
}

// Add merges other into s.
func (s *Summary) Add(other Summary) {
	s.AssetsRecorded += other.AssetsRecorded
	s.AssetsFailed += other.AssetsFailed
	s.SheetsRecorded += other.SheetsRecorded
	s.SheetsFailed += other.SheetsFailed
	s.RowsRecorded += other.RowsRecorded
	s.RowsFailed += other.RowsFailed
	s.AuditRecorded = s.AuditRecorded || other.AuditRecorded
}

// Available reports whether the service has a store to write to.
func (s *Service) Available() bool {
	return s.assets != nil && s.audits != nil
}

// RecordAssets upserts every asset by path.
func (s *Service) RecordAssets(ctx context.Context, assets []domain.FileAsset) Summary {
	var summary Summary
	if s.assets == nil {
		return summary
	}

	for _, asset := range assets {
		if _, err := s.assets.UpsertFileAsset(ctx, asset); err != nil {
			s.logger.Error("Error inserting or updating data for %s: %v", asset.Path, err)
			summary.AssetsFailed++
			continue
		}
		summary.AssetsRecorded++
	}
	return summary
}

// RecordWorkbook upserts each sheet of wb under the asset stored at path,
// then the sheet's row samples under the returned sheet id. A sheet that
// fails to persist skips its rows only.
func (s *Service) RecordWorkbook(ctx context.Context, path string, wb spreadsheet.Workbook) Summary {
	var summary Summary
	if s.assets == nil {
		return summary
	}

	for _, sheet := range wb.Sheets {
		sheetID, err := s.assets.UpsertSheet(ctx, path, sheet.Meta)
		if err != nil {
			s.logger.Error("Error inserting sheet %q of %s: %v", sheet.Meta.Name, path, err)
			summary.SheetsFailed++
			summary.RowsFailed += len(sheet.Samples)
			continue
		}
		summary.SheetsRecorded++

		for _, sample := range sheet.Samples {
			sample.SheetID = sheetID
			if err := s.assets.UpsertRowSample(ctx, sample); err != nil {
				s.logger.Error("Error inserting row %d of sheet %q in %s: %v", sample.RowNumber, sample.SheetName, path, err)
				summary.RowsFailed++
				continue
			}
			summary.RowsRecorded++
		}
	}
	return summary
}

// RecordAudit appends the run's audit record.
func (s *Service) RecordAudit(ctx context.Context, record domain.AuditRecord) error {
	if s.audits == nil {
		return nil
	}
	if err := s.audits.Append(ctx, record); err != nil {
		s.logger.Error("Error inserting audit record for run %s: %v", record.RunID, err)
		return fmt.Errorf("failed to append audit record: %w", err)
	}
	return nil
}

// Stats returns the store's row counts. A service without a store reports zeros.
func (s *Service) Stats(ctx context.Context) (domain.CatalogStats, error) {
	if s.assets == nil {
		return domain.CatalogStats{}, nil
	}
	stats, err := s.assets.Stats(ctx)
	if err != nil {
		return domain.CatalogStats{}, fmt.Errorf("failed to read catalog stats: %w", err)
	}
	return stats, nil
}
