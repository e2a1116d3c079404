package ingestion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rpattn/assetscan/internal/domain"
	"github.com/rpattn/assetscan/internal/logging"
	"github.com/rpattn/assetscan/internal/repository"
	"github.com/rpattn/assetscan/internal/spreadsheet"

	"github.com/google/uuid"
)

func TestRecordAssetsContinuesAfterFailure(t *testing.T) {
	assetRepo := &stubAssetRepo{failPaths: map[string]bool{"/data/b.csv": true}}
	logger := &logging.Recorder{}
	service := NewService(assetRepo, &stubAuditRepo{}, logger)

	assets := []domain.FileAsset{
		domain.NewFileAsset("/data/a.csv", 1, time.Now(), time.Now(), time.Now()),
		domain.NewFileAsset("/data/b.csv", 2, time.Now(), time.Now(), time.Now()),
		domain.NewFileAsset("/data/c.csv", 3, time.Now(), time.Now(), time.Now()),
	}

	summary := service.RecordAssets(context.Background(), assets)

	if summary.AssetsRecorded != 2 || summary.AssetsFailed != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(assetRepo.assets) != 2 {
		t.Fatalf("expected 2 stored assets, got %d", len(assetRepo.assets))
	}
	if logger.ErrorCount() != 1 {
		t.Fatalf("expected one logged error, got %v", logger.Errors)
	}
}

func TestRecordWorkbookCarriesSheetID(t *testing.T) {
	assetRepo := &stubAssetRepo{}
	service := NewService(assetRepo, &stubAuditRepo{}, logging.NewNullLogger())

	ctx := context.Background()
	path := "/data/report.xlsx"
	service.RecordAssets(ctx, []domain.FileAsset{domain.NewFileAsset(path, 10, time.Now(), time.Now(), time.Now())})

	data := domain.SheetMetadata{Name: "Data", TotalColumns: 4, TotalRows: 2}
	notes := domain.SheetMetadata{Name: "Notes", TotalColumns: 1, TotalRows: 1}
	wb := spreadsheet.Workbook{Path: path, Sheets: []spreadsheet.Sheet{
		{Meta: data, Samples: []domain.RowSample{
			domain.NewRowSample(data, 0, []string{"a", "b", "c", "d"}),
			domain.NewRowSample(data, 1, []string{"1", "2", "3", "4"}),
		}},
		{Meta: notes, Samples: []domain.RowSample{
			domain.NewRowSample(notes, 0, []string{"only"}),
		}},
	}}

	summary := service.RecordWorkbook(ctx, path, wb)

	if summary.SheetsRecorded != 2 || summary.RowsRecorded != 3 || summary.Failures() != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	for _, sample := range assetRepo.samples {
		want := assetRepo.sheetIDs[sample.SheetName]
		if sample.SheetID != want {
			t.Fatalf("row %d of %s bound to sheet %d, want %d", sample.RowNumber, sample.SheetName, sample.SheetID, want)
		}
	}
}

func TestRecordWorkbookSkipsRowsOfFailedSheet(t *testing.T) {
	logger := &logging.Recorder{}
	service := NewService(&stubAssetRepo{}, &stubAuditRepo{}, logger)

	sheet := domain.SheetMetadata{Name: "Orphan", TotalColumns: 1, TotalRows: 1}
	wb := spreadsheet.Workbook{Sheets: []spreadsheet.Sheet{
		{Meta: sheet, Samples: []domain.RowSample{domain.NewRowSample(sheet, 0, []string{"x"})}},
	}}

	summary := service.RecordWorkbook(context.Background(), "/never/recorded.xlsx", wb)

	if summary.SheetsFailed != 1 || summary.RowsFailed != 1 || summary.RowsRecorded != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if logger.ErrorCount() != 1 {
		t.Fatalf("expected one logged error, got %v", logger.Errors)
	}
}

func TestRecordAudit(t *testing.T) {
	auditRepo := &stubAuditRepo{}
	service := NewService(&stubAssetRepo{}, auditRepo, logging.NewNullLogger())

	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	record := domain.NewAuditRecord(uuid.New(), "10.0.0.5", start, start.Add(90*time.Second))

	if err := service.RecordAudit(context.Background(), record); err != nil {
		t.Fatalf("record audit returned error: %v", err)
	}
	if len(auditRepo.records) != 1 {
		t.Fatalf("expected 1 audit record, got %d", len(auditRepo.records))
	}
	if auditRepo.records[0].Duration != 90*time.Second {
		t.Fatalf("unexpected duration %s", auditRepo.records[0].Duration)
	}

	auditRepo.err = errors.New("connection reset")
	if err := service.RecordAudit(context.Background(), record); err == nil {
		t.Fatalf("expected error when the audit insert fails")
	}
}

func TestServiceWithoutStoreWritesNothing(t *testing.T) {
	service := NewService(nil, nil, logging.NewNullLogger())
	ctx := context.Background()

	if service.Available() {
		t.Fatalf("service without repositories must not report availability")
	}

	summary := service.RecordAssets(ctx, []domain.FileAsset{{Path: "/x.csv"}})
	summary.Add(service.RecordWorkbook(ctx, "/x.csv", spreadsheet.Workbook{Sheets: []spreadsheet.Sheet{{}}}))
	if summary != (Summary{}) {
		t.Fatalf("expected zero summary, got %+v", summary)
	}
	if err := service.RecordAudit(ctx, domain.AuditRecord{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	stats, err := service.Stats(ctx)
	if err != nil || stats != (domain.CatalogStats{}) {
		t.Fatalf("unexpected stats %+v, err %v", stats, err)
	}
}

type stubAssetRepo struct {
	failPaths map[string]bool
	assets    map[string]domain.FileAsset
	sheetIDs  map[string]int64
	samples   []domain.RowSample
	nextID    int64
}

func (s *stubAssetRepo) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *stubAssetRepo) UpsertFileAsset(ctx context.Context, asset domain.FileAsset) (int64, error) {
	if s.failPaths[asset.Path] {
		return 0, errors.New("disk full")
	}
	if s.assets == nil {
		s.assets = make(map[string]domain.FileAsset)
	}
	if existing, ok := s.assets[asset.Path]; ok {
		asset.ID = existing.ID
	} else {
		asset.ID = s.id()
	}
	s.assets[asset.Path] = asset
	return asset.ID, nil
}

func (s *stubAssetRepo) GetFileAsset(ctx context.Context, path string) (domain.FileAsset, error) {
	asset, ok := s.assets[path]
	if !ok {
		return domain.FileAsset{}, repository.ErrFileAssetNotFound
	}
	return asset, nil
}

func (s *stubAssetRepo) ListFileAssets(ctx context.Context, limit, offset int) ([]domain.FileAsset, error) {
	return nil, nil
}

func (s *stubAssetRepo) UpsertSheet(ctx context.Context, filePath string, sheet domain.SheetMetadata) (int64, error) {
	if _, ok := s.assets[filePath]; !ok {
		return 0, repository.ErrFileAssetNotFound
	}
	if s.sheetIDs == nil {
		s.sheetIDs = make(map[string]int64)
	}
	id := s.id()
	s.sheetIDs[sheet.Name] = id
	return id, nil
}

func (s *stubAssetRepo) ListSheets(ctx context.Context, filePath string) ([]domain.SheetMetadata, error) {
	return nil, nil
}

func (s *stubAssetRepo) UpsertRowSample(ctx context.Context, sample domain.RowSample) error {
	s.samples = append(s.samples, sample)
	return nil
}

func (s *stubAssetRepo) ListRowSamples(ctx context.Context, sheetID int64) ([]domain.RowSample, error) {
	return nil, nil
}

func (s *stubAssetRepo) Stats(ctx context.Context) (domain.CatalogStats, error) {
	return domain.CatalogStats{FileAssets: int64(len(s.assets))}, nil
}

type stubAuditRepo struct {
	records []domain.AuditRecord
	err     error
}

func (s *stubAuditRepo) Append(ctx context.Context, record domain.AuditRecord) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, record)
	return nil
}

func (s *stubAuditRepo) List(ctx context.Context, limit int) ([]domain.AuditRecord, error) {
	return s.records, nil
}
