package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rpattn/assetscan/internal/classifier"
	"github.com/rpattn/assetscan/internal/host"
	"github.com/rpattn/assetscan/internal/ingestion"
	"github.com/rpattn/assetscan/internal/logging"
	"github.com/rpattn/assetscan/internal/repository"
	"github.com/rpattn/assetscan/internal/scanner"
	"github.com/rpattn/assetscan/internal/spreadsheet"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type staticVolumes []host.Volume

func (v staticVolumes) Volumes(ctx context.Context) []host.Volume {
	return v
}

func writeReport(t *testing.T, path string) {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	require.NoError(t, f.SetSheetName("Sheet1", "Data"))
	require.NoError(t, f.SetSheetRow("Data", "A1", &[]interface{}{"id", "name", "qty", "price"}))
	require.NoError(t, f.SetSheetRow("Data", "A2", &[]interface{}{"1", "widget", "4", "9.50"}))

	_, err := f.NewSheet("Notes")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Notes", "A1", "reviewed"))

	require.NoError(t, f.SaveAs(path))
}

func newRunner(t *testing.T, store *repository.Store, logger logging.Logger, volumes VolumeSource) *Runner {
	t.Helper()
	var service *ingestion.Service
	if store != nil {
		service = ingestion.NewService(store.Assets, store.Audits, logger)
	} else {
		service = ingestion.NewService(nil, nil, logger)
	}

	sc := scanner.New(scanner.Options{Extensions: []string{".xlsx", ".csv"}, RecencyDays: 30}, classifier.New([]string{"password"}), logger)
	in := spreadsheet.NewIntrospector(2, []string{".xlsx", ".csv"})

	return NewRunner(uuid.New(), volumes, sc, in, service, logger).
		WithAddress(func(context.Context) string { return "192.0.2.10" })
}

func newStore(t *testing.T) *repository.Store {
	t.Helper()
	store, err := repository.OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store
}

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	writeReport(t, filepath.Join(dir, "report.xlsx"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "passwords.csv"), []byte("user,pass\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.md"), []byte("hi"), 0o644))

	store := newStore(t)
	logger := &logging.Recorder{}
	runner := newRunner(t, store, logger, staticVolumes(nil))

	ctx := context.Background()
	start := time.Now().Add(-time.Second)
	report := runner.Run(ctx, Selection{Mode: ModePath, Root: dir}, start)

	require.NoError(t, report.SelectionErr)
	assert.Zero(t, logger.ErrorCount(), "errors: %v", logger.Errors)
	assert.Equal(t, 1, report.Assets)
	assert.Equal(t, 1, report.Workbooks)
	assert.Equal(t, 1, report.Counts[scanner.ExcludedSensitive])
	assert.Equal(t, 1, report.Counts[scanner.ExcludedExtension])
	assert.Equal(t, 2, report.Persisted.SheetsRecorded)
	assert.Equal(t, 3, report.Persisted.RowsRecorded)
	assert.True(t, report.Persisted.AuditRecorded)

	stats, err := store.Assets.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.FileAssets)
	assert.Equal(t, int64(2), stats.Sheets)
	assert.Equal(t, int64(3), stats.RowSamples)
	assert.Equal(t, int64(1), stats.AuditRecords)

	sheets, err := store.Assets.ListSheets(ctx, filepath.Join(dir, "report.xlsx"))
	require.NoError(t, err)
	require.Len(t, sheets, 2)

	audits, err := store.Audits.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, audits, 1)
	assert.Equal(t, report.RunID, audits[0].RunID)
	assert.Equal(t, "192.0.2.10", audits[0].Address)
}

func TestRunTwiceIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeReport(t, filepath.Join(dir, "report.xlsx"))

	store := newStore(t)
	runner := newRunner(t, store, logging.NewNullLogger(), staticVolumes(nil))
	ctx := context.Background()

	runner.Run(ctx, Selection{Mode: ModePath, Root: dir}, time.Now())
	runner.Run(ctx, Selection{Mode: ModePath, Root: dir}, time.Now())

	stats, err := store.Assets.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.FileAssets)
	assert.Equal(t, int64(2), stats.Sheets)
	assert.Equal(t, int64(3), stats.RowSamples)
	assert.Equal(t, int64(2), stats.AuditRecords, "every run appends its own audit record")
}

func TestRunInvalidSelectionStillAudits(t *testing.T) {
	store := newStore(t)
	logger := &logging.Recorder{}
	volumes := staticVolumes{{Device: "/dev/sda1", Mountpoint: t.TempDir(), FSType: "ext4"}}
	runner := newRunner(t, store, logger, volumes)

	report := runner.Run(context.Background(), Selection{Mode: ModeVolume, Volume: "7"}, time.Now())

	assert.ErrorIs(t, report.SelectionErr, ErrInvalidSelection)
	assert.Empty(t, report.Roots)
	assert.Zero(t, report.Assets)
	assert.True(t, report.Persisted.AuditRecorded)
	assert.Equal(t, 1, logger.ErrorCount())

	stats, err := store.Assets.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.FileAssets)
	assert.Equal(t, int64(1), stats.AuditRecords)
}

func TestRunVolumeSelection(t *testing.T) {
	dir := t.TempDir()
	writeReport(t, filepath.Join(dir, "report.xlsx"))

	store := newStore(t)
	volumes := staticVolumes{
		{Device: "/dev/sda1", Mountpoint: t.TempDir(), FSType: "ext4"},
		{Device: "/dev/sdb1", Mountpoint: dir, FSType: "ext4"},
	}
	runner := newRunner(t, store, logging.NewNullLogger(), volumes)

	report := runner.Run(context.Background(), Selection{Mode: ModeVolume, Volume: "2"}, time.Now())

	assert.Equal(t, []string{dir}, report.Roots)
	assert.Equal(t, 1, report.Assets)
}

func TestRunWithoutStoreWritesNothing(t *testing.T) {
	dir := t.TempDir()
	writeReport(t, filepath.Join(dir, "report.xlsx"))

	runner := newRunner(t, nil, logging.NewNullLogger(), staticVolumes(nil))
	report := runner.Run(context.Background(), Selection{Mode: ModePath, Root: dir}, time.Now())

	assert.Equal(t, 1, report.Assets)
	assert.Equal(t, ingestion.Summary{}, report.Persisted)
}

func TestRunCancelledStillAudits(t *testing.T) {
	dir := t.TempDir()
	writeReport(t, filepath.Join(dir, "report.xlsx"))

	store := newStore(t)
	runner := newRunner(t, store, logging.NewNullLogger(), staticVolumes(nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report := runner.Run(ctx, Selection{Mode: ModePath, Root: dir}, time.Now())

	assert.True(t, report.Interrupted)
	assert.True(t, report.Persisted.AuditRecorded)

	stats, err := store.Assets.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.FileAssets)
	assert.Equal(t, int64(1), stats.AuditRecords)
}

func TestRunNestedVolumesRecordEachFileOnce(t *testing.T) {
	outer := t.TempDir()
	inner := filepath.Join(outer, "home")
	require.NoError(t, os.MkdirAll(inner, 0o755))
	writeReport(t, filepath.Join(inner, "report.xlsx"))

	store := newStore(t)
	volumes := staticVolumes{
		{Device: "/dev/sda1", Mountpoint: outer, FSType: "ext4"},
		{Device: "/dev/sda2", Mountpoint: inner, FSType: "ext4"},
	}
	runner := newRunner(t, store, logging.NewNullLogger(), volumes)

	report := runner.Run(context.Background(), Selection{Mode: ModeFull}, time.Now())

	assert.Equal(t, 1, report.Assets)
	assert.Equal(t, 1, report.Duplicates)
	assert.Equal(t, 1, report.Workbooks)
	assert.Equal(t, 2, report.Persisted.SheetsRecorded)
	assert.Equal(t, 3, report.Persisted.RowsRecorded)
}
