package export

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rpattn/assetscan/internal/domain"
	"github.com/rpattn/assetscan/internal/logging"
	"github.com/rpattn/assetscan/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var exportTime = time.Date(2026, 4, 9, 14, 30, 0, 0, time.UTC)

func seededStore(t *testing.T, count int) *repository.Store {
	t.Helper()
	ctx := context.Background()
	store, err := repository.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(store.Close)

	for i := 0; i < count; i++ {
		path := filepath.Join("/share", "file-"+string(rune('a'+i))+".csv")
		_, err := store.Assets.UpsertFileAsset(ctx, domain.NewFileAsset(path, int64(i), exportTime, exportTime, exportTime))
		require.NoError(t, err)
	}
	return store
}

func TestExportAssetsPagesThroughCatalog(t *testing.T) {
	dir := t.TempDir()
	store := seededStore(t, 5)

	service := NewService(store.Assets, logging.NewNullLogger(),
		WithExportDirectory(dir),
		WithPageSize(2),
		WithClock(func() time.Time { return exportTime }),
	)

	result, err := service.ExportAssets(context.Background(), "Q2 Catalog!")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "q2-catalog-20260409T143000Z.csv"), result.Path)
	assert.Equal(t, 5, result.RowsExported)

	f, err := os.Open(result.Path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 6)
	assert.Equal(t, headers, records[0])
	assert.Equal(t, "/share/file-a.csv", records[1][1])
	assert.Equal(t, "2026-04-09T14:30:00Z", records[1][5])

	info, err := os.Stat(result.Path)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), result.BytesWritten)
}

func TestExportAssetsEmptyCatalog(t *testing.T) {
	dir := t.TempDir()
	service := NewService(seededStore(t, 0).Assets, logging.NewNullLogger(), WithExportDirectory(dir))

	result, err := service.ExportAssets(context.Background(), "")
	require.NoError(t, err)
	assert.Zero(t, result.RowsExported)
	assert.Contains(t, filepath.Base(result.Path), "file-assets-")
}

func TestExportAssetsFailureLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	service := NewService(failingAssets{}, logging.NewNullLogger(), WithExportDirectory(dir))

	_, err := service.ExportAssets(context.Background(), "broken")
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSanitizeFileComponent(t *testing.T) {
	assert.Equal(t, "weekly_report-v2", sanitizeFileComponent(" Weekly_Report v2 "))
	assert.Equal(t, "", sanitizeFileComponent("!!!"))
}

type failingAssets struct {
	repository.AssetRepository
}

func (failingAssets) ListFileAssets(ctx context.Context, limit, offset int) ([]domain.FileAsset, error) {
	return nil, errors.New("connection refused")
}
