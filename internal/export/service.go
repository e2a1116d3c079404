// Package export writes the file asset catalog to CSV.
package export

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rpattn/assetscan/internal/domain"
	"github.com/rpattn/assetscan/internal/logging"
	"github.com/rpattn/assetscan/internal/repository"
)

var headers = []string{
	"id",
	"file_path",
	"file_size",
	"file_name",
	"file_extension",
	"modification_time",
	"access_time",
	"creation_time",
}

// Result describes a finished export.
type Result struct {
	Path         string
	RowsExported int
	BytesWritten int64
}

// Service streams file assets from the repository into CSV files.
type Service struct {
	assets   repository.AssetRepository
	logger   logging.Logger
	dir      string
	pageSize int
	now      func() time.Time
}

type Option func(*Service)

func WithExportDirectory(dir string) Option {
	return func(s *Service) {
		if strings.TrimSpace(dir) != "" {
			s.dir = filepath.Clean(dir)
		}
	}
}

func WithPageSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

// WithClock overrides the time used to name export files.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates an exporter writing to the current directory in pages
// of 1000 assets unless overridden.
func NewService(assets repository.AssetRepository, logger logging.Logger, opts ...Option) *Service {
	s := &Service{
		assets:   assets,
		logger:   logger,
		dir:      ".",
		pageSize: 1000,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExportAssets writes every file asset to <dir>/<name>-<timestamp>.csv. The
// file is written under a temporary name and renamed once complete, so a
// failed export leaves nothing behind.
func (s *Service) ExportAssets(ctx context.Context, name string) (Result, error) {
	if err := s.ensureExportDirectory(); err != nil {
		return Result{}, err
	}

	tempFile, err := os.CreateTemp(s.dir, "assets-*.csv.tmp")
	if err != nil {
		return Result{}, fmt.Errorf("create temp export file: %w", err)
	}
	tempPath := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = tempFile.Close()
			_ = os.Remove(tempPath)
		}
	}()

	buffered := bufio.NewWriterSize(tempFile, 1<<20)
	counter := &countingWriter{writer: buffered}
	csvWriter := csv.NewWriter(counter)

	if err := csvWriter.Write(headers); err != nil {
		return Result{}, fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(headers))
	rowsExported := 0
	for offset := 0; ; offset += s.pageSize {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		assets, err := s.assets.ListFileAssets(ctx, s.pageSize, offset)
		if err != nil {
			return Result{}, fmt.Errorf("list file assets: %w", err)
		}
		for _, asset := range assets {
			assetRow(row, asset)
			if err := csvWriter.Write(row); err != nil {
				return Result{}, fmt.Errorf("write asset row: %w", err)
			}
			rowsExported++
		}
		csvWriter.Flush()
		if err := csvWriter.Error(); err != nil {
			return Result{}, fmt.Errorf("flush rows: %w", err)
		}
		if len(assets) < s.pageSize {
			break
		}
	}

	if err := buffered.Flush(); err != nil {
		return Result{}, fmt.Errorf("final buffered flush: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		return Result{}, fmt.Errorf("sync export file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return Result{}, fmt.Errorf("close export file: %w", err)
	}

	finalPath := filepath.Join(s.dir, s.finalFileName(name))
	if err := os.Rename(tempPath, finalPath); err != nil {
		return Result{}, fmt.Errorf("promote export file: %w", err)
	}
	cleanup = false

	s.logger.Verbose("[export] wrote %d assets to %s", rowsExported, finalPath)
	return Result{Path: finalPath, RowsExported: rowsExported, BytesWritten: counter.count}, nil
}

func (s *Service) ensureExportDirectory() error {
	if strings.TrimSpace(s.dir) == "" {
		return errors.New("export directory is not configured")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("ensure export directory: %w", err)
	}
	return nil
}

func (s *Service) finalFileName(name string) string {
	base := sanitizeFileComponent(name)
	if base == "" {
		base = "file-assets"
	}
	return fmt.Sprintf("%s-%s.csv", base, s.now().UTC().Format("20060102T150405Z"))
}

func assetRow(row []string, asset domain.FileAsset) {
	row[0] = strconv.FormatInt(asset.ID, 10)
	row[1] = asset.Path
	row[2] = strconv.FormatInt(asset.Size, 10)
	row[3] = asset.Name
	row[4] = asset.Extension
	row[5] = formatTime(asset.ModifiedAt)
	row[6] = formatTime(asset.AccessedAt)
	row[7] = formatTime(asset.CreatedAt)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func sanitizeFileComponent(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	builder := strings.Builder{}
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z':
			builder.WriteRune(r)
		case r >= '0' && r <= '9':
			builder.WriteRune(r)
		case r == '-' || r == '_':
			builder.WriteRune(r)
		default:
			builder.WriteRune('-')
		}
	}
	return strings.Trim(builder.String(), "-")
}

type countingWriter struct {
	writer *bufio.Writer
	count  int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.writer.Write(p)
	c.count += int64(n)
	return n, err
}
