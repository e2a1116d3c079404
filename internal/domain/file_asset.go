package domain

import (
	"path/filepath"
	"time"
)

// FileAsset describes a discovered file. Path is the natural key.
type FileAsset struct {
	ID         int64     `json:"id"`
	Path       string    `json:"path"`
	Size       int64     `json:"size"`
	Name       string    `json:"name"`
	Extension  string    `json:"extension"`
	ModifiedAt time.Time `json:"modified_at"`
	AccessedAt time.Time `json:"accessed_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewFileAsset builds an asset for path, deriving the base name and extension.
func NewFileAsset(path string, size int64, modified, accessed, created time.Time) FileAsset {
	name := filepath.Base(path)
	return FileAsset{
		Path:       path,
		Size:       size,
		Name:       name,
		Extension:  filepath.Ext(name),
		ModifiedAt: modified,
		AccessedAt: accessed,
		CreatedAt:  created,
	}
}

// CatalogStats summarizes how many rows each table holds.
type CatalogStats struct {
	FileAssets   int64 `json:"file_assets"`
	Sheets       int64 `json:"sheets"`
	RowSamples   int64 `json:"row_samples"`
	AuditRecords int64 `json:"audit_records"`
}
