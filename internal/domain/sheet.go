package domain

import "unicode/utf8"

const (
	// SampleWidth is the fixed number of column slots stored per sampled row.
	SampleWidth = 10
	// MaxCellLength caps every stored cell value, in characters.
	MaxCellLength = 255
	// NullMarker fills slots that have no cell value behind them.
	NullMarker = "NULL"
)

// SheetMetadata records the extent of one worksheet. (FileAssetID, Name) is unique.
type SheetMetadata struct {
	ID           int64  `json:"id"`
	FileAssetID  int64  `json:"file_asset_id"`
	Name         string `json:"name"`
	TotalColumns int    `json:"total_columns"`
	TotalRows    int    `json:"total_rows"`
}

// Truncated reports whether the sheet is wider than the sampling width.
func (s SheetMetadata) Truncated() bool {
	return s.TotalColumns > SampleWidth
}

// RowSample is one sampled row of a sheet. (SheetID, RowNumber) is unique.
//
// RowNumber is 1-based. The first row of a sheet is the header row and has
// IsDataRow == false; it is persisted as is_row = "no".
type RowSample struct {
	ID          int64               `json:"id"`
	SheetID     int64               `json:"sheet_id"`
	SheetName   string              `json:"sheet_name"`
	ColumnCount int                 `json:"column_count"`
	RowNumber   int                 `json:"row_number"`
	IsDataRow   bool                `json:"is_data_row"`
	Values      [SampleWidth]string `json:"values"`
	IsTruncated bool                `json:"is_truncated"`
}

// NewRowSample fills the fixed-width value slots from cells. Cells past the
// sampling width are dropped, missing or empty cells become NullMarker and
// every value is capped at MaxCellLength characters.
func NewRowSample(sheet SheetMetadata, rowIndex int, cells []string) RowSample {
	sample := RowSample{
		SheetID:     sheet.ID,
		SheetName:   sheet.Name,
		ColumnCount: sheet.TotalColumns,
		RowNumber:   rowIndex + 1,
		IsDataRow:   rowIndex != 0,
		IsTruncated: sheet.Truncated(),
	}
	for i := range sample.Values {
		if i >= len(cells) || cells[i] == "" {
			sample.Values[i] = NullMarker
			continue
		}
		sample.Values[i] = TruncateCell(cells[i])
	}
	return sample
}

// TruncateCell shortens value to MaxCellLength characters without splitting runes.
func TruncateCell(value string) string {
	if utf8.RuneCountInString(value) <= MaxCellLength {
		return value
	}
	runes := []rune(value)
	return string(runes[:MaxCellLength])
}

// YesNo renders a flag the way the row sample table stores it.
func YesNo(flag bool) string {
	if flag {
		return "yes"
	}
	return "no"
}

// ParseYesNo is the inverse of YesNo.
func ParseYesNo(value string) bool {
	return value == "yes"
}
