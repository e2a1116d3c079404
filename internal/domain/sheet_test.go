package domain

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRowSamplePadsNarrowRows(t *testing.T) {
	sheet := SheetMetadata{ID: 7, Name: "Data", TotalColumns: 3, TotalRows: 5}

	header := NewRowSample(sheet, 0, []string{"a", "b", "c"})
	assert.Equal(t, int64(7), header.SheetID)
	assert.Equal(t, 1, header.RowNumber)
	assert.False(t, header.IsDataRow)
	assert.False(t, header.IsTruncated)
	assert.Equal(t, [SampleWidth]string{"a", "b", "c", NullMarker, NullMarker, NullMarker, NullMarker, NullMarker, NullMarker, NullMarker}, header.Values)

	data := NewRowSample(sheet, 2, []string{"1", "", "3"})
	assert.Equal(t, 3, data.RowNumber)
	assert.True(t, data.IsDataRow)
	assert.Equal(t, NullMarker, data.Values[1])
}

func TestNewRowSampleFlagsWideSheets(t *testing.T) {
	sheet := SheetMetadata{Name: "Wide", TotalColumns: 15, TotalRows: 2}

	cells := make([]string, 15)
	for i := range cells {
		cells[i] = strings.Repeat("x", i+1)
	}
	sample := NewRowSample(sheet, 1, cells)
	assert.True(t, sample.IsTruncated)
	assert.Equal(t, strings.Repeat("x", 10), sample.Values[9])

	sparse := NewRowSample(sheet, 1, []string{"only"})
	assert.True(t, sparse.IsTruncated, "flag follows the sheet width, not the row")
}

func TestTruncateCell(t *testing.T) {
	long := strings.Repeat("é", 300)
	got := TruncateCell(long)
	require.True(t, utf8.ValidString(got))
	assert.Equal(t, MaxCellLength, utf8.RuneCountInString(got))
	assert.Equal(t, "short", TruncateCell("short"))
}

func TestYesNo(t *testing.T) {
	assert.Equal(t, "yes", YesNo(true))
	assert.Equal(t, "no", YesNo(false))
	assert.True(t, ParseYesNo("yes"))
	assert.False(t, ParseYesNo("no"))
}
