// Package spreadsheet reads workbook structure and a fixed-width sample of
// leading rows from each sheet.
package spreadsheet

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/rpattn/assetscan/internal/domain"

	"github.com/extrame/xls"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedFormat is returned for extensions the introspector cannot read.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	errNoSheets = errors.New("workbook has no sheets")

	byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

	excelExtensions = map[string]struct{}{
		".xlsx": {},
		".xlsm": {},
		".xltx": {},
		".xltm": {},
	}
)

// Sheet is one worksheet's extent and its sampled leading rows. Samples are
// not yet bound to a stored sheet; their SheetID is zero.
type Sheet struct {
	Meta    domain.SheetMetadata
	Samples []domain.RowSample
}

// Workbook is the introspection result for one file.
type Workbook struct {
	Path   string
	Sheets []Sheet
}

// RowSampleCount returns the number of sampled rows across all sheets.
func (w Workbook) RowSampleCount() int {
	total := 0
	for _, sheet := range w.Sheets {
		total += len(sheet.Samples)
	}
	return total
}

// Introspector samples spreadsheets.
type Introspector struct {
	minRows    int
	extensions map[string]struct{}
}

// NewIntrospector creates an introspector that samples up to minRows rows per
// sheet and handles files whose extension is in extensions.
func NewIntrospector(minRows int, extensions []string) *Introspector {
	set := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		set[strings.ToLower(strings.TrimSpace(ext))] = struct{}{}
	}
	return &Introspector{minRows: minRows, extensions: set}
}

// Supports reports whether path has one of the configured spreadsheet extensions.
func (i *Introspector) Supports(path string) bool {
	_, ok := i.extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// IntrospectFile introspects a file on the host filesystem.
func (i *Introspector) IntrospectFile(path string) (Workbook, error) {
	wb, err := i.Introspect(osfs.New(filepath.Dir(path)), filepath.Base(path))
	wb.Path = path
	return wb, err
}

// Introspect reads every sheet of the workbook at path within fsys.
func (i *Introspector) Introspect(fsys billy.Filesystem, path string) (Workbook, error) {
	wb := Workbook{Path: path}

	ext := strings.ToLower(filepath.Ext(path))
	_, isExcel := excelExtensions[ext]
	if !isExcel && ext != ".csv" && ext != ".xls" {
		return wb, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	f, err := fsys.Open(path)
	if err != nil {
		return wb, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if ext == ".csv" {
		records, err := readCSV(f)
		if err != nil {
			return wb, fmt.Errorf("failed to read %s: %w", path, err)
		}
		wb.Sheets = []Sheet{i.sample(filepath.Base(path), records)}
		return wb, nil
	}

	read := i.readExcel
	if ext == ".xls" {
		read = i.readXLS
	}
	sheets, err := read(f)
	if err != nil {
		return wb, fmt.Errorf("failed to read %s: %w", path, err)
	}
	wb.Sheets = sheets
	return wb, nil
}

func (i *Introspector) readExcel(r io.ReadSeeker) ([]Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	names := f.GetSheetList()
	if len(names) == 0 {
		return nil, errNoSheets
	}

	sheets := make([]Sheet, 0, len(names))
	for _, name := range names {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read rows from sheet %q: %w", name, err)
		}
		sheets = append(sheets, i.sample(name, rows))
	}
	return sheets, nil
}

// readXLS reads a legacy BIFF workbook. The reader panics on malformed
// streams rather than returning errors, so panics become errors here.
func (i *Introspector) readXLS(r io.ReadSeeker) (sheets []Sheet, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			sheets, err = nil, fmt.Errorf("failed to parse workbook: %v", rec)
		}
	}()

	book, err := xls.OpenReader(r, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	if book == nil || book.NumSheets() == 0 {
		return nil, errNoSheets
	}

	sheets = make([]Sheet, 0, book.NumSheets())
	for idx := 0; idx < book.NumSheets(); idx++ {
		sheet := book.GetSheet(idx)
		if sheet == nil {
			continue
		}
		rows := make([][]string, 0, int(sheet.MaxRow)+1)
		for r := 0; r <= int(sheet.MaxRow); r++ {
			rows = append(rows, xlsCells(sheet, r))
		}
		sheets = append(sheets, i.sample(sheet.Name, trimRows(rows)))
	}
	return sheets, nil
}

// xlsCells returns the cells of row r, or nil when the sheet never defined
// it. WorkSheet.Row dereferences missing rows.
func xlsCells(sheet *xls.WorkSheet, r int) (cells []string) {
	defer func() {
		if recover() != nil {
			cells = nil
		}
	}()

	row := sheet.Row(r)
	cells = make([]string, 0, row.LastCol())
	for c := 0; c < row.LastCol(); c++ {
		cells = append(cells, row.Col(c))
	}
	return cells
}

// trimRows drops trailing empty cells from each row and trailing empty rows
// from the sheet, matching how the xlsx reader reports extents.
func trimRows(rows [][]string) [][]string {
	for idx, row := range rows {
		end := len(row)
		for end > 0 && row[end-1] == "" {
			end--
		}
		rows[idx] = row[:end]
	}
	end := len(rows)
	for end > 0 && len(rows[end-1]) == 0 {
		end--
	}
	return rows[:end]
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := bufio.NewReader(r)
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1
	csvReader.LazyQuotes = true

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return records, nil
}

// sample records the sheet extent and builds samples for the first
// min(minRows, total rows) rows. Row index 0 is the header row.
func (i *Introspector) sample(name string, rows [][]string) Sheet {
	meta := domain.SheetMetadata{
		Name:         name,
		TotalRows:    len(rows),
		TotalColumns: columnCount(rows),
	}

	limit := min(i.minRows, len(rows))
	samples := make([]domain.RowSample, 0, max(limit, 0))
	for idx := 0; idx < limit; idx++ {
		samples = append(samples, domain.NewRowSample(meta, idx, rows[idx]))
	}
	return Sheet{Meta: meta, Samples: samples}
}

func columnCount(rows [][]string) int {
	cols := 0
	for _, row := range rows {
		cols = max(cols, len(row))
	}
	return cols
}
