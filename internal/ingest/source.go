// Package ingest reads post exports from CSV files, XLSX workbooks and Google
// Sheets, normalizes them through the analysis row parser and hands them to a
// store under an explicit merge strategy.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/instaloom-cli/internal/analysis"
)

// Source yields header-keyed rows for the row parser.
type Source interface {
	Name() string
	Rows(ctx context.Context) ([]analysis.RawRow, error)
}

// CSVSource reads a delimited text export.
type CSVSource struct {
	Path string
	// Delimiter overrides detection. Zero sniffs from the extension and header.
	Delimiter rune
}

func (s *CSVSource) Name() string { return s.Path }

func (s *CSVSource) Rows(ctx context.Context) ([]analysis.RawRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	delim := s.Delimiter
	if delim == 0 {
		switch strings.ToLower(filepath.Ext(s.Path)) {
		case ".tsv", ".tab":
			delim = '\t'
		}
	}
	return analysis.ReadCSVRows(f, delim)
}

// XLSXSource reads one worksheet of a workbook. The first non-empty row is
// the header.
type XLSXSource struct {
	Path string
	// Sheet selects a worksheet by name. When empty, SheetIndex (1-based) is
	// used, and when both are unset the first sheet is read.
	Sheet      string
	SheetIndex int
}

func (s *XLSXSource) Name() string {
	if s.Sheet != "" {
		return s.Path + "#" + s.Sheet
	}
	return s.Path
}

func (s *XLSXSource) Rows(ctx context.Context) ([]analysis.RawRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheet, err := s.resolveSheet(f)
	if err != nil {
		return nil, err
	}
	grid, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	cells := make([][]any, len(grid))
	for i, r := range grid {
		row := make([]any, len(r))
		for j, v := range r {
			row[j] = v
		}
		cells[i] = row
	}
	return rowsFromGrid(cells), nil
}

func (s *XLSXSource) resolveSheet(f *excelize.File) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook %s has no sheets", s.Path)
	}
	if s.Sheet != "" {
		for _, name := range sheets {
			if strings.EqualFold(name, s.Sheet) {
				return name, nil
			}
		}
		return "", fmt.Errorf("sheet %q not found (have: %s)", s.Sheet, strings.Join(sheets, ", "))
	}
	if s.SheetIndex > 0 {
		if s.SheetIndex > len(sheets) {
			return "", fmt.Errorf("sheet index %d out of range (1..%d)", s.SheetIndex, len(sheets))
		}
		return sheets[s.SheetIndex-1], nil
	}
	return sheets[0], nil
}

// SourceForPath picks the file source by extension. Unknown extensions are
// read as CSV.
func SourceForPath(path, sheet string, sheetIndex int) Source {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return &XLSXSource{Path: path, Sheet: sheet, SheetIndex: sheetIndex}
	default:
		return &CSVSource{Path: path}
	}
}

// rowsFromGrid keys each record by the first non-empty row. Blank rows are
// skipped and short rows padded with "".
func rowsFromGrid(grid [][]any) []analysis.RawRow {
	start := 0
	for start < len(grid) && blank(grid[start]) {
		start++
	}
	if start >= len(grid) {
		return nil
	}
	header := make([]string, len(grid[start]))
	for i, h := range grid[start] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(fmt.Sprint(h), "\ufeff"))
	}
	var rows []analysis.RawRow
	for _, rec := range grid[start+1:] {
		if blank(rec) {
			continue
		}
		row := make(analysis.RawRow, len(header))
		for j, h := range header {
			if h == "" {
				continue
			}
			if j < len(rec) && rec[j] != nil {
				row[h] = rec[j]
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func blank(rec []any) bool {
	for _, v := range rec {
		if v != nil && strings.TrimSpace(fmt.Sprint(v)) != "" {
			return false
		}
	}
	return true
}
