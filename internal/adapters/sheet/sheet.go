// Package sheet imports and exports session tables as CSV or XLSX files.
// Columns map positionally onto the fixed table schema; an optional header
// row is recognised by a first cell reading "Name".
package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/acircuit-ctrlV/badminton-koun/internal/domain/model"
	"github.com/acircuit-ctrlV/badminton-koun/internal/domain/types"
	"github.com/xuri/excelize/v2"
)

// Format is a supported file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Content types of exported files.
const (
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

const (
	tableSheet   = "Session"
	summarySheet = "Summary"
)

// Sentinel kinds for sheet errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported sheet format")
	ErrEmptyWorkbook     = errors.New("workbook has no sheets")
	ErrMalformed         = errors.New("malformed sheet")
)

// ParseFormat maps a format name or file extension to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "csv":
		return FormatCSV, nil
	case "xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// FormatOf returns the format implied by a file name's extension.
func FormatOf(name string) (Format, error) {
	return ParseFormat(filepath.Ext(name))
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return ContentTypeXLSX
	}
	return ContentTypeCSV
}

// Read parses r in the format implied by name.
func Read(name string, r io.Reader) (model.Table, error) {
	f, err := FormatOf(name)
	if err != nil {
		return model.Table{}, err
	}
	if f == FormatXLSX {
		return ReadXLSX(r)
	}
	return ReadCSV(r)
}

// Write encodes t in format f. summary is only used by XLSX and may be nil.
func Write(w io.Writer, f Format, t model.Table, summary *types.Summary) error {
	switch f {
	case FormatXLSX:
		return WriteXLSX(w, t, summary)
	case FormatCSV:
		return WriteCSV(w, t)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}

// ReadCSV parses a CSV table.
func ReadCSV(r io.Reader) (model.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return model.Table{}, fmt.Errorf("%w: csv: %w", ErrMalformed, err)
	}
	return fromRecords(records), nil
}

// ReadXLSX parses the first sheet of an XLSX workbook.
func ReadXLSX(r io.Reader) (model.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return model.Table{}, fmt.Errorf("%w: xlsx: %w", ErrMalformed, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return model.Table{}, ErrEmptyWorkbook
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return model.Table{}, fmt.Errorf("%w: sheet %s: %w", ErrMalformed, sheets[0], err)
	}
	return fromRecords(rows), nil
}

// WriteCSV writes t with a header row.
func WriteCSV(w io.Writer, t model.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(model.Headers()); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	for _, row := range t.Rows {
		rec := make([]string, max(model.ColumnCount, len(row)))
		for c := range rec {
			rec[c] = row.At(c).String()
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// WriteXLSX writes t to a "Session" sheet and, when summary is not nil, the
// results to a "Summary" sheet.
func WriteXLSX(w io.Writer, t model.Table, summary *types.Summary) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), tableSheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	if err := setRow(f, tableSheet, 1, toAny(model.Headers())); err != nil {
		return err
	}
	for i, row := range t.Rows {
		if err := setRow(f, tableSheet, i+2, xlsxValues(row)); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(tableSheet, "A", "A", 16); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if summary != nil {
		if _, err := f.NewSheet(summarySheet); err != nil {
			return fmt.Errorf("add summary sheet: %w", err)
		}
		lines := [][]any{
			{"total_slashes", summary.TotalUnitsConsumed},
			{"shuttlecocks", summary.Shuttlecocks().InexactFloat64()},
			{"sum_D", summary.SumOfUsageColumn.InexactFloat64()},
			{"net_price_sum", summary.NewTotalCost.InexactFloat64()},
			{"old_solution_sum", summary.LegacyTotalCost.InexactFloat64()},
			{"new_solution_minus_old_solution", summary.CostDelta.InexactFloat64()},
		}
		for i, l := range lines {
			if err := setRow(f, summarySheet, i+1, l); err != nil {
				return err
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, n int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", n, err)
	}
	return nil
}

func fromRecords(records [][]string) model.Table {
	if len(records) > 0 && len(records[0]) > 0 && strings.EqualFold(strings.TrimSpace(records[0][0]), "name") {
		records = records[1:]
	}
	t := model.Table{Rows: make([]model.Row, 0, len(records))}
	for _, rec := range records {
		row := make(model.Row, len(rec))
		for c, v := range rec {
			row[c] = parseCell(c, v)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// parseCell reads game columns holding a plain non-negative integer as a
// count; every other value stays text.
func parseCell(col int, v string) model.Cell {
	if col >= model.ColFirstGame && col <= model.ColLastGame {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n >= 0 {
			return model.Count(n)
		}
	}
	return model.Text(v)
}

func xlsxValues(row model.Row) []any {
	out := make([]any, max(model.ColumnCount, len(row)))
	for c := range out {
		cell := row.At(c)
		switch {
		case cell.Kind() == model.KindCount:
			out[c] = cell.Usage(0)
		case c == model.ColTotalUsage || c == model.ColPrice:
			if d, ok := cell.Number(); ok {
				out[c] = d.InexactFloat64()
				continue
			}
			out[c] = cell.String()
		default:
			out[c] = cell.String()
		}
	}
	return out
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
