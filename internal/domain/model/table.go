package model

import (
	"strconv"
	"strings"
)

// Fixed table schema.
const (
	ColName       = 0
	ColTime       = 1
	ColTotalUsage = 2
	ColPrice      = 3
	ColFirstGame  = 4

	GameCount   = 20
	ColLastGame = ColFirstGame + GameCount - 1
	ColumnCount = ColFirstGame + GameCount

	// MinRows is the number of rows a processed table always has at least.
	MinRows = 23
)

// Headers returns the ordered column names of the table.
func Headers() []string {
	h := make([]string, 0, ColumnCount)
	h = append(h, "Name", "Time", "TotalUsage", "Price")
	for g := 1; g <= GameCount; g++ {
		h = append(h, GameName(g))
	}
	return h
}

// GameName returns the column name of the 1-based game number g.
func GameName(g int) string { return "Game_" + strconv.Itoa(g) }

// GameColumn returns the column index of the 1-based game number g.
func GameColumn(g int) int { return ColFirstGame + g - 1 }

// Row is one player line. Rows may be shorter than ColumnCount; missing
// cells read as empty text.
type Row []Cell

// NewRow returns a fully empty row of ColumnCount cells.
func NewRow() Row {
	r := make(Row, ColumnCount)
	for i := range r {
		r[i] = Text("")
	}
	return r
}

// PlayerRow returns a row with the given name and time and empty remaining cells.
func PlayerRow(name, time string) Row {
	r := NewRow()
	r[ColName] = Text(name)
	r[ColTime] = Text(time)
	return r
}

// At returns the cell at column i, or empty text when the row is too short.
func (r Row) At(i int) Cell {
	if i < 0 || i >= len(r) {
		return Text("")
	}
	return r[i]
}

// Name returns the trimmed player name.
func (r Row) Name() string { return strings.TrimSpace(r.At(ColName).String()) }

// Extend returns r grown with empty cells to at least n cells.
func (r Row) Extend(n int) Row {
	for len(r) < n {
		r = append(r, Text(""))
	}
	return r
}

// Clone returns an independent copy of r.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	copy(out, r)
	return out
}

// Table is the ordered set of session rows.
type Table struct {
	Rows []Row `json:"rows"`
}

// NewTable returns a table of n fully empty rows.
func NewTable(n int) Table {
	t := Table{Rows: make([]Row, n)}
	for i := range t.Rows {
		t.Rows[i] = NewRow()
	}
	return t
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// Clone returns a deep copy of t.
func (t Table) Clone() Table {
	out := Table{Rows: make([]Row, len(t.Rows))}
	for i, r := range t.Rows {
		out.Rows[i] = r.Clone()
	}
	return out
}

// ActiveRows returns the index of the last row with a non-blank name plus
// one, or zero when no row is named.
func (t Table) ActiveRows() int {
	for i := len(t.Rows) - 1; i >= 0; i-- {
		if t.Rows[i].Name() != "" {
			return i + 1
		}
	}
	return 0
}

// Width returns the length of the widest row.
func (t Table) Width() int {
	w := 0
	for _, r := range t.Rows {
		if len(r) > w {
			w = len(r)
		}
	}
	return w
}
