// Package model contains domain models passed between layers.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// CellKind discriminates the two shapes a cell can hold.
type CellKind uint8

const (
	// KindText is free-form text: names, times, prices or marker strings.
	KindText CellKind = iota
	// KindCount is a non-negative usage count.
	KindCount
)

// Cell is a single table value. A game cell is either a marker string, whose
// usage is the number of marker characters it contains, or an integer count.
type Cell struct {
	kind  CellKind
	text  string
	count int
}

// Text returns a text cell.
func Text(s string) Cell { return Cell{kind: KindText, text: s} }

// Count returns a count cell.
func Count(n int) Cell { return Cell{kind: KindCount, count: n} }

// Kind reports which variant the cell holds.
func (c Cell) Kind() CellKind { return c.kind }

// IsEmpty reports whether the cell is empty text.
func (c Cell) IsEmpty() bool { return c.kind == KindText && c.text == "" }

// String returns the display text of the cell.
func (c Cell) String() string {
	if c.kind == KindCount {
		return strconv.Itoa(c.count)
	}
	return c.text
}

// Usage resolves the cell to a usage count. Counts below zero read as zero.
func (c Cell) Usage(marker rune) int {
	if c.kind == KindCount {
		if c.count < 0 {
			return 0
		}
		return c.count
	}
	if c.text == "" {
		return 0
	}
	return strings.Count(c.text, string(marker))
}

// Number returns the numeric reading of the cell. Text that does not parse
// as a decimal number, including empty text, reports false.
func (c Cell) Number() (decimal.Decimal, bool) {
	if c.kind == KindCount {
		return decimal.NewFromInt(int64(c.count)), true
	}
	s := strings.TrimSpace(c.text)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// MarshalJSON encodes counts as JSON numbers and text as JSON strings.
func (c Cell) MarshalJSON() ([]byte, error) {
	if c.kind == KindCount {
		return []byte(strconv.Itoa(c.count)), nil
	}
	return json.Marshal(c.text)
}

// UnmarshalJSON decodes numbers into counts, strings into text and null into
// empty text.
func (c *Cell) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*c = Text("")
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode text cell: %w", err)
		}
		*c = Text(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("decode count cell: %w", err)
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return fmt.Errorf("decode count cell: %w", ErrCountOutOfRange)
	}
	*c = Count(int(f))
	return nil
}
