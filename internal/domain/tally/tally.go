// Package tally turns per-game usage marks into player totals, prices and the
// session cost summary.
package tally

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/acircuit-ctrlV/badminton-koun/internal/domain/model"
	"github.com/acircuit-ctrlV/badminton-koun/internal/domain/types"
	"github.com/acircuit-ctrlV/badminton-koun/pkg/logger"
	"github.com/acircuit-ctrlV/badminton-koun/pkg/metrics"
	"github.com/shopspring/decimal"
)

// DefaultMarker is the character that marks one usage in a marker cell.
const DefaultMarker = 'l'

// MaxUsage is the largest usage SetUsage writes into one game cell.
const MaxUsage = 999

// CellFormat selects how SetUsage writes game cells.
type CellFormat int

const (
	// FormatMarker writes usage as a run of marker characters.
	FormatMarker CellFormat = iota
	// FormatCount writes usage as an integer count.
	FormatCount
)

// ParseCellFormat maps "marker" and "count" to a CellFormat.
func ParseCellFormat(s string) (CellFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "marker":
		return FormatMarker, nil
	case "count":
		return FormatCount, nil
	default:
		return FormatMarker, fmt.Errorf("%w: %q", ErrUnknownCellFormat, s)
	}
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithMarker sets the usage marker character.
func WithMarker(r rune) Option {
	return func(e *Engine) {
		if r != 0 {
			e.marker = r
		}
	}
}

// WithCellFormat sets the representation SetUsage writes.
func WithCellFormat(f CellFormat) Option {
	return func(e *Engine) {
		e.format = f
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// Engine computes session totals. It holds configuration only; every call
// works on its own copy of the table.
type Engine struct {
	marker rune
	format CellFormat
	logger logger.Logger
}

// NewEngine creates an engine with the given options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		marker: DefaultMarker,
		format: FormatMarker,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Marker returns the configured usage marker.
func (e *Engine) Marker() rune { return e.marker }

// Process recomputes TotalUsage and Price for the first activeRowBound rows,
// pads the table to model.MinRows and returns the updated copy together with
// the session summary. The input table is never modified.
func (e *Engine) Process(ctx context.Context, t model.Table, tariffs model.Tariffs, activeRowBound int) (model.Table, types.Summary) {
	start := time.Now()
	out := t.Clone()
	bound := clampBound(activeRowBound, out.Len())

	totalUnits := 0
	for i := 0; i < bound; i++ {
		row := out.Rows[i].Extend(model.ColumnCount)
		out.Rows[i] = row

		if row.Name() == "" {
			row[model.ColTotalUsage] = model.Text("")
			row[model.ColPrice] = model.Text("")
			continue
		}

		usage := e.rowUsage(row)
		row[model.ColTotalUsage] = model.Count(usage)
		row[model.ColPrice] = model.Text(price(usage, tariffs).String())
		totalUnits += usage
	}

	for out.Len() < model.MinRows {
		out.Rows = append(out.Rows, model.NewRow())
	}

	sumUsage, sumPrice := decimal.Zero, decimal.Zero
	for i := 0; i < bound; i++ {
		row := out.Rows[i]
		if row.Name() == "" {
			continue
		}
		if d, ok := row.At(model.ColTotalUsage).Number(); ok {
			sumUsage = sumUsage.Add(d)
		}
		if d, ok := row.At(model.ColPrice).Number(); ok {
			sumPrice = sumPrice.Add(d)
		}
	}

	legacy := legacyCost(totalUnits, tariffs)
	summary := types.Summary{
		TotalUnitsConsumed: totalUnits,
		LegacyTotalCost:    legacy,
		NewTotalCost:       sumPrice,
		CostDelta:          sumPrice.Sub(legacy),
		SumOfUsageColumn:   sumUsage,
	}

	metrics.RecordTallyRun(float64(time.Since(start).Microseconds())/1000, totalUnits)
	if e.logger != nil {
		e.logger.Debug(ctx, "tally processed",
			logger.Int("activeRows", bound),
			logger.Int("totalUnits", totalUnits),
			logger.String("netPrice", sumPrice.String()),
		)
	}
	return out, summary
}

// SetUsage returns a copy of t with the usage of the 1-based game g in row
// set to value, written in the engine's cell format.
func (e *Engine) SetUsage(t model.Table, row, g, value int) (model.Table, error) {
	switch {
	case row < 0 || row >= t.Len():
		return t, fmt.Errorf("row %d: %w", row, ErrRowOutOfRange)
	case g < 1 || g > model.GameCount:
		return t, fmt.Errorf("game %d: %w", g, ErrGameOutOfRange)
	case value < 0:
		return t, fmt.Errorf("value %d: %w", value, ErrNegativeUsage)
	case value > MaxUsage:
		return t, fmt.Errorf("value %d above %d: %w", value, MaxUsage, ErrUsageOutOfRange)
	}

	out := t.Clone()
	r := out.Rows[row].Extend(model.ColumnCount)
	r[model.GameColumn(g)] = e.usageCell(value)
	out.Rows[row] = r
	return out, nil
}

func (e *Engine) usageCell(value int) model.Cell {
	if e.format == FormatCount {
		return model.Count(value)
	}
	return model.Text(strings.Repeat(string(e.marker), value))
}

func (e *Engine) rowUsage(row model.Row) int {
	usage := 0
	for c := model.ColFirstGame; c <= model.ColLastGame; c++ {
		usage += row.At(c).Usage(e.marker)
	}
	return usage
}

func price(usage int, t model.Tariffs) decimal.Decimal {
	return decimal.NewFromInt(int64(usage)).Mul(t.PerUnitCost).Add(t.PerPersonFlatFee)
}

func legacyCost(totalUnits int, t model.Tariffs) decimal.Decimal {
	shuttles := decimal.NewFromInt(int64(totalUnits)).Div(decimal.NewFromInt(types.UsesPerShuttlecock))
	return shuttles.Mul(t.ReferencePerUnitCost).Add(t.CourtRentalFee)
}

func clampBound(bound, rows int) int {
	if bound < 0 {
		return 0
	}
	if bound > rows {
		return rows
	}
	return bound
}
