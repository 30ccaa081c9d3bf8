package tally

import (
	"fmt"

	"github.com/acircuit-ctrlV/badminton-koun/internal/domain/model"
	"github.com/acircuit-ctrlV/badminton-koun/internal/domain/types"
	"github.com/montanaflynn/stats"
)

// Warning messages surfaced next to results.
const (
	msgColumnInvalid = "Game data in column '%s' is invalid: total usage %d is not divisible by %d."
	msgNotEnoughCols = "The table does not have enough columns for full game data validation (expected at least %d columns for '%s' to '%s')."
)

// NothingToComputeNotice is shown when a table has no named rows.
const NothingToComputeNotice = "No names found in the table to process. Please enter data in the 'Name' column."

// ValidateColumns returns the names of game columns whose usage across the
// first activeRowBound rows is not a multiple of four. One shuttlecock
// covers four marks.
func (e *Engine) ValidateColumns(t model.Table, activeRowBound int) []string {
	totals := e.columnTotals(t, activeRowBound)
	var invalid []string
	for g, total := range totals {
		if total%types.UsesPerShuttlecock != 0 {
			invalid = append(invalid, model.GameName(g+1))
		}
	}
	return invalid
}

// Warnings returns human readable validation messages for the active rows.
func (e *Engine) Warnings(t model.Table, activeRowBound int) []string {
	bound := clampBound(activeRowBound, t.Len())
	var out []string

	wide := false
	for i := 0; i < bound; i++ {
		if len(t.Rows[i]) >= model.ColumnCount {
			wide = true
			break
		}
	}
	if bound > 0 && !wide {
		out = append(out, fmt.Sprintf(msgNotEnoughCols, model.ColumnCount, model.GameName(1), model.GameName(model.GameCount)))
	}

	totals := e.columnTotals(t, activeRowBound)
	for g, total := range totals {
		if total%types.UsesPerShuttlecock != 0 {
			out = append(out, fmt.Sprintf(msgColumnInvalid, model.GameName(g+1), total, types.UsesPerShuttlecock))
		}
	}
	return out
}

func (e *Engine) columnTotals(t model.Table, activeRowBound int) []int {
	bound := clampBound(activeRowBound, t.Len())
	totals := make([]int, model.GameCount)
	for i := 0; i < bound; i++ {
		row := t.Rows[i]
		for g := 1; g <= model.GameCount; g++ {
			totals[g-1] += row.At(model.GameColumn(g)).Usage(e.marker)
		}
	}
	return totals
}

// Describe summarizes per-player usage over the named active rows.
func (e *Engine) Describe(t model.Table, activeRowBound int) (types.UsageStats, error) {
	bound := clampBound(activeRowBound, t.Len())
	var data stats.Float64Data
	total := 0
	for i := 0; i < bound; i++ {
		row := t.Rows[i]
		if row.Name() == "" {
			continue
		}
		u := e.rowUsage(row)
		total += u
		data = append(data, float64(u))
	}
	if len(data) == 0 {
		return types.UsageStats{}, ErrNoPlayers
	}

	out := types.UsageStats{Players: len(data), Total: total}
	var err error
	if out.Mean, err = data.Mean(); err != nil {
		return types.UsageStats{}, fmt.Errorf("mean: %w", err)
	}
	if out.Median, err = data.Median(); err != nil {
		return types.UsageStats{}, fmt.Errorf("median: %w", err)
	}
	if out.Min, err = data.Min(); err != nil {
		return types.UsageStats{}, fmt.Errorf("min: %w", err)
	}
	if out.Max, err = data.Max(); err != nil {
		return types.UsageStats{}, fmt.Errorf("max: %w", err)
	}
	if out.StdDev, err = data.StandardDeviationPopulation(); err != nil {
		return types.UsageStats{}, fmt.Errorf("std dev: %w", err)
	}
	return out, nil
}
