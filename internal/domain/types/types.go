// Package types contains common types used across the application
package types

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// UsesPerShuttlecock is the number of usage marks one shuttlecock covers.
const UsesPerShuttlecock = 4

// Summary is the results of one tally run. It is recomputed as a whole on
// every run.
type Summary struct {
	// TotalUnitsConsumed is the sum of usage over active named rows.
	TotalUnitsConsumed int
	// LegacyTotalCost is the old pricing: shuttlecocks at the reference cost plus court rental.
	LegacyTotalCost decimal.Decimal
	// NewTotalCost is the sum of the Price column over active named rows.
	NewTotalCost decimal.Decimal
	// CostDelta is NewTotalCost minus LegacyTotalCost.
	CostDelta decimal.Decimal
	// SumOfUsageColumn is the sum of the TotalUsage column over active named rows.
	SumOfUsageColumn decimal.Decimal
}

// Shuttlecocks returns the number of shuttlecocks the session consumed.
func (s Summary) Shuttlecocks() decimal.Decimal {
	return decimal.NewFromInt(int64(s.TotalUnitsConsumed)).Div(decimal.NewFromInt(UsesPerShuttlecock))
}

type summaryJSON struct {
	TotalSlashes int         `json:"total_slashes"`
	OldSolution  json.Number `json:"old_solution_sum"`
	NetPrice     json.Number `json:"net_price_sum"`
	Delta        json.Number `json:"new_solution_minus_old_solution"`
	SumD         json.Number `json:"sum_D"`
	Shuttlecocks json.Number `json:"shuttlecocks"`
}

// MarshalJSON emits the summary with its exposed field names and numeric values.
func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(summaryJSON{
		TotalSlashes: s.TotalUnitsConsumed,
		OldSolution:  json.Number(s.LegacyTotalCost.String()),
		NetPrice:     json.Number(s.NewTotalCost.String()),
		Delta:        json.Number(s.CostDelta.String()),
		SumD:         json.Number(s.SumOfUsageColumn.String()),
		Shuttlecocks: json.Number(s.Shuttlecocks().String()),
	})
}

// UnmarshalJSON reads a summary written by MarshalJSON. The derived
// shuttlecocks field is ignored.
func (s *Summary) UnmarshalJSON(data []byte) error {
	var raw summaryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := Summary{TotalUnitsConsumed: raw.TotalSlashes}
	for _, f := range []struct {
		src json.Number
		dst *decimal.Decimal
	}{
		{raw.OldSolution, &out.LegacyTotalCost},
		{raw.NetPrice, &out.NewTotalCost},
		{raw.Delta, &out.CostDelta},
		{raw.SumD, &out.SumOfUsageColumn},
	} {
		if f.src == "" {
			continue
		}
		d, err := decimal.NewFromString(f.src.String())
		if err != nil {
			return err
		}
		*f.dst = d
	}
	*s = out
	return nil
}

// UsageStats describes the distribution of usage across named players.
type UsageStats struct {
	Players int     `json:"players"`
	Total   int     `json:"total"`
	Mean    float64 `json:"mean"`
	Median  float64 `json:"median"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	StdDev  float64 `json:"std_dev"`
}
