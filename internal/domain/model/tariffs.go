package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Tariffs are the four prices applied to a session. Values are not range
// checked; negative tariffs are computed as given.
type Tariffs struct {
	// PerUnitCost is charged per usage unit to a player.
	PerUnitCost decimal.Decimal `json:"per_unit_cost"`
	// PerPersonFlatFee is the walk-in fee charged once per named player.
	PerPersonFlatFee decimal.Decimal `json:"per_person_flat_fee"`
	// CourtRentalFee is added once to the legacy total.
	CourtRentalFee decimal.Decimal `json:"court_rental_fee"`
	// ReferencePerUnitCost is the real price of a shuttlecock.
	ReferencePerUnitCost decimal.Decimal `json:"reference_per_unit_cost"`
}

// NewTariffs builds Tariffs from float values.
func NewTariffs(perUnit, perPerson, court, reference float64) Tariffs {
	return Tariffs{
		PerUnitCost:          decimal.NewFromFloat(perUnit),
		PerPersonFlatFee:     decimal.NewFromFloat(perPerson),
		CourtRentalFee:       decimal.NewFromFloat(court),
		ReferencePerUnitCost: decimal.NewFromFloat(reference),
	}
}

// MarshalJSON emits the tariffs as JSON numbers.
func (t Tariffs) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		PerUnitCost          json.Number `json:"per_unit_cost"`
		PerPersonFlatFee     json.Number `json:"per_person_flat_fee"`
		CourtRentalFee       json.Number `json:"court_rental_fee"`
		ReferencePerUnitCost json.Number `json:"reference_per_unit_cost"`
	}{
		PerUnitCost:          json.Number(t.PerUnitCost.String()),
		PerPersonFlatFee:     json.Number(t.PerPersonFlatFee.String()),
		CourtRentalFee:       json.Number(t.CourtRentalFee.String()),
		ReferencePerUnitCost: json.Number(t.ReferencePerUnitCost.String()),
	})
}
