package tally

import "errors"

// Sentinel error kinds for this package. These allow errors.Is from callers.
var (
	ErrRowOutOfRange     = errors.New("row out of range")
	ErrGameOutOfRange    = errors.New("game out of range")
	ErrNegativeUsage     = errors.New("usage must not be negative")
	ErrUsageOutOfRange   = errors.New("usage out of range")
	ErrUnknownCellFormat = errors.New("unknown cell format")
	ErrNoPlayers         = errors.New("no named players")
)
