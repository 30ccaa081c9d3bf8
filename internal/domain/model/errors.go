package model

import "errors"

// Sentinel kinds for model decoding errors.
var (
	ErrCountOutOfRange = errors.New("count out of range")
)
