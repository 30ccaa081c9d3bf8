package service

import "errors"

// Sentinel error kinds returned by the service.
var (
	// ErrNothingToCompute means the table has no named rows; it is a
	// notice for the user, not a failure.
	ErrNothingToCompute = errors.New("nothing to compute")
	// ErrNotCalculated means an image was requested before any results
	// exist for the session.
	ErrNotCalculated = errors.New("session has not been calculated")
	// ErrNotStarted means the service was used before Start.
	ErrNotStarted = errors.New("service not started")
)
