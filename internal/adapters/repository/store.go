// Package repository holds live sessions in memory.
package repository

import (
	"context"

	"github.com/acircuit-ctrlV/badminton-koun/internal/domain/model"
)

// Store provides read/write access to sessions. Implementations hand out
// and keep independent copies, so callers never share a table.
type Store interface {
	// Create stores a new session. Returns ErrExists if the ID is taken.
	Create(ctx context.Context, s model.Session) error

	// Get returns the session with id. Returns ErrNotFound if it is unknown
	// or expired.
	Get(ctx context.Context, id string) (model.Session, error)

	// Save replaces an existing session. Returns ErrNotFound if it is unknown.
	Save(ctx context.Context, s model.Session) error

	// Delete removes the session with id. Returns ErrNotFound if it is unknown.
	Delete(ctx context.Context, id string) error

	// Count returns the number of live sessions.
	Count(ctx context.Context) int
}
