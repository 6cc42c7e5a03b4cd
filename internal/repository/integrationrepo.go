// Package repository declares persistence interfaces for integration records.
package repository

import (
	"context"

	"github.com/mkarpenko/socialvault/internal/model"
)

// IntegrationRepository owns the (user_id, platform_name) -> credential
// document mapping. Exactly one record exists per pair.
type IntegrationRepository interface {
	// Upsert inserts or replaces the record keyed on (user_id, platform_name).
	Upsert(ctx context.Context, rec *model.IntegrationRecord) (*model.IntegrationRecord, error)

	// Get returns the record for the pair, or errs.ErrNotFound.
	Get(ctx context.Context, userID string, platform model.Platform) (*model.IntegrationRecord, error)

	// UpdateWithLock runs fn on the current record inside a transaction while
	// the row is locked, then writes the mutated record back. Two concurrent
	// updates for the same pair serialize instead of clobbering each other.
	// Errors returned by fn abort the transaction and propagate unchanged.
	UpdateWithLock(ctx context.Context, userID string, platform model.Platform,
		fn func(rec *model.IntegrationRecord) error) (*model.IntegrationRecord, error)

	// ListActive returns the user's active records restricted to the given
	// platform set.
	ListActive(ctx context.Context, userID string, platforms []model.Platform) ([]model.IntegrationRecord, error)
}
