// Package database defines the port interface for the requirement store.
package database

import (
	"context"

	"github.com/batonworks/baton/internal/domain/requirement"
)

// Store is the system of record for requirements. Implementations must make
// each Save logically atomic: the record write, membership, priority index,
// status-set membership, and audit entry all commit together or not at all.
type Store interface {
	// Get fetches and normalizes one requirement. Returns domain.ErrNotFound
	// when the id is unknown or the stored blob cannot be decoded.
	Get(ctx context.Context, id string) (*requirement.Requirement, error)

	// List fetches and normalizes every known requirement, keyed by id.
	List(ctx context.Context) (map[string]*requirement.Requirement, error)

	// ListTop returns the first n requirements ordered by priority
	// (tier first, rank second).
	ListTop(ctx context.Context, n int) ([]*requirement.Requirement, error)

	// Save persists a requirement and appends one audit entry. previous is
	// the record as it stood before the mutation, nil on create.
	Save(ctx context.Context, req *requirement.Requirement, actor requirement.Actor, action string, previous *requirement.Requirement) error

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}
