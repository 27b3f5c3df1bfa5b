// Package store persists assessment sessions. Backends are interchangeable:
// an in-memory map for the demo deployment, a directory of JSON documents,
// and SQLite.
package store

import (
	"context"

	"github.com/tailored-agentic-units/intake/session"
)

// Store is keyed storage of sessions with status-indexed queries.
// Implementations must be safe for concurrent use and must never hand out
// references to their internal copies.
type Store interface {
	// Create persists a new session. Returns ErrAlreadyExists if the
	// identifier is taken.
	Create(ctx context.Context, s *session.Session) error
	// Get returns the session and true, or nil and false when absent.
	// A missing key is not an error.
	Get(ctx context.Context, id string) (*session.Session, bool, error)
	// Update replaces an existing session. Returns ErrNotFound if the
	// identifier was never created.
	Update(ctx context.Context, s *session.Session) error
	// List returns every session ordered by creation time.
	List(ctx context.Context) ([]*session.Session, error)
	// ListByStatus returns the sessions in the given status ordered by
	// creation time.
	ListByStatus(ctx context.Context, status session.Status) ([]*session.Session, error)
	// CountByStatus returns a count for every defined status, including
	// zero counts.
	CountByStatus(ctx context.Context) (map[session.Status]int, error)
	// Close releases backend resources.
	Close() error
}

func emptyCounts() map[session.Status]int {
	counts := make(map[session.Status]int, len(session.Statuses()))
	for _, s := range session.Statuses() {
		counts[s] = 0
	}
	return counts
}
