// internal/domain/store.go
//
// Store contracts for the binding engine.
//
// Context
// -------
// The engine mutates two tables—domain rows and the owning site's domain
// fields—so the contracts split accordingly:
//
//   - Store covers domain rows.  Create must enforce the normalized-domain
//     uniqueness constraint atomically (unique index or equivalent CAS) and
//     report ErrTaken when it rejects.  Reassign must perform the whole
//     unlink-and-reassign swap atomically: no observable instant may hold
//     zero or two rows for the domain string.
//   - SitePort covers the site-side bookkeeping the engine performs outside
//     of Reassign (optimistic attach, verified flag, clears on remove).
//
// Two implementations ship: SQLStore/SQLSites (production, sql.go) and
// Memory/MemorySites (tests and dev mode, memory.go).
package domain

import (
	"context"
	"time"
)

// Store persists domain rows.
type Store interface {
	// ByID returns the row for a domain record id, or ErrNotFound.
	ByID(ctx context.Context, id string) (*Record, error)

	// ByDomain returns the row owning the normalized domain string, or
	// ErrNotFound.
	ByDomain(ctx context.Context, normalized string) (*Record, error)

	// BySite returns the row currently bound to siteID, or ErrNotFound.
	BySite(ctx context.Context, siteID string) (*Record, error)

	// All returns every binding, newest first.  Dashboard listing; an
	// empty store returns an empty slice, not an error.
	All(ctx context.Context) ([]Record, error)

	// Create inserts a new row.  ErrTaken when the domain string is
	// already owned; exactly one of two concurrent Creates for the same
	// string may succeed.
	Create(ctx context.Context, rec *Record) error

	// Delete removes a row by id.  Deleting a missing row is ErrNotFound.
	Delete(ctx context.Context, id string) error

	// MarkVerified sets verified/verified_at.  Never unsets.
	MarkVerified(ctx context.Context, id string, at time.Time) error

	// Reassign atomically deletes the row oldID, inserts fresh, clears the
	// old owner's site domain fields, and attaches fresh.Domain to
	// fresh.SiteID.  On any failure the whole swap rolls back and the old
	// row survives.
	Reassign(ctx context.Context, oldID string, fresh *Record) error
}

// SitePort is the slice of site bookkeeping the engine needs.  The full
// site repository satisfies it via the SQLSites adapter.
type SitePort interface {
	// Name returns the display name for a site, for collision reporting.
	Name(ctx context.Context, siteID string) (string, error)

	// SetCustomDomain records the optimistic attachment (verified=false).
	SetCustomDomain(ctx context.Context, siteID, domain string) error

	// ClearCustomDomain removes the attachment and verified flag.
	ClearCustomDomain(ctx context.Context, siteID string) error

	// SetDomainVerified flips the site's verified flag.
	SetDomainVerified(ctx context.Context, siteID string, verified bool) error
}
