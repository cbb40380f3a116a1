// internal/domain/errors.go
//
// Error taxonomy for the binding engine.
//
// Context
// -------
// Callers branch on these types, so each carries the structure the UI
// needs to act without a second round-trip:
//
//   - ValidationError – malformed domain string; rejected synchronously,
//     never retried automatically.
//   - CollisionError – the domain is already bound to another site; only
//     an explicit user choice (unlink-and-reassign, or a different name)
//     resolves it.
//   - UnverifiedError – the DNS check failed, timed out, or mismatched;
//     always retryable, unlimited manual attempts allowed.
//   - ErrNotFound / ErrTaken / ErrConflict – sentinels for store outcomes.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no domain row matches the lookup.
var ErrNotFound = errors.New("domain not found")

// ErrTaken is returned by Store.Create when the uniqueness constraint on
// the normalized domain string rejects the insert.
var ErrTaken = errors.New("domain already bound")

// ErrConflict is returned when a binding mutation loses a store-level
// race.  It is surfaced to the caller as "try again" rather than retried
// internally, since a blind retry could race a legitimate concurrent claim.
var ErrConflict = errors.New("binding conflict, try again")

// ValidationError reports a domain string the grammar rejects.
type ValidationError struct {
	Domain string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid domain %q: %s", e.Domain, e.Reason)
}

// CollisionError reports that the requested domain is owned by another
// site.  IsOwner is always false here; the same-owner case is a no-op, not
// an error.  The linked-site fields let the caller offer unlink-and-
// reassign immediately.
type CollisionError struct {
	Domain         string
	DomainID       string
	LinkedSiteID   string
	LinkedSiteName string
	IsOwner        bool
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("domain %q already linked to site %q", e.Domain, e.LinkedSiteID)
}

// UnverifiedError reports a failed or inconclusive DNS verification with a
// human-readable reason.  State is left untouched; the caller may retry at
// any time.
type UnverifiedError struct {
	Domain string
	Reason string
}

func (e *UnverifiedError) Error() string {
	return fmt.Sprintf("domain %q not verified: %s", e.Domain, e.Reason)
}
