// internal/domain/engine.go
//
// Domain binding engine.
//
// Context
// -------
// The engine owns every mutation of domain ownership: issuing a binding
// with its verification challenge, checking the challenge against live
// DNS, transferring a domain between sites, and removing a binding.  The
// host resolver only ever reads what this engine writes, so the resolver
// cache is invalidated here, at the single choke point where routing for
// a host name can change.
//
// Ownership model
// ---------------
// One row per normalized domain string, enforced by the store.  A request
// for a string owned elsewhere returns CollisionError with the owner's
// identity so the caller can offer unlink-and-reassign in one round-trip.
// The loser of two concurrent first claims receives the same collision:
// by the time the store rejects the insert, an owner exists, and which
// request "was first" is not observable to either caller.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yanizio/loft/internal/metrics"
)

// Invalidator is the resolver-cache hook.  Called with every host form
// whose routing may have changed.
type Invalidator func(host string)

// Engine wires the store, site bookkeeping, DNS checker, and cache hook.
type Engine struct {
	store       Store
	sites       SitePort
	dns         TXTLookuper
	builderHost string
	timeout     time.Duration
	invalidate  Invalidator
}

// New constructs an Engine.  invalidate may be nil (no resolver cache in
// front, e.g. in tests).
func New(store Store, sites SitePort, dns TXTLookuper, builderHost string, verifyTimeout time.Duration, invalidate Invalidator) *Engine {
	if invalidate == nil {
		invalidate = func(string) {}
	}
	return &Engine{
		store:       store,
		sites:       sites,
		dns:         dns,
		builderHost: builderHost,
		timeout:     verifyTimeout,
		invalidate:  invalidate,
	}
}

//
// RequestBinding
//

// RequestBinding validates and claims a domain for siteID.  Re-requesting
// a domain the site already owns returns the existing setup info; an
// empty domain string is equivalent to Remove.
func (e *Engine) RequestBinding(ctx context.Context, siteID, raw string) (*SetupInfo, error) {
	if raw == "" {
		return nil, e.Remove(ctx, siteID)
	}
	if err := Validate(raw); err != nil {
		return nil, err
	}
	norm := Normalize(raw)

	existing, err := e.store.ByDomain(ctx, norm)
	switch {
	case err == nil && existing.SiteID == siteID:
		// Same-owner re-request: hand back the standing challenge.
		return e.setupInfo(existing), nil
	case err == nil:
		return nil, e.collision(ctx, existing)
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	rec := &Record{
		ID:                uuid.NewString(),
		Domain:            norm,
		SiteID:            siteID,
		VerificationToken: newToken(),
	}
	if err := e.store.Create(ctx, rec); err != nil {
		if errors.Is(err, ErrTaken) {
			// Lost a concurrent claim; report whoever holds it now.
			winner, lerr := e.store.ByDomain(ctx, norm)
			if lerr != nil {
				return nil, ErrConflict
			}
			return nil, e.collision(ctx, winner)
		}
		return nil, err
	}

	if err := e.sites.SetCustomDomain(ctx, siteID, norm); err != nil {
		return nil, err
	}
	e.invalidateHost(norm)

	metrics.DomainBindTotal.Inc()
	zap.S().Infow("domain bound", "domain", norm, "site_id", siteID)
	return e.setupInfo(rec), nil
}

//
// Verify and DNSStatus
//

// Verify runs the TXT challenge for a binding.  A verified record stays
// verified regardless of current DNS state; an unverified record flips
// only when the published TXT value matches the stored token.
func (e *Engine) Verify(ctx context.Context, domainID string) (*Record, error) {
	rec, err := e.store.ByID(ctx, domainID)
	if err != nil {
		return nil, err
	}
	if rec.Verified {
		return rec, nil
	}

	if reason, ok := e.challengeMet(ctx, rec); !ok {
		metrics.DomainVerifyTotal.WithLabelValues("failed").Inc()
		return nil, &UnverifiedError{Domain: rec.Domain, Reason: reason}
	}

	now := time.Now().UTC()
	if err := e.store.MarkVerified(ctx, rec.ID, now); err != nil {
		return nil, err
	}
	if err := e.sites.SetDomainVerified(ctx, rec.SiteID, true); err != nil {
		return nil, err
	}
	e.invalidateHost(rec.Domain)

	rec.Verified = true
	rec.VerifiedAt = &now
	metrics.DomainVerifyTotal.WithLabelValues("ok").Inc()
	zap.S().Infow("domain verified", "domain", rec.Domain, "site_id", rec.SiteID)
	return rec, nil
}

// DNSStatus reports whether the challenge is currently met without
// mutating any state.  Already-verified records short-circuit to true.
func (e *Engine) DNSStatus(ctx context.Context, domainID string) (bool, string, error) {
	rec, err := e.store.ByID(ctx, domainID)
	if err != nil {
		return false, "", err
	}
	if rec.Verified {
		return true, "domain is verified", nil
	}
	if reason, ok := e.challengeMet(ctx, rec); !ok {
		return false, reason, nil
	}
	return true, "TXT record found, run verification to activate", nil
}

// challengeMet performs the bounded TXT lookup and token comparison.  The
// returned string is a human-readable failure reason.
func (e *Engine) challengeMet(ctx context.Context, rec *Record) (string, bool) {
	lctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	values, err := e.dns.LookupTXT(lctx, rec.Domain)
	if err != nil {
		if lctx.Err() != nil {
			return "DNS lookup timed out, records may still be propagating", false
		}
		return fmt.Sprintf("DNS lookup failed: %v", err), false
	}
	for _, v := range values {
		if v == rec.VerificationToken {
			return "", true
		}
	}
	return "verification TXT record not found", false
}

//
// UnlinkAndReassign and Remove
//

// UnlinkAndReassign transfers a domain string from its current owner to
// newSiteID with a fresh, unverified challenge.  The swap is atomic: at
// no instant does the domain have zero or two owning rows.
func (e *Engine) UnlinkAndReassign(ctx context.Context, domainID, newSiteID, raw string) (*SetupInfo, error) {
	if err := Validate(raw); err != nil {
		return nil, err
	}
	norm := Normalize(raw)

	old, err := e.store.ByID(ctx, domainID)
	if err != nil {
		return nil, err
	}

	fresh := &Record{
		ID:                uuid.NewString(),
		Domain:            norm,
		SiteID:            newSiteID,
		VerificationToken: newToken(),
	}
	if err := e.store.Reassign(ctx, domainID, fresh); err != nil {
		return nil, err
	}

	e.invalidateHost(old.Domain)
	e.invalidateHost(norm)

	metrics.DomainReassignTotal.Inc()
	zap.S().Infow("domain reassigned",
		"domain", norm, "from_site", old.SiteID, "to_site", newSiteID)
	return e.setupInfo(fresh), nil
}

// Remove deletes the binding for siteID's current custom domain and
// clears the site's domain fields.  A site without a binding is a no-op.
func (e *Engine) Remove(ctx context.Context, siteID string) error {
	rec, err := e.store.BySite(ctx, siteID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return e.sites.ClearCustomDomain(ctx, siteID)
		}
		return err
	}

	if err := e.store.Delete(ctx, rec.ID); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if err := e.sites.ClearCustomDomain(ctx, siteID); err != nil {
		return err
	}
	e.invalidateHost(rec.Domain)

	zap.S().Infow("domain removed", "domain", rec.Domain, "site_id", siteID)
	return nil
}

// RemoveByID deletes one binding by its record id, clearing the owning
// site's domain fields.  Used by the domain-management endpoints, which
// address bindings rather than sites.
func (e *Engine) RemoveByID(ctx context.Context, domainID string) error {
	rec, err := e.store.ByID(ctx, domainID)
	if err != nil {
		return err
	}
	if err := e.store.Delete(ctx, rec.ID); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if err := e.sites.ClearCustomDomain(ctx, rec.SiteID); err != nil {
		return err
	}
	e.invalidateHost(rec.Domain)

	zap.S().Infow("domain removed", "domain", rec.Domain, "site_id", rec.SiteID)
	return nil
}

//
// helpers
//

// collision builds the structured collision outcome for a foreign record.
func (e *Engine) collision(ctx context.Context, owner *Record) error {
	name, err := e.sites.Name(ctx, owner.SiteID)
	if err != nil {
		name = ""
	}
	return &CollisionError{
		Domain:         owner.Domain,
		DomainID:       owner.ID,
		LinkedSiteID:   owner.SiteID,
		LinkedSiteName: name,
	}
}

// setupInfo renders the DNS instructions for a record.
func (e *Engine) setupInfo(rec *Record) *SetupInfo {
	return &SetupInfo{
		DomainID:          rec.ID,
		Domain:            rec.Domain,
		VerificationToken: rec.VerificationToken,
		DNSInstructions: []DNSRecord{
			{Type: "TXT", Name: rec.Domain, Value: rec.VerificationToken},
			{Type: "CNAME", Name: rec.Domain, Value: rec.SiteID + "." + e.builderHost},
		},
	}
}

// invalidateHost drops both host forms a binding change can affect.
func (e *Engine) invalidateHost(normalized string) {
	e.invalidate(normalized)
	e.invalidate("www." + normalized)
}
