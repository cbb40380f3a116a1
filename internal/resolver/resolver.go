// internal/resolver/resolver.go
//
// Request-time host resolution.
//
// Context
// -------
// Every inbound request carries a Host header that must map to exactly one
// of three outcomes, checked in order, first match wins:
//
//  1. The canonical builder host (or a configured infra IP) — a platform
//     request, no site resolution.
//  2. `<prefix>.<builder-host>` — the prefix IS the site ID; no domain
//     row is consulted, only a cheap existence check on the site.
//  3. Anything else — a custom domain: a verified domain row looked up by
//     the literal host first, then the www-stripped form, behind the TTL
//     cache and a singleflight barrier.
//
// An unresolved host is a normal outcome, reported as ErrNotFound, never
// an internal error.  Resolution mutates nothing; binding changes reach
// this component only through HostCache.Invalidate.
//
// The subdomain path deliberately does not strip `www.`; only the
// custom-domain path does.  `www.<siteID>.<builder-host>` therefore does
// not resolve, and resolver_test.go pins that.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package resolver

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yanizio/loft/internal/domain"
	"github.com/yanizio/loft/internal/metrics"
)

// ErrNotFound is returned when no site answers for the host.
var ErrNotFound = errors.New("host not resolved")

// Kind tags a resolution outcome.
type Kind int

const (
	// KindPlatform means the request targets the builder itself.
	KindPlatform Kind = iota
	// KindSite means the request targets a site's published content.
	KindSite
)

// Resolution is the outcome of one host lookup.
type Resolution struct {
	Kind   Kind
	SiteID string
}

// DomainReader is the read-only slice of the domain store the resolver
// needs.  *domain.SQLStore and *domain.Memory both satisfy it.
type DomainReader interface {
	ByDomain(ctx context.Context, normalized string) (*domain.Record, error)
}

// SiteExistsFunc confirms a site ID is real on the subdomain path.
type SiteExistsFunc func(ctx context.Context, siteID string) (bool, error)

// Resolver maps Host headers to site IDs.  Safe for concurrent use.
type Resolver struct {
	builderHost string
	infraIPs    map[string]struct{}
	domains     DomainReader
	siteExists  SiteExistsFunc
	cache       *HostCache
	sfg         singleflight.Group
}

// New constructs a Resolver.  builderHost must be the bare canonical host,
// lowercase, without a port.
func New(builderHost string, infraIPs []string, domains DomainReader, siteExists SiteExistsFunc, cache *HostCache) *Resolver {
	ips := make(map[string]struct{}, len(infraIPs))
	for _, ip := range infraIPs {
		ips[ip] = struct{}{}
	}
	return &Resolver{
		builderHost: strings.ToLower(builderHost),
		infraIPs:    ips,
		domains:     domains,
		siteExists:  siteExists,
		cache:       cache,
	}
}

// Cache exposes the invalidation hook for the binding engine.
func (r *Resolver) Cache() *HostCache { return r.cache }

// Resolve maps a raw Host header to a Resolution or ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, hostHeader string) (Resolution, error) {
	host := strings.ToLower(stripPort(hostHeader))
	if host == "" {
		return Resolution{}, ErrNotFound
	}

	// 1. Platform host (www-stripped for this comparison only) or bare
	// infra IP.
	if domain.Normalize(host) == r.builderHost || host == "localhost" {
		metrics.ResolverLookupTotal.WithLabelValues("platform").Inc()
		return Resolution{Kind: KindPlatform}, nil
	}
	if _, ok := r.infraIPs[host]; ok {
		metrics.ResolverLookupTotal.WithLabelValues("platform").Inc()
		return Resolution{Kind: KindPlatform}, nil
	}

	// 2. Subdomain of the builder host: the prefix is the site ID.
	if suffix := "." + r.builderHost; strings.HasSuffix(host, suffix) {
		siteID := strings.TrimSuffix(host, suffix)
		ok, err := r.siteExists(ctx, siteID)
		if err != nil {
			return Resolution{}, err
		}
		if !ok {
			metrics.ResolverLookupTotal.WithLabelValues("miss").Inc()
			return Resolution{}, ErrNotFound
		}
		metrics.ResolverLookupTotal.WithLabelValues("subdomain").Inc()
		return Resolution{Kind: KindSite, SiteID: siteID}, nil
	}

	// 3. Custom domain.
	siteID, err := r.resolveCustom(ctx, host)
	if err != nil {
		return Resolution{}, err
	}
	metrics.ResolverLookupTotal.WithLabelValues("custom").Inc()
	return Resolution{Kind: KindSite, SiteID: siteID}, nil
}

// resolveCustom answers the custom-domain path through cache and
// singleflight.  Misses are cached on the negative TTL.
func (r *Resolver) resolveCustom(ctx context.Context, host string) (string, error) {
	if siteID, miss, ok := r.cache.Get(host); ok {
		metrics.ResolverCacheHitTotal.Inc()
		if miss {
			return "", ErrNotFound
		}
		return siteID, nil
	}
	metrics.ResolverCacheMissTotal.Inc()

	v, err, _ := r.sfg.Do(host, func() (any, error) {
		rec, err := r.lookupVerified(ctx, host)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				r.cache.PutMiss(host)
			}
			return nil, err
		}
		r.cache.Put(host, rec.SiteID)
		return rec.SiteID, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// lookupVerified checks the literal host first, then the www-stripped
// form, so apex and www variants both route to the same binding.  Only
// verified rows resolve; a pending binding must not route traffic.
func (r *Resolver) lookupVerified(ctx context.Context, host string) (*domain.Record, error) {
	for _, candidate := range hostForms(host) {
		rec, err := r.readDomain(ctx, candidate)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if rec.Verified {
			return rec, nil
		}
	}
	return nil, ErrNotFound
}

// readDomain retries a transient store failure once before giving up.
func (r *Resolver) readDomain(ctx context.Context, host string) (*domain.Record, error) {
	rec, err := r.domains.ByDomain(ctx, host)
	if err == nil || errors.Is(err, domain.ErrNotFound) || ctx.Err() != nil {
		return rec, err
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(100 * time.Millisecond):
	}
	return r.domains.ByDomain(ctx, host)
}

// hostForms returns the lookup candidates in spec order.
func hostForms(host string) []string {
	stripped := domain.Normalize(host)
	if stripped == host {
		return []string{host}
	}
	return []string{host, stripped}
}

// stripPort removes any ":port" suffix from the Host header, leaving IPv6
// literals intact.  A bracketed literal loses its brackets; a bare literal
// ("::1") has no port and comes back unchanged.
func stripPort(h string) string {
	if strings.HasPrefix(h, "[") {
		if i := strings.IndexByte(h, ']'); i != -1 {
			return h[1:i]
		}
		return h
	}
	if i := strings.IndexByte(h, ':'); i != -1 {
		if strings.LastIndexByte(h, ':') != i {
			return h
		}
		return h[:i]
	}
	return h
}
