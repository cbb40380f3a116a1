// internal/resolver/resolver_test.go
//
// Unit-tests for host resolution order and cache behaviour.
//
// Context
// -------
// Resolution order is platform → subdomain → custom domain, and each step
// has a sharp edge pinned here:
//
//   • `www.<builder-host>` is the platform, but `www.<id>.<builder-host>`
//     is a dead subdomain, never a domain-store lookup
//   • subdomain resolution consults only the site table
//   • custom domains resolve on the literal host first, then the
//     www-stripped form, and only for verified rows
//   • negative results are cached on the shorter TTL, and Invalidate
//     forces the next request back to the store
//
// Workflow / Structure
// --------------------
// fakeReader counts ByDomain calls so tests can assert which paths touch
// the store.  Time is stepped through the cache's swappable `now`.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.

package resolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yanizio/loft/internal/domain"
)

// fakeReader is a DomainReader over a fixed record set with call counting.
type fakeReader struct {
	records map[string]*domain.Record
	calls   int
}

func (f *fakeReader) ByDomain(_ context.Context, normalized string) (*domain.Record, error) {
	f.calls++
	rec, ok := f.records[normalized]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

func newTestResolver(records map[string]*domain.Record, sites map[string]bool) (*Resolver, *fakeReader, *HostCache) {
	reader := &fakeReader{records: records}
	cache := NewHostCache(5*time.Minute, 30*time.Second)
	res := New("loft.example", []string{"10.0.0.5", "::1"}, reader,
		func(_ context.Context, siteID string) (bool, error) {
			return sites[siteID], nil
		},
		cache)
	return res, reader, cache
}

func TestResolvePlatformHosts(t *testing.T) {
	res, reader, _ := newTestResolver(nil, nil)

	for _, host := range []string{
		"loft.example",
		"LOFT.example:443",
		"www.loft.example",
		"localhost:8080",
		"10.0.0.5",
		"10.0.0.5:8080",
		"[::1]:8080",
		"::1",
	} {
		got, err := res.Resolve(context.Background(), host)
		if err != nil {
			t.Errorf("Resolve(%q): %v", host, err)
			continue
		}
		if got.Kind != KindPlatform {
			t.Errorf("Resolve(%q).Kind = %v, want platform", host, got.Kind)
		}
	}
	if reader.calls != 0 {
		t.Errorf("platform hosts hit the domain store %d times", reader.calls)
	}
}

func TestResolveSubdomain(t *testing.T) {
	res, reader, _ := newTestResolver(nil, map[string]bool{"acme-site": true})

	got, err := res.Resolve(context.Background(), "acme-site.loft.example")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Kind != KindSite || got.SiteID != "acme-site" {
		t.Errorf("resolution = %+v", got)
	}

	// Unknown site ID is a 404, and neither case consults the domain store.
	if _, err := res.Resolve(context.Background(), "ghost.loft.example"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown subdomain err = %v, want ErrNotFound", err)
	}
	if reader.calls != 0 {
		t.Errorf("subdomain path hit the domain store %d times", reader.calls)
	}
}

func TestResolveWWWSubdomainDoesNotRoute(t *testing.T) {
	res, _, _ := newTestResolver(nil, map[string]bool{"acme-site": true})

	// The www prefix belongs to the site ID on this path, and no site is
	// named "www.acme-site".
	_, err := res.Resolve(context.Background(), "www.acme-site.loft.example")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestResolveCustomDomainBothForms(t *testing.T) {
	records := map[string]*domain.Record{
		"example.com": {ID: "d1", Domain: "example.com", SiteID: "acme-site", Verified: true},
	}
	res, _, _ := newTestResolver(records, nil)

	for _, host := range []string{"example.com", "www.example.com", "EXAMPLE.com:443"} {
		got, err := res.Resolve(context.Background(), host)
		if err != nil {
			t.Errorf("Resolve(%q): %v", host, err)
			continue
		}
		if got.SiteID != "acme-site" {
			t.Errorf("Resolve(%q).SiteID = %q", host, got.SiteID)
		}
	}
}

func TestResolveUnverifiedDomainDoesNotRoute(t *testing.T) {
	records := map[string]*domain.Record{
		"staging.example.com": {ID: "d2", Domain: "staging.example.com", SiteID: "beta-site"},
	}
	res, _, _ := newTestResolver(records, nil)

	_, err := res.Resolve(context.Background(), "staging.example.com")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestResolveCachesPositiveAndNegative(t *testing.T) {
	records := map[string]*domain.Record{
		"example.com": {ID: "d1", Domain: "example.com", SiteID: "acme-site", Verified: true},
	}
	res, reader, _ := newTestResolver(records, nil)
	ctx := context.Background()

	// Positive: second hit is served from cache.
	if _, err := res.Resolve(ctx, "example.com"); err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	after := reader.calls
	if _, err := res.Resolve(ctx, "example.com"); err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if reader.calls != after {
		t.Errorf("cached resolve hit the store (%d → %d calls)", after, reader.calls)
	}

	// Negative: a miss is cached too.
	if _, err := res.Resolve(ctx, "nope.example.net"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("miss err = %v", err)
	}
	after = reader.calls
	if _, err := res.Resolve(ctx, "nope.example.net"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cached miss err = %v", err)
	}
	if reader.calls != after {
		t.Errorf("cached miss hit the store (%d → %d calls)", after, reader.calls)
	}
}

func TestResolveCacheExpiry(t *testing.T) {
	records := map[string]*domain.Record{
		"example.com": {ID: "d1", Domain: "example.com", SiteID: "acme-site", Verified: true},
	}
	res, reader, cache := newTestResolver(records, nil)
	ctx := context.Background()

	base := time.Now()
	cache.now = func() time.Time { return base }

	if _, err := res.Resolve(ctx, "example.com"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, err := res.Resolve(ctx, "nope.example.net"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("miss err = %v", err)
	}
	calls := reader.calls

	// Step past the negative TTL but not the positive one.
	base = base.Add(31 * time.Second)
	if _, err := res.Resolve(ctx, "example.com"); err != nil {
		t.Fatalf("resolve after step: %v", err)
	}
	if reader.calls != calls {
		t.Error("positive entry expired before its TTL")
	}
	if _, err := res.Resolve(ctx, "nope.example.net"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("miss after step err = %v", err)
	}
	if reader.calls == calls {
		t.Error("negative entry survived past its TTL")
	}

	// Step past the positive TTL as well.
	calls = reader.calls
	base = base.Add(5 * time.Minute)
	if _, err := res.Resolve(ctx, "example.com"); err != nil {
		t.Fatalf("resolve after expiry: %v", err)
	}
	if reader.calls == calls {
		t.Error("expired positive entry served from cache")
	}
}

func TestResolveInvalidate(t *testing.T) {
	records := map[string]*domain.Record{
		"example.com": {ID: "d1", Domain: "example.com", SiteID: "acme-site", Verified: true},
	}
	res, reader, cache := newTestResolver(records, nil)
	ctx := context.Background()

	if _, err := res.Resolve(ctx, "example.com"); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	// Simulate an unlink-and-reassign: the store now maps the domain to a
	// new owner, and the engine invalidated the cached host.
	reader.records["example.com"] = &domain.Record{
		ID: "d9", Domain: "example.com", SiteID: "beta-site", Verified: false,
	}
	cache.Invalidate("example.com")

	// The fresh row is unverified, so the domain stops routing at once.
	if _, err := res.Resolve(ctx, "example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("post-invalidate err = %v, want ErrNotFound", err)
	}
}
