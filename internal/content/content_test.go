// internal/content/content_test.go
//
// Unit-tests for slug normalization and Config deep-copy semantics.
//
// Context
// -------
// Two behaviours matter enough to pin here:
//
//   • Raw slugs "/", "", and "index" all address the root page, and only a
//     root-path request falls back to the first page.
//   • Clone() fully detaches nested maps and slices, since publish relies
//     on it for snapshot purity.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.

package content

import "testing"

func rootedConfig() *Config {
	return &Config{
		Pages: []Page{
			{ID: "p1", Slug: "/", Title: "Home", Sections: []Section{
				{ID: "s1", Type: "hero", Props: map[string]any{"headline": "Hi"}},
			}},
			{ID: "p2", Slug: "about", Title: "About"},
		},
	}
}

func TestNormalizeSlug_RootVariants(t *testing.T) {
	for _, raw := range []string{"/", "", "index", "/index/", "Index"} {
		if got := NormalizeSlug(raw); got != "" {
			t.Errorf("NormalizeSlug(%q) = %q, want \"\"", raw, got)
		}
	}
	if got := NormalizeSlug("/About/"); got != "about" {
		t.Errorf("NormalizeSlug(/About/) = %q, want about", got)
	}
}

func TestFindPage_MatchAndRootFallback(t *testing.T) {
	cfg := rootedConfig()

	if p, ok := cfg.FindPage("about"); !ok || p.ID != "p2" {
		t.Fatalf("FindPage(about) = %v, %v", p, ok)
	}
	if p, ok := cfg.FindPage(""); !ok || p.ID != "p1" {
		t.Fatalf("FindPage(\"\") = %v, %v", p, ok)
	}

	// Root fallback applies even without an explicit root slug.
	cfg.Pages[0].Slug = "landing"
	if p, ok := cfg.FindPage("/"); !ok || p.ID != "p1" {
		t.Fatalf("root fallback = %v, %v", p, ok)
	}

	// Non-root misses stay misses.
	if _, ok := cfg.FindPage("pricing"); ok {
		t.Fatal("FindPage(pricing) unexpectedly matched")
	}
}

func TestClone_DetachesNestedState(t *testing.T) {
	cfg := rootedConfig()
	snap, err := cfg.Clone()
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}

	cfg.Pages[0].Sections[0].Props["headline"] = "changed"
	cfg.Pages[0].Title = "changed"
	cfg.Pages = cfg.Pages[:1]

	if got := snap.Pages[0].Sections[0].Props["headline"]; got != "Hi" {
		t.Errorf("snapshot props mutated: %v", got)
	}
	if snap.Pages[0].Title != "Home" || len(snap.Pages) != 2 {
		t.Error("snapshot structure mutated")
	}
}
