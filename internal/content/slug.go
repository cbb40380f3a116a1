// internal/content/slug.go
//
// Slug normalization and page lookup.
//
// Rules (NormalizeSlug)
// ---------------------
//  1. Trim leading and trailing “/”.
//  2. Lower-case for comparison.
//  3. The empty result and the literal "index" both mean the root page and
//     normalize to "".
//
// Lookup picks the first page whose normalized slug matches; for the root
// path it additionally falls back to the first page of the site so a site
// without an explicit index slug still has a front page.
package content

import "strings"

// NormalizeSlug converts a raw slug or request path into its canonical
// comparison form.  "" is the root page.
func NormalizeSlug(s string) string {
	s = strings.ToLower(strings.Trim(s, "/"))
	if s == "index" {
		return ""
	}
	return s
}

// FindPage returns the first page matching the requested path, normalized.
// A root-path request falls back to the first page when no slug matches.
// The bool reports whether a page was found.
func (c *Config) FindPage(path string) (*Page, bool) {
	want := NormalizeSlug(path)
	for i := range c.Pages {
		if NormalizeSlug(c.Pages[i].Slug) == want {
			return &c.Pages[i], true
		}
	}
	if want == "" && len(c.Pages) > 0 {
		return &c.Pages[0], true
	}
	return nil, false
}
