// internal/content/model.go
//
// Site content model.
//
// Context
// -------
// A site's content is one Config tree: ordered pages, each an ordered list
// of typed sections, plus theme, navigation, and footer.  The same tree is
// stored twice per site—once as the mutable draft and once as the frozen
// published snapshot—so everything here must survive a JSON round-trip
// without loss.  Rendering is an external concern: sections carry an
// opaque `type` tag and a props map, nothing more.
//
// Notes
// -----
//   - Clone() is the only sanctioned way to snapshot a Config.  It round-trips
//     through JSON so nested maps and slices are fully detached from the
//     original.
//   - Oxford commas, two spaces after periods.
package content

import "encoding/json"

//
// Section and page
//

// Section is one typed block inside a page.  Type selects a renderer via
// the render registry; Props is handed to that renderer untouched.
type Section struct {
	ID    string         `json:"id"`
	Type  string         `json:"type"`
	Props map[string]any `json:"props"`
}

// PageSEO carries per-page metadata for the <head> of a rendered page.
type PageSEO struct {
	Description string `json:"description,omitempty"`
	OGImage     string `json:"ogImage,omitempty"`
}

// Page is one addressable page of a site.
type Page struct {
	ID       string    `json:"id"`
	Slug     string    `json:"slug"`
	Title    string    `json:"title"`
	SEO      *PageSEO  `json:"seo,omitempty"`
	Sections []Section `json:"sections"`
}

//
// Theme and navigation
//

// ThemeColors holds the palette slots templates may reference.
type ThemeColors struct {
	Primary    string `json:"primary,omitempty"`
	Secondary  string `json:"secondary,omitempty"`
	Accent     string `json:"accent,omitempty"`
	Background string `json:"background,omitempty"`
	Text       string `json:"text,omitempty"`
}

// Theme is the site-wide look configuration.
type Theme struct {
	Color *ThemeColors `json:"color,omitempty"`
	Font  string       `json:"font,omitempty"`
}

// NavItem is one entry in the site navigation.
type NavItem struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

//
// Config aggregate
//

// Config is the full content tree of a site.  A Template ships one as its
// starting configuration; a Site owns a draft copy and, after the first
// publish, a published copy.
type Config struct {
	Pages      []Page         `json:"pages"`
	Theme      *Theme         `json:"theme,omitempty"`
	Navigation []NavItem      `json:"navigation,omitempty"`
	Footer     map[string]any `json:"footer,omitempty"`
}

// Clone returns a deep copy of the Config.  Later mutations of either copy
// never show through to the other.
func (c *Config) Clone() (*Config, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	var out Config
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
