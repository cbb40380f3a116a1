// internal/render/registry.go
//
// Section renderer registry and lookup helpers.
//
// A **Renderer** turns one section's props into HTML.  Concrete renderers
// live with whoever owns the visual component library and register
// themselves by calling `render.Register(&Hero{})` in an init() func; this
// core ships only the registry and the fallback.
//
// The key used for registration is the section's `type` tag—e.g. "hero"
// or "pricing"—and must be returned by the renderer's `Type` method.
// Unknown tags render through the fallback, a visible notice rather than
// a silent drop, so a site whose template gained a new section type still
// renders the rest of the page.
package render

import (
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/yanizio/loft/internal/content"
)

// Renderer turns a props map into an HTML fragment.  Implementations must
// treat missing props defensively (nil map) and return errors rather than
// writing to any response themselves.
type Renderer interface {
	Type() string
	Render(props map[string]any) (string, error)
}

// Fallback renders sections whose type tag has no registered Renderer.
type Fallback func(typeTag string, props map[string]any) (string, error)

var (
	mu       sync.RWMutex
	registry          = map[string]Renderer{}
	fallback Fallback = defaultFallback
)

// Register is called from renderer init() functions.
func Register(r Renderer) {
	mu.Lock()
	registry[r.Type()] = r
	mu.Unlock()
}

// SetFallback replaces the notice used for unknown type tags.
func SetFallback(f Fallback) {
	mu.Lock()
	fallback = f
	mu.Unlock()
}

// Lookup returns the renderer for a type tag.  The bool reports whether
// the tag was registered.
func Lookup(typeTag string) (Renderer, bool) {
	mu.RLock()
	defer mu.RUnlock()
	r, ok := registry[typeTag]
	return r, ok
}

// Section renders one section, dispatching on its type tag and falling
// back for unknown tags.
func Section(sec content.Section) (string, error) {
	if r, ok := Lookup(sec.Type); ok {
		return r.Render(sec.Props)
	}
	mu.RLock()
	f := fallback
	mu.RUnlock()
	return f(sec.Type, sec.Props)
}

// Page renders a page's sections in order, concatenated.
func Page(p *content.Page) (string, error) {
	var b strings.Builder
	for _, sec := range p.Sections {
		frag, err := Section(sec)
		if err != nil {
			return "", fmt.Errorf("render section %s: %w", sec.ID, err)
		}
		b.WriteString(frag)
	}
	return b.String(), nil
}

// defaultFallback is a visible notice naming the unrenderable type.
func defaultFallback(typeTag string, _ map[string]any) (string, error) {
	return fmt.Sprintf(
		`<div class="section-fallback">Unknown section type %q</div>`,
		html.EscapeString(typeTag)), nil
}
