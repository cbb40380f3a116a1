// internal/editor/session.go
//
// Editor session: one site's draft, dirty tracking, and autosave.
//
// Context
// -------
// A Session holds exactly one site's draft content in memory while an
// editor works on it.  Dirtiness is a versioned baseline, not deep
// equality: every mutation bumps a sequence number, and the session is
// clean exactly when the persisted sequence equals the current one.  That
// is also what makes the autosave race-safe—when an in-flight save lands,
// it marks the session clean only if no mutation arrived after the save's
// snapshot was taken (compare-and-set on the sequence, never an
// unconditional flip).
//
// Autosave
// --------
// Debounced: a quiet period after the last mutation before persisting, at
// most one save in flight.  A mutation during flight restarts the timer
// without cancelling the flight.  A failed save logs, stays dirty, and
// re-arms the timer.
//
// Switching sites waits for any in-flight save to finish, then discards
// the previous site's state.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package editor

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/loft/internal/content"
	"github.com/yanizio/loft/internal/metrics"
)

// ErrNoSite is returned by mutations before a site is loaded.
var ErrNoSite = errors.New("editor: no site loaded")

// ErrPageNotFound is returned when a mutation targets an unknown page.
var ErrPageNotFound = errors.New("editor: page not found")

// ErrSectionNotFound is returned when a mutation targets an unknown section.
var ErrSectionNotFound = errors.New("editor: section not found")

// ErrBadIndex is returned when a reorder index is out of range.
var ErrBadIndex = errors.New("editor: index out of range")

// Saver persists one site's draft.  The publish pipeline and the HTTP
// layer provide the real implementation over the site repository.
type Saver interface {
	SaveDraft(ctx context.Context, siteID string, cfg *content.Config) error
}

// Session is safe for concurrent use by the editor's request handlers.
type Session struct {
	mu sync.Mutex

	siteID string
	name   string
	cfg    *content.Config

	seq      uint64 // bumped on every mutation
	savedSeq uint64 // seq value last persisted

	saver    Saver
	debounce time.Duration

	timer    *time.Timer
	saving   bool
	inflight sync.WaitGroup

	// afterFunc is swapped by tests to fire the debounce by hand.
	afterFunc func(time.Duration, func()) *time.Timer
}

// NewSession constructs an empty session.  Load must run before any
// mutation.
func NewSession(saver Saver, debounce time.Duration) *Session {
	return &Session{
		saver:     saver,
		debounce:  debounce,
		afterFunc: time.AfterFunc,
	}
}

// Load installs a site's draft and resets to clean.  Any in-flight
// autosave for the previous site completes first; its result is then
// discarded along with the rest of the previous state.
func (s *Session) Load(siteID, name string, cfg *content.Config) {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	s.inflight.Wait()

	s.mu.Lock()
	s.siteID = siteID
	s.name = name
	s.cfg = cfg
	s.seq = 0
	s.savedSeq = 0
	s.mu.Unlock()
}

// Dirty reports whether unsaved mutations exist.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq != s.savedSeq
}

// SiteID returns the loaded site, or "".
func (s *Session) SiteID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.siteID
}

// Content returns a detached snapshot of the current draft.
func (s *Session) Content() (*content.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg == nil {
		return nil, ErrNoSite
	}
	return s.cfg.Clone()
}

// Flush forces a pending autosave through and waits for it, for tests and
// for explicit "save now" UI actions.
func (s *Session) Flush() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	s.startSave()
	s.inflight.Wait()
}

//
// Mutations
//

// AddPage appends a page to the draft.
func (s *Session) AddPage(p content.Page) error {
	return s.mutate(func(cfg *content.Config) error {
		cfg.Pages = append(cfg.Pages, p)
		return nil
	})
}

// UpdatePage overwrites the slug and title of a page.
func (s *Session) UpdatePage(pageID, slug, title string) error {
	return s.mutate(func(cfg *content.Config) error {
		p := findPage(cfg, pageID)
		if p == nil {
			return ErrPageNotFound
		}
		p.Slug = slug
		p.Title = title
		return nil
	})
}

// DeletePage removes a page from the draft.
func (s *Session) DeletePage(pageID string) error {
	return s.mutate(func(cfg *content.Config) error {
		for i := range cfg.Pages {
			if cfg.Pages[i].ID == pageID {
				cfg.Pages = append(cfg.Pages[:i], cfg.Pages[i+1:]...)
				return nil
			}
		}
		return ErrPageNotFound
	})
}

// ReorderPages moves the page at from to position to.
func (s *Session) ReorderPages(from, to int) error {
	return s.mutate(func(cfg *content.Config) error {
		if err := checkRange(len(cfg.Pages), from, to); err != nil {
			return err
		}
		p := cfg.Pages[from]
		cfg.Pages = append(cfg.Pages[:from], cfg.Pages[from+1:]...)
		cfg.Pages = append(cfg.Pages, content.Page{})
		copy(cfg.Pages[to+1:], cfg.Pages[to:])
		cfg.Pages[to] = p
		return nil
	})
}

// AddSection inserts a section into a page, appending when index < 0.
func (s *Session) AddSection(pageID string, sec content.Section, index int) error {
	return s.mutate(func(cfg *content.Config) error {
		p := findPage(cfg, pageID)
		if p == nil {
			return ErrPageNotFound
		}
		if index < 0 || index >= len(p.Sections) {
			p.Sections = append(p.Sections, sec)
			return nil
		}
		p.Sections = append(p.Sections[:index],
			append([]content.Section{sec}, p.Sections[index:]...)...)
		return nil
	})
}

// UpdateSection merges props into a section.
func (s *Session) UpdateSection(pageID, sectionID string, props map[string]any) error {
	return s.mutate(func(cfg *content.Config) error {
		sec := findSection(cfg, pageID, sectionID)
		if sec == nil {
			return ErrSectionNotFound
		}
		if sec.Props == nil {
			sec.Props = make(map[string]any, len(props))
		}
		for k, v := range props {
			sec.Props[k] = v
		}
		return nil
	})
}

// DeleteSection removes a section from a page.
func (s *Session) DeleteSection(pageID, sectionID string) error {
	return s.mutate(func(cfg *content.Config) error {
		p := findPage(cfg, pageID)
		if p == nil {
			return ErrPageNotFound
		}
		for i := range p.Sections {
			if p.Sections[i].ID == sectionID {
				p.Sections = append(p.Sections[:i], p.Sections[i+1:]...)
				return nil
			}
		}
		return ErrSectionNotFound
	})
}

// ReorderSections moves a section within a page.
func (s *Session) ReorderSections(pageID string, from, to int) error {
	return s.mutate(func(cfg *content.Config) error {
		p := findPage(cfg, pageID)
		if p == nil {
			return ErrPageNotFound
		}
		if err := checkRange(len(p.Sections), from, to); err != nil {
			return err
		}
		sec := p.Sections[from]
		p.Sections = append(p.Sections[:from], p.Sections[from+1:]...)
		p.Sections = append(p.Sections, content.Section{})
		copy(p.Sections[to+1:], p.Sections[to:])
		p.Sections[to] = sec
		return nil
	})
}

// UpdateTheme replaces the draft theme.
func (s *Session) UpdateTheme(t *content.Theme) error {
	return s.mutate(func(cfg *content.Config) error {
		cfg.Theme = t
		return nil
	})
}

// UpdateNavigation replaces the draft navigation.
func (s *Session) UpdateNavigation(nav []content.NavItem) error {
	return s.mutate(func(cfg *content.Config) error {
		cfg.Navigation = nav
		return nil
	})
}

//
// Autosave internals
//

// mutate applies fn under the lock, bumps the sequence, and re-arms the
// debounce timer.
func (s *Session) mutate(fn func(*content.Config) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg == nil {
		return ErrNoSite
	}
	if err := fn(s.cfg); err != nil {
		return err
	}
	s.seq++

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = s.afterFunc(s.debounce, s.startSave)
	return nil
}

// startSave launches one autosave unless one is already in flight.  When
// a flight is active, the completion handler re-arms the timer for the
// newer edits, so nothing is lost by returning here.
func (s *Session) startSave() {
	s.mu.Lock()
	if s.cfg == nil || s.saving || s.seq == s.savedSeq {
		s.mu.Unlock()
		return
	}
	snapshot, err := s.cfg.Clone()
	if err != nil {
		s.mu.Unlock()
		zap.S().Errorw("autosave snapshot failed", "err", err)
		return
	}
	siteID := s.siteID
	snapSeq := s.seq
	s.saving = true
	s.timer = nil
	s.inflight.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.inflight.Done()
		err := s.saver.SaveDraft(context.Background(), siteID, snapshot)
		s.finishSave(siteID, snapSeq, err)
	}()
}

// finishSave applies the save outcome.  Clean only when no mutation
// arrived after the snapshot; otherwise stay dirty and re-arm.
func (s *Session) finishSave(siteID string, snapSeq uint64, err error) {
	s.mu.Lock()
	s.saving = false

	// The session may have been re-loaded with another site mid-flight;
	// that save's outcome is irrelevant to the new state.
	if s.siteID != siteID {
		s.mu.Unlock()
		return
	}

	if err != nil {
		metrics.AutosaveTotal.WithLabelValues("failed").Inc()
		if s.timer == nil {
			s.timer = s.afterFunc(s.debounce, s.startSave)
		}
		s.mu.Unlock()
		zap.S().Warnw("autosave failed", "site_id", siteID, "err", err)
		return
	}

	metrics.AutosaveTotal.WithLabelValues("ok").Inc()
	if snapSeq > s.savedSeq {
		s.savedSeq = snapSeq
	}
	dirty := s.seq != s.savedSeq
	if dirty && s.timer == nil {
		s.timer = s.afterFunc(s.debounce, s.startSave)
	}
	s.mu.Unlock()
}

//
// helpers
//

func findPage(cfg *content.Config, pageID string) *content.Page {
	for i := range cfg.Pages {
		if cfg.Pages[i].ID == pageID {
			return &cfg.Pages[i]
		}
	}
	return nil
}

func findSection(cfg *content.Config, pageID, sectionID string) *content.Section {
	p := findPage(cfg, pageID)
	if p == nil {
		return nil
	}
	for i := range p.Sections {
		if p.Sections[i].ID == sectionID {
			return &p.Sections[i]
		}
	}
	return nil
}

func checkRange(n, from, to int) error {
	if from < 0 || from >= n || to < 0 || to >= n {
		return ErrBadIndex
	}
	return nil
}
