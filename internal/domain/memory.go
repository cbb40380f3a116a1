// internal/domain/memory.go
//
// In-memory Store and SitePort.
//
// Context
// -------
// Backs the unit tests, where no MySQL is available.  One mutex guards
// everything, which makes Create's
// check-then-insert and Reassign's swap atomic in exactly the way the
// contracts demand, so the engine's concurrency properties can be tested
// without a database.
package domain

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory is a mutex-guarded Store.  Bind an optional MemorySites so
// Reassign updates both halves the way the SQL transaction does.
type Memory struct {
	mu    sync.Mutex
	byID  map[string]*Record
	sites *MemorySites
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{byID: make(map[string]*Record)}
}

// Bind attaches the site port Reassign should keep in step.
func (m *Memory) Bind(sites *MemorySites) { m.sites = sites }

func (m *Memory) ByID(_ context.Context, id string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.byID[id]; ok {
		cp := *rec
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *Memory) ByDomain(_ context.Context, normalized string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec := m.findDomain(normalized); rec != nil {
		cp := *rec
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *Memory) BySite(_ context.Context, siteID string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.byID {
		if rec.SiteID == siteID {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) All(_ context.Context) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	recs := make([]Record, 0, len(m.byID))
	for _, rec := range m.byID {
		recs = append(recs, *rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].CreatedAt.After(recs[j].CreatedAt)
		}
		return recs[i].ID < recs[j].ID
	})
	return recs, nil
}

func (m *Memory) Create(_ context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findDomain(rec.Domain) != nil {
		return ErrTaken
	}
	cp := *rec
	cp.CreatedAt = time.Now()
	m.byID[cp.ID] = &cp
	return nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *Memory) MarkVerified(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	rec.Verified = true
	rec.VerifiedAt = &at
	return nil
}

func (m *Memory) Reassign(ctx context.Context, oldID string, fresh *Record) error {
	m.mu.Lock()
	old, ok := m.byID[oldID]
	if !ok {
		m.mu.Unlock()
		return ErrConflict
	}
	if other := m.findDomain(fresh.Domain); other != nil && other.ID != oldID {
		m.mu.Unlock()
		return ErrTaken
	}
	delete(m.byID, oldID)
	cp := *fresh
	cp.CreatedAt = time.Now()
	m.byID[cp.ID] = &cp
	m.mu.Unlock()

	if m.sites != nil {
		_ = m.sites.ClearCustomDomain(ctx, old.SiteID)
		_ = m.sites.SetCustomDomain(ctx, cp.SiteID, cp.Domain)
	}
	return nil
}

// findDomain must be called with mu held.
func (m *Memory) findDomain(normalized string) *Record {
	for _, rec := range m.byID {
		if rec.Domain == normalized {
			return rec
		}
	}
	return nil
}

//
// SitePort half
//

// MemorySites is a mutex-guarded SitePort tracking names and domain
// fields per site.
type MemorySites struct {
	mu    sync.Mutex
	names map[string]string
	state map[string]*siteDomainState
}

type siteDomainState struct {
	CustomDomain   string
	DomainVerified bool
}

// NewMemorySites returns an empty site port seeded with names.
func NewMemorySites(names map[string]string) *MemorySites {
	s := &MemorySites{
		names: make(map[string]string, len(names)),
		state: make(map[string]*siteDomainState, len(names)),
	}
	for id, name := range names {
		s.names[id] = name
		s.state[id] = &siteDomainState{}
	}
	return s
}

// State returns a copy of the tracked domain fields for assertions.
func (s *MemorySites) State(siteID string) (customDomain string, verified bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.state[siteID]; ok {
		return st.CustomDomain, st.DomainVerified
	}
	return "", false
}

func (s *MemorySites) Name(_ context.Context, siteID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name, ok := s.names[siteID]; ok {
		return name, nil
	}
	return "", ErrNotFound
}

func (s *MemorySites) SetCustomDomain(_ context.Context, siteID, domain string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachLocked(siteID, domain)
	return nil
}

func (s *MemorySites) ClearCustomDomain(_ context.Context, siteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked(siteID)
	return nil
}

func (s *MemorySites) SetDomainVerified(_ context.Context, siteID string, verified bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.ensureLocked(siteID)
	st.DomainVerified = verified
	return nil
}

func (s *MemorySites) attachLocked(siteID, domain string) {
	st := s.ensureLocked(siteID)
	st.CustomDomain = domain
	st.DomainVerified = false
}

func (s *MemorySites) clearLocked(siteID string) {
	st := s.ensureLocked(siteID)
	st.CustomDomain = ""
	st.DomainVerified = false
}

func (s *MemorySites) ensureLocked(siteID string) *siteDomainState {
	st, ok := s.state[siteID]
	if !ok {
		st = &siteDomainState{}
		s.state[siteID] = st
	}
	return st
}
