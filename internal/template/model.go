package template

import (
	"encoding/json"
	"time"

	"github.com/yanizio/loft/internal/content"
)

// ChangelogEntry is one change within a template version.
type ChangelogEntry struct {
	Type        string `json:"type"` // added | removed | modified | fixed
	Description string `json:"description"`
	Path        string `json:"path,omitempty"`
}

// VersionChangelog groups the changes shipped in one version.
type VersionChangelog struct {
	Version string           `json:"version"`
	Date    string           `json:"date"`
	Changes []ChangelogEntry `json:"changes"`
}

// ChangelogSince returns the entries newer than current, assuming the
// stored changelog is ordered newest first.  An unknown current version
// returns the whole log, so a site pinned to a retired version still sees
// every change.
func ChangelogSince(log []VersionChangelog, current string) []VersionChangelog {
	for i, v := range log {
		if v.Version == current {
			return log[:i]
		}
	}
	return log
}

// Record mirrors one row in the `template` table.  A template is immutable
// per version: publishing a new version inserts a fresh row and appends to
// the changelog, so Sites can keep referencing the version they cloned.
type Record struct {
	ID          string           `db:"id"          json:"id"`
	Name        string           `db:"name"        json:"name"`
	Version     string           `db:"version"     json:"version"`
	Description *string          `db:"description" json:"description"`
	Category    *string          `db:"category"    json:"category"`
	Config      json.RawMessage  `db:"config"      json:"config"`
	Changelog   *json.RawMessage `db:"changelog"   json:"changelog"`
	Active      bool             `db:"active"      json:"active"`
	CreatedAt   time.Time        `db:"created_at"  json:"createdAt"`
	UpdatedAt   time.Time        `db:"updated_at"  json:"updatedAt"`
}

// ParseConfig decodes the stored config tree.
func (r *Record) ParseConfig() (*content.Config, error) {
	var cfg content.Config
	if err := json.Unmarshal(r.Config, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseChangelog decodes the version history; a NULL column yields nil.
func (r *Record) ParseChangelog() ([]VersionChangelog, error) {
	if r.Changelog == nil || len(*r.Changelog) == 0 {
		return nil, nil
	}
	var log []VersionChangelog
	if err := json.Unmarshal(*r.Changelog, &log); err != nil {
		return nil, err
	}
	return log, nil
}
