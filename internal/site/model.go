package site

import (
	"encoding/json"
	"time"

	"github.com/yanizio/loft/internal/content"
)

// Deployment status values for the `deployment_status` column.  `updating`
// only exists transiently inside a publish; a crash mid-publish is repaired
// by the pipeline's status revert, never left for the serving path to see.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusUpdating  = "updating"
	StatusFailed    = "failed"
)

// Record mirrors one row in the persistent `site` table.  Content lives in
// two JSON columns:
//
//   - DraftContent     – always present, the only content editors mutate.
//   - PublishedContent – NULL until the first publish, then an atomic
//     snapshot of the draft taken at publish time.
//
// SiteID is the short, stable identifier that doubles as the site's
// subdomain label (`<site_id>.<builder-host>`).
type Record struct {
	ID               string           `db:"id"                json:"id"`
	SiteID           string           `db:"site_id"           json:"siteId"`
	TemplateID       string           `db:"template_id"       json:"templateId"`
	TemplateVersion  string           `db:"template_version"  json:"templateVersion"`
	Name             string           `db:"name"              json:"name"`
	DraftContent     json.RawMessage  `db:"draft_content"     json:"draftContent"`
	PublishedContent *json.RawMessage `db:"published_content" json:"publishedContent"`
	DeploymentStatus string           `db:"deployment_status" json:"deploymentStatus"`
	CustomDomain     *string          `db:"custom_domain"     json:"customDomain"`
	DomainVerified   bool             `db:"domain_verified"   json:"domainVerified"`
	PublishedAt      *time.Time       `db:"published_at"      json:"publishedAt"`
	CreatedAt        time.Time        `db:"created_at"        json:"createdAt"`
	UpdatedAt        time.Time        `db:"updated_at"        json:"updatedAt"`
}

// ParseDraft decodes the draft content tree.
func (r *Record) ParseDraft() (*content.Config, error) {
	var cfg content.Config
	if err := json.Unmarshal(r.DraftContent, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParsePublished decodes the published snapshot, or returns (nil, nil)
// when the site has never been published.
func (r *Record) ParsePublished() (*content.Config, error) {
	if r.PublishedContent == nil || len(*r.PublishedContent) == 0 {
		return nil, nil
	}
	var cfg content.Config
	if err := json.Unmarshal(*r.PublishedContent, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
