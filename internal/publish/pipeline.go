// internal/publish/pipeline.go
//
// Publish pipeline: draft → published snapshot.
//
// Context
// -------
// Publishing is four steps, each with explicit failure handling:
//
//  1. Optional first-publish domain binding.  A collision aborts the
//     whole publish with the site's content untouched; the caller gets
//     the CollisionError unchanged so the UI can offer unlink-and-
//     reassign directly.
//  2. Snapshot draft content into published content.  The copy happens
//     server-side in one UPDATE, so later draft edits can never
//     retroactively alter what was published.
//  3. Flip deployment status to published and stamp published_at (same
//     statement as step 2).
//  4. Signal downstream cache revalidation.  Fired only after the
//     snapshot succeeded and before the publish is reported successful.
//
// The transient `updating` status is guarded: on any snapshot failure the
// status reverts to its prior value so a site is never stranded in
// `updating`, and the caller may simply retry.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yanizio/loft/internal/domain"
	"github.com/yanizio/loft/internal/metrics"
	"github.com/yanizio/loft/internal/site"
)

// Binder is the slice of the domain engine the pipeline needs.
type Binder interface {
	RequestBinding(ctx context.Context, siteID, domainStr string) (*domain.SetupInfo, error)
}

// Revalidator tells the downstream cache layer a site's published pages
// are stale.  It is an external collaborator; failures are logged, not
// fatal, since TTL expiry bounds the staleness window regardless.
type Revalidator interface {
	Revalidate(ctx context.Context, siteID string) error
}

// Options modifies one publish.
type Options struct {
	// CustomDomain triggers a binding request on the site's first
	// publish.  Ignored on subsequent publishes.
	CustomDomain string
}

// Result reports a completed publish.
type Result struct {
	SiteID      string            `json:"siteId"`
	PublishedAt time.Time         `json:"publishedAt"`
	DomainSetup *domain.SetupInfo `json:"domainSetup,omitempty"`
}

// Pipeline executes publishes against the site store.
type Pipeline struct {
	db     *sqlx.DB
	binder Binder
	reval  Revalidator
}

// New constructs a Pipeline.  binder may be nil when domain attachment at
// publish time is not offered (e.g. the admin CLI).
func New(db *sqlx.DB, binder Binder, reval Revalidator) *Pipeline {
	if reval == nil {
		reval = LogRevalidator{}
	}
	return &Pipeline{db: db, binder: binder, reval: reval}
}

// Publish snapshots siteID's draft into its published content.
func (p *Pipeline) Publish(ctx context.Context, siteID string, opts Options) (*Result, error) {
	rec, err := site.BySiteID(ctx, p.db, siteID)
	if err != nil {
		return nil, err
	}

	// 1. First-publish domain attachment.
	var setup *domain.SetupInfo
	if opts.CustomDomain != "" && rec.PublishedAt == nil && p.binder != nil {
		setup, err = p.binder.RequestBinding(ctx, siteID, opts.CustomDomain)
		if err != nil {
			var collision *domain.CollisionError
			if errors.As(err, &collision) {
				metrics.PublishTotal.WithLabelValues("collision").Inc()
			}
			return nil, err
		}
	}

	// Mark updating, remembering what to revert to.
	prior := rec.DeploymentStatus
	moved, err := site.SetStatusIf(ctx, p.db, siteID, prior, site.StatusUpdating)
	if err != nil {
		return nil, err
	}
	if !moved {
		// Another publish is mid-flight; surface "try again" rather than
		// racing it.
		return nil, fmt.Errorf("publish %s: %w", siteID, domain.ErrConflict)
	}

	// 2 + 3. Atomic snapshot, status flip, and timestamp.
	at := time.Now().UTC()
	if err := site.Publish(ctx, p.db, siteID, at); err != nil {
		p.revert(ctx, siteID, prior)
		metrics.PublishTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	// 4. Downstream revalidation.
	if err := p.reval.Revalidate(ctx, siteID); err != nil {
		zap.S().Warnw("revalidation signal failed", "site_id", siteID, "err", err)
	}

	metrics.PublishTotal.WithLabelValues("ok").Inc()
	zap.S().Infow("site published", "site_id", siteID, "published_at", at)
	return &Result{SiteID: siteID, PublishedAt: at, DomainSetup: setup}, nil
}

// revert undoes the `updating` marker after a failed snapshot.
func (p *Pipeline) revert(ctx context.Context, siteID, prior string) {
	if _, err := site.SetStatusIf(ctx, p.db, siteID, site.StatusUpdating, prior); err != nil {
		zap.S().Errorw("publish status revert failed",
			"site_id", siteID, "prior", prior, "err", err)
	}
}

//
// Revalidators
//

// HTTPRevalidator POSTs {"siteId": …} to the configured endpoint.
type HTTPRevalidator struct {
	URL     string
	Client  *http.Client
	Timeout time.Duration
}

func (h HTTPRevalidator) Revalidate(ctx context.Context, siteID string) error {
	cli := h.Client
	if cli == nil {
		cli = http.DefaultClient
	}
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	body, _ := json.Marshal(map[string]string{"siteId": siteID})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := cli.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("revalidate %s: status %d", siteID, resp.StatusCode)
	}
	return nil
}

// LogRevalidator only logs; the dev default.
type LogRevalidator struct{}

func (LogRevalidator) Revalidate(_ context.Context, siteID string) error {
	zap.S().Infow("revalidation requested", "site_id", siteID)
	return nil
}
