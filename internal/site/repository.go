// internal/site/repository.go
//
// SQL access for `site` rows.
//
// Context
// -------
// All functions take the caller's context and an injected *sqlx.DB (or Tx
// via sqlx.ExtContext for the domain engine's transactional paths).  Reads
// are single-row point lookups; writes are single UPDATEs so the store's
// row-level atomicity is the only concurrency control the serving path
// needs.  The publish snapshot is one server-side UPDATE copying the draft
// column into the published column, which keeps it atomic without reading
// the content through the application.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package site

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when no site row matches the lookup.
var ErrNotFound = errors.New("site not found")

const columns = `
        id, site_id, template_id, template_version, name,
        draft_content, published_content, deployment_status,
        custom_domain, domain_verified, published_at,
        created_at, updated_at`

// BySiteID fetches one site row by its stable public identifier.
func BySiteID(ctx context.Context, db sqlx.ExtContext, siteID string) (*Record, error) {
	const q = `SELECT` + columns + `
        FROM   site
        WHERE  site_id = ?
        LIMIT  1;`
	var rec Record
	if err := sqlx.GetContext(ctx, db, &rec, q, siteID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// All returns every site row, newest activity first.  Dashboard listing
// only; never on the serving path.
func All(ctx context.Context, db sqlx.ExtContext) ([]Record, error) {
	const q = `SELECT` + columns + `
        FROM   site
        ORDER  BY updated_at DESC;`
	var recs []Record
	if err := sqlx.SelectContext(ctx, db, &recs, q); err != nil {
		return nil, err
	}
	return recs, nil
}

// Exists reports whether a site row exists for siteID without decoding the
// content columns.  The resolver's subdomain path calls this on every cache
// miss, so it stays a covered-index lookup.
func Exists(ctx context.Context, db sqlx.ExtContext, siteID string) (bool, error) {
	const q = `SELECT 1 FROM site WHERE site_id = ? LIMIT 1;`
	var one int
	if err := sqlx.GetContext(ctx, db, &one, q, siteID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Insert creates a new site row in `draft` status.
func Insert(ctx context.Context, db sqlx.ExtContext, rec *Record) error {
	const q = `
        INSERT INTO site
               (id, site_id, template_id, template_version, name,
                draft_content, deployment_status)
        VALUES (?, ?, ?, ?, ?, ?, ?);`
	_, err := db.ExecContext(ctx, q,
		rec.ID, rec.SiteID, rec.TemplateID, rec.TemplateVersion,
		rec.Name, rec.DraftContent, StatusDraft)
	return err
}

// UpdateDraft overwrites only the draft content column.
func UpdateDraft(ctx context.Context, db sqlx.ExtContext, siteID string, draft []byte) error {
	const q = `UPDATE site SET draft_content = ? WHERE site_id = ?;`
	res, err := db.ExecContext(ctx, q, draft, siteID)
	if err != nil {
		return err
	}
	return oneRow(res)
}

// SetStatus transitions the deployment status.  The publish pipeline uses
// a guarded variant, SetStatusIf, so a revert cannot clobber a concurrent
// publish that already moved the row on.
func SetStatus(ctx context.Context, db sqlx.ExtContext, siteID, status string) error {
	const q = `UPDATE site SET deployment_status = ? WHERE site_id = ?;`
	res, err := db.ExecContext(ctx, q, status, siteID)
	if err != nil {
		return err
	}
	return oneRow(res)
}

// SetStatusIf transitions status only when the row is currently in `from`.
// Returns (false, nil) when the guard did not match.
func SetStatusIf(ctx context.Context, db sqlx.ExtContext, siteID, from, to string) (bool, error) {
	const q = `UPDATE site SET deployment_status = ?
        WHERE site_id = ? AND deployment_status = ?;`
	res, err := db.ExecContext(ctx, q, to, siteID, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Publish copies the draft column into the published column, flips the
// status, and stamps published_at, all in one statement.
func Publish(ctx context.Context, db sqlx.ExtContext, siteID string, at time.Time) error {
	const q = `
        UPDATE site
        SET    published_content  = draft_content,
               deployment_status  = ?,
               published_at       = ?
        WHERE  site_id = ?;`
	res, err := db.ExecContext(ctx, q, StatusPublished, at, siteID)
	if err != nil {
		return err
	}
	return oneRow(res)
}

// SetCustomDomain records the optimistic (unverified) domain attachment.
func SetCustomDomain(ctx context.Context, db sqlx.ExtContext, siteID, domain string) error {
	const q = `UPDATE site
        SET custom_domain = ?, domain_verified = 0
        WHERE site_id = ?;`
	res, err := db.ExecContext(ctx, q, domain, siteID)
	if err != nil {
		return err
	}
	return oneRow(res)
}

// ClearCustomDomain removes the domain attachment and its verified flag.
func ClearCustomDomain(ctx context.Context, db sqlx.ExtContext, siteID string) error {
	const q = `UPDATE site
        SET custom_domain = NULL, domain_verified = 0
        WHERE site_id = ?;`
	res, err := db.ExecContext(ctx, q, siteID)
	if err != nil {
		return err
	}
	return oneRow(res)
}

// SetDomainVerified flips the verified flag after a successful DNS check.
func SetDomainVerified(ctx context.Context, db sqlx.ExtContext, siteID string, verified bool) error {
	const q = `UPDATE site SET domain_verified = ? WHERE site_id = ?;`
	res, err := db.ExecContext(ctx, q, verified, siteID)
	if err != nil {
		return err
	}
	return oneRow(res)
}

// oneRow maps "no row matched" onto ErrNotFound so callers need not
// inspect RowsAffected themselves.  Connections are opened with
// clientFoundRows, so RowsAffected counts matched rows and a no-op
// update on an existing row still reports 1.
func oneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
