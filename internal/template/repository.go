package template

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// AllActive returns every template still offered for cloning.  Used by the
// template-gallery endpoint, not by the serving path.
func AllActive(ctx context.Context, db *sqlx.DB) ([]Record, error) {
	const q = `
        SELECT id, name, version, description, category,
               config, changelog, active, created_at, updated_at
        FROM   template
        WHERE  active = 1`
	var rows []Record
	if err := db.SelectContext(ctx, &rows, q); err != nil {
		return nil, err
	}
	return rows, nil
}

// LatestByName returns the newest active version of a template family.
// Versions are immutable rows sharing a name, so "is an upgrade available"
// reduces to comparing a site's pinned version with this row's.
func LatestByName(ctx context.Context, db *sqlx.DB, name string) (*Record, error) {
	const q = `
        SELECT id, name, version, description, category,
               config, changelog, active, created_at, updated_at
        FROM   template
        WHERE  name = ? AND active = 1
        ORDER  BY created_at DESC
        LIMIT  1;`
	var rec Record
	if err := db.GetContext(ctx, &rec, q, name); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ByID fetches a single template row.  The caller supplies a context so
// the lookup respects request deadlines.
func ByID(ctx context.Context, db *sqlx.DB, id string) (*Record, error) {
	const q = `
        SELECT id, name, version, description, category,
               config, changelog, active, created_at, updated_at
        FROM   template
        WHERE  id = ?
        LIMIT  1;`
	var rec Record
	if err := db.GetContext(ctx, &rec, q, id); err != nil {
		return nil, err
	}
	return &rec, nil
}
