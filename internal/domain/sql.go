// internal/domain/sql.go
//
// MySQL-backed Store and SitePort.
//
// Context
// -------
// Plain sqlx over the `domain` table.  Uniqueness rides on the table's
// UNIQUE KEY; Create translates the duplicate-key error into ErrTaken so
// the engine never sees driver details.  Reassign wraps the whole swap in
// one transaction—domain delete, domain insert, and both sites' field
// updates—so a failure after the delete rolls back instead of leaving the
// domain unowned.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package domain

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/yanizio/loft/internal/database"
	"github.com/yanizio/loft/internal/site"
)

const domainColumns = `
        id, domain, site_id, verification_token,
        verified, verified_at, created_at`

// SQLStore is the production Store.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore wraps an open pool.
func NewSQLStore(db *sqlx.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) ByID(ctx context.Context, id string) (*Record, error) {
	const q = `SELECT` + domainColumns + ` FROM domain WHERE id = ? LIMIT 1;`
	return s.get(ctx, q, id)
}

func (s *SQLStore) ByDomain(ctx context.Context, normalized string) (*Record, error) {
	const q = `SELECT` + domainColumns + ` FROM domain WHERE domain = ? LIMIT 1;`
	return s.get(ctx, q, normalized)
}

func (s *SQLStore) BySite(ctx context.Context, siteID string) (*Record, error) {
	const q = `SELECT` + domainColumns + ` FROM domain WHERE site_id = ? LIMIT 1;`
	return s.get(ctx, q, siteID)
}

func (s *SQLStore) All(ctx context.Context) ([]Record, error) {
	const q = `SELECT` + domainColumns + ` FROM domain ORDER BY created_at DESC;`
	var recs []Record
	if err := s.db.SelectContext(ctx, &recs, q); err != nil {
		return nil, err
	}
	return recs, nil
}

func (s *SQLStore) get(ctx context.Context, q string, arg any) (*Record, error) {
	var rec Record
	if err := s.db.GetContext(ctx, &rec, q, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (s *SQLStore) Create(ctx context.Context, rec *Record) error {
	return insertDomain(ctx, s.db, rec)
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM domain WHERE id = ?;`
	res, err := s.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) MarkVerified(ctx context.Context, id string, at time.Time) error {
	const q = `UPDATE domain SET verified = 1, verified_at = ? WHERE id = ?;`
	res, err := s.db.ExecContext(ctx, q, at, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Reassign swaps ownership inside one transaction.  The delete is verified
// to have removed exactly the expected row; a concurrent removal surfaces
// as ErrConflict so the caller can re-inspect and retry explicitly.
func (s *SQLStore) Reassign(ctx context.Context, oldID string, fresh *Record) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	var old Record
	const sel = `SELECT` + domainColumns + ` FROM domain WHERE id = ? FOR UPDATE;`
	if err := tx.GetContext(ctx, &old, sel, oldID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrConflict
		}
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM domain WHERE id = ?;`, oldID); err != nil {
		return err
	}
	if err := insertDomain(ctx, tx, fresh); err != nil {
		return fmt.Errorf("reassign insert: %w", err)
	}

	if err := site.ClearCustomDomain(ctx, tx, old.SiteID); err != nil && !errors.Is(err, site.ErrNotFound) {
		return err
	}
	if err := site.SetCustomDomain(ctx, tx, fresh.SiteID, fresh.Domain); err != nil {
		return err
	}

	return tx.Commit()
}

// insertDomain works against both the pool and a transaction.
func insertDomain(ctx context.Context, db sqlx.ExtContext, rec *Record) error {
	const q = `
        INSERT INTO domain
               (id, domain, site_id, verification_token, verified)
        VALUES (?, ?, ?, ?, 0);`
	_, err := db.ExecContext(ctx, q, rec.ID, rec.Domain, rec.SiteID, rec.VerificationToken)
	if database.IsDuplicateKey(err) {
		return ErrTaken
	}
	return err
}

//
// SitePort adapter
//

// SQLSites adapts the site repository to the engine's SitePort.
type SQLSites struct {
	db *sqlx.DB
}

// NewSQLSites wraps an open pool.
func NewSQLSites(db *sqlx.DB) *SQLSites { return &SQLSites{db: db} }

func (s *SQLSites) Name(ctx context.Context, siteID string) (string, error) {
	const q = `SELECT name FROM site WHERE site_id = ? LIMIT 1;`
	var name string
	if err := s.db.GetContext(ctx, &name, q, siteID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", site.ErrNotFound
		}
		return "", err
	}
	return name, nil
}

func (s *SQLSites) SetCustomDomain(ctx context.Context, siteID, domain string) error {
	return site.SetCustomDomain(ctx, s.db, siteID, domain)
}

func (s *SQLSites) ClearCustomDomain(ctx context.Context, siteID string) error {
	return site.ClearCustomDomain(ctx, s.db, siteID)
}

func (s *SQLSites) SetDomainVerified(ctx context.Context, siteID string, verified bool) error {
	return site.SetDomainVerified(ctx, s.db, siteID, verified)
}
