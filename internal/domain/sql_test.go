// internal/domain/sql_test.go
//
// Unit-tests for the SQL store's transactional reassign and duplicate-key
// translation.
//
// Context
// -------
// Reassign must run as one transaction with the old row locked first, so
// the expectation order here IS the atomicity contract: begin, select for
// update, delete, insert, both site updates, commit.  A duplicate-key
// insert anywhere must surface as ErrTaken, never as a driver error.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.

package domain

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func newMockStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { raw.Close() })
	return NewSQLStore(sqlx.NewDb(raw, "sqlmock")), mock
}

var domainCols = []string{
	"id", "domain", "site_id", "verification_token",
	"verified", "verified_at", "created_at",
}

func TestSQLStoreCreateTranslatesDuplicateKey(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO domain")).
		WillReturnError(errors.New("Error 1062: Duplicate entry 'example.com' for key 'uq_domain_domain'"))

	err := store.Create(context.Background(), &Record{
		ID: "d1", Domain: "example.com", SiteID: "acme-site",
		VerificationToken: "tok",
	})
	if !errors.Is(err, ErrTaken) {
		t.Fatalf("err = %v, want ErrTaken", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSQLStoreReassignStatementOrder(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("d1").
		WillReturnRows(sqlmock.NewRows(domainCols).AddRow(
			"d1", "example.com", "acme-site", "tok-old", true, time.Now(), time.Now()))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM domain")).
		WithArgs("d1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO domain")).
		WithArgs("d2", "example.com", "beta-site", "tok-new").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("custom_domain = NULL")).
		WithArgs("acme-site").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("custom_domain = ?")).
		WithArgs("example.com", "beta-site").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.Reassign(context.Background(), "d1", &Record{
		ID: "d2", Domain: "example.com", SiteID: "beta-site",
		VerificationToken: "tok-new",
	})
	if err != nil {
		t.Fatalf("Reassign: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSQLStoreReassignVanishedRowIsConflict(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("d1").
		WillReturnRows(sqlmock.NewRows(domainCols))
	mock.ExpectRollback()

	err := store.Reassign(context.Background(), "d1", &Record{ID: "d2"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSQLStoreReassignInsertFailureRollsBack(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows(domainCols).AddRow(
			"d1", "example.com", "acme-site", "tok-old", false, nil, time.Now()))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM domain")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO domain")).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	if err := store.Reassign(context.Background(), "d1", &Record{
		ID: "d2", Domain: "example.com", SiteID: "beta-site",
	}); err == nil {
		t.Fatal("Reassign succeeded despite insert failure")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
