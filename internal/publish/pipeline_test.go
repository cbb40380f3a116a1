// internal/publish/pipeline_test.go
//
// Unit-tests for the publish pipeline's ordering and failure handling.
//
// Context
// -------
// The pipeline's guarantees are about what does NOT happen:
//
//   • a domain collision on first publish aborts before any status change
//   • a concurrent publish (guard miss) surfaces ErrConflict untouched
//   • a failed snapshot reverts the transient `updating` status
//   • a failed revalidation signal never fails the publish
//
// Workflow / Structure
// --------------------
// sqlmock drives the site table; the expectation order doubles as an
// assertion on the pipeline's statement order.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.

package publish

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/yanizio/loft/internal/domain"
	"github.com/yanizio/loft/internal/site"
)

var siteColumns = []string{
	"id", "site_id", "template_id", "template_version", "name",
	"draft_content", "published_content", "deployment_status",
	"custom_domain", "domain_verified", "published_at",
	"created_at", "updated_at",
}

// siteRow builds one mock row; publishedAt nil means never published.
func siteRow(status string, publishedAt any) *sqlmock.Rows {
	return sqlmock.NewRows(siteColumns).AddRow(
		"u1", "acme-site", "tpl-1", "1.0.0", "Acme Landing",
		[]byte(`{"pages":[]}`), nil, status,
		nil, false, publishedAt,
		time.Now(), time.Now(),
	)
}

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { raw.Close() })
	return sqlx.NewDb(raw, "sqlmock"), mock
}

// fakeBinder returns a canned outcome.
type fakeBinder struct {
	setup *domain.SetupInfo
	err   error
	calls int
}

func (f *fakeBinder) RequestBinding(_ context.Context, _, _ string) (*domain.SetupInfo, error) {
	f.calls++
	return f.setup, f.err
}

// fakeReval records revalidation signals.
type fakeReval struct {
	err   error
	calls int
}

func (f *fakeReval) Revalidate(_ context.Context, _ string) error {
	f.calls++
	return f.err
}

func TestPublishHappyPath(t *testing.T) {
	db, mock := newMock(t)
	reval := &fakeReval{}
	p := New(db, nil, reval)

	prev := time.Now().Add(-time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WillReturnRows(siteRow(site.StatusPublished, prev))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE site SET deployment_status")).
		WithArgs(site.StatusUpdating, "acme-site", site.StatusPublished).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("published_content  = draft_content")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	res, err := p.Publish(context.Background(), "acme-site", Options{})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if res.SiteID != "acme-site" || res.PublishedAt.IsZero() {
		t.Errorf("result = %+v", res)
	}
	if reval.calls != 1 {
		t.Errorf("revalidations = %d, want 1", reval.calls)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPublishGuardMissIsConflict(t *testing.T) {
	db, mock := newMock(t)
	reval := &fakeReval{}
	p := New(db, nil, reval)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WillReturnRows(siteRow(site.StatusDraft, nil))
	// Guard matches zero rows: someone else already moved the status.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE site SET deployment_status")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := p.Publish(context.Background(), "acme-site", Options{})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if reval.calls != 0 {
		t.Error("revalidation fired for a conflicted publish")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPublishSnapshotFailureReverts(t *testing.T) {
	db, mock := newMock(t)
	reval := &fakeReval{}
	p := New(db, nil, reval)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WillReturnRows(siteRow(site.StatusDraft, nil))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE site SET deployment_status")).
		WithArgs(site.StatusUpdating, "acme-site", site.StatusDraft).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("published_content  = draft_content")).
		WillReturnError(errors.New("disk full"))
	// Revert: updating → the prior status.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE site SET deployment_status")).
		WithArgs(site.StatusDraft, "acme-site", site.StatusUpdating).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := p.Publish(context.Background(), "acme-site", Options{})
	if err == nil {
		t.Fatal("Publish succeeded despite snapshot failure")
	}
	if reval.calls != 0 {
		t.Error("revalidation fired for a failed publish")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPublishFirstPublishCollisionAborts(t *testing.T) {
	db, mock := newMock(t)
	binder := &fakeBinder{err: &domain.CollisionError{
		Domain: "example.com", LinkedSiteID: "beta-site",
	}}
	p := New(db, binder, &fakeReval{})

	// Never published, so the binding runs first and its collision must
	// abort the publish before any UPDATE.
	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WillReturnRows(siteRow(site.StatusDraft, nil))

	_, err := p.Publish(context.Background(), "acme-site",
		Options{CustomDomain: "example.com"})
	var coll *domain.CollisionError
	if !errors.As(err, &coll) {
		t.Fatalf("err = %v, want CollisionError", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPublishFirstPublishAttachesDomain(t *testing.T) {
	db, mock := newMock(t)
	setup := &domain.SetupInfo{DomainID: "d1", Domain: "example.com"}
	binder := &fakeBinder{setup: setup}
	p := New(db, binder, &fakeReval{})

	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WillReturnRows(siteRow(site.StatusDraft, nil))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE site SET deployment_status")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("published_content  = draft_content")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	res, err := p.Publish(context.Background(), "acme-site",
		Options{CustomDomain: "example.com"})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if binder.calls != 1 {
		t.Errorf("binder calls = %d, want 1", binder.calls)
	}
	if res.DomainSetup != setup {
		t.Error("result is missing the domain setup")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPublishRepublishSkipsBinder(t *testing.T) {
	db, mock := newMock(t)
	binder := &fakeBinder{}
	p := New(db, binder, &fakeReval{})

	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WillReturnRows(siteRow(site.StatusPublished, time.Now().Add(-time.Hour)))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE site SET deployment_status")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("published_content  = draft_content")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if _, err := p.Publish(context.Background(), "acme-site",
		Options{CustomDomain: "example.com"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if binder.calls != 0 {
		t.Error("binder ran on a re-publish")
	}
}

func TestPublishRevalidationFailureIsNotFatal(t *testing.T) {
	db, mock := newMock(t)
	reval := &fakeReval{err: errors.New("edge cache down")}
	p := New(db, nil, reval)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WillReturnRows(siteRow(site.StatusPublished, time.Now()))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE site SET deployment_status")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("published_content  = draft_content")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if _, err := p.Publish(context.Background(), "acme-site", Options{}); err != nil {
		t.Fatalf("Publish failed on revalidation error: %v", err)
	}
	if reval.calls != 1 {
		t.Errorf("revalidations = %d, want 1", reval.calls)
	}
}
