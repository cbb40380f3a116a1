// internal/api/sites_test.go
//
// HTTP-level tests for the site listing and upgrade-check endpoints.
//
// Workflow / Structure
// --------------------
// Same shape as domains_test.go, except the helper keeps the sqlmock
// handle so each test can script the site and template queries.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.

package api

import (
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/yanizio/loft/internal/domain"
	"github.com/yanizio/loft/internal/publish"
	"github.com/yanizio/loft/internal/site"
)

var siteColumns = []string{
	"id", "site_id", "template_id", "template_version", "name",
	"draft_content", "published_content", "deployment_status",
	"custom_domain", "domain_verified", "published_at",
	"created_at", "updated_at",
}

var templateColumns = []string{
	"id", "name", "version", "description", "category",
	"config", "changelog", "active", "created_at", "updated_at",
}

func newSitesAPI(t *testing.T) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { raw.Close() })
	db := sqlx.NewDb(raw, "sqlmock")

	store := domain.NewMemory()
	sites := domain.NewMemorySites(map[string]string{"acme-site": "Acme Landing"})
	store.Bind(sites)
	engine := domain.New(store, sites, nil, "loft.example", time.Second, nil)
	pipeline := publish.New(db, engine, nil)

	a := New(db, engine, store, pipeline, StaticAuthorizer(testToken, "u1"))
	return a.Routes(), mock
}

func siteRows(siteIDs ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows(siteColumns)
	for i, id := range siteIDs {
		rows.AddRow(
			id, id, "tpl-1", "1.0.0", "Site "+id,
			[]byte(`{"pages":[]}`), nil, site.StatusDraft,
			nil, false, nil,
			time.Now().Add(-time.Duration(i)*time.Hour), time.Now(),
		)
	}
	return rows
}

func templateRow(version, changelog string) *sqlmock.Rows {
	var log any
	if changelog != "" {
		log = []byte(changelog)
	}
	return sqlmock.NewRows(templateColumns).AddRow(
		"tpl-1", "Starter", version, nil, nil,
		[]byte(`{"pages":[]}`), log, true,
		time.Now(), time.Now(),
	)
}

func TestListSites(t *testing.T) {
	h, mock := newSitesAPI(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WillReturnRows(siteRows("acme-site", "beta-shop"))

	rr, env := doJSON(t, h, http.MethodGet, "/sites", "", testToken)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	recs, ok := env.Data.([]any)
	if !ok || len(recs) != 2 {
		t.Fatalf("data = %#v, want 2 sites", env.Data)
	}
}

func TestListSitesEmpty(t *testing.T) {
	h, mock := newSitesAPI(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WillReturnRows(sqlmock.NewRows(siteColumns))

	rr, env := doJSON(t, h, http.MethodGet, "/sites", "", testToken)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	// Empty listing is [], never null.
	recs, ok := env.Data.([]any)
	if !ok || len(recs) != 0 {
		t.Fatalf("data = %#v, want empty array", env.Data)
	}
}

func TestCheckUpdatesAvailable(t *testing.T) {
	h, mock := newSitesAPI(t)

	const changelog = `[
          {"version":"1.2.0","date":"2026-08-10","changes":[{"type":"added","description":"gallery section"}]},
          {"version":"1.1.0","date":"2026-07-01","changes":[{"type":"fixed","description":"footer links"}]},
          {"version":"1.0.0","date":"2026-06-01","changes":[{"type":"added","description":"initial release"}]}
        ]`
	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WillReturnRows(siteRows("acme-site"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WillReturnRows(templateRow("1.0.0", ""))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WillReturnRows(templateRow("1.2.0", changelog))

	rr, env := doJSON(t, h, http.MethodGet, "/sites/acme-site/updates", "", testToken)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	data, ok := env.Data.(map[string]any)
	if !ok {
		t.Fatalf("data = %#v", env.Data)
	}
	if data["updateAvailable"] != true {
		t.Errorf("updateAvailable = %v", data["updateAvailable"])
	}
	if data["currentVersion"] != "1.0.0" || data["latestVersion"] != "1.2.0" {
		t.Errorf("versions = %v → %v", data["currentVersion"], data["latestVersion"])
	}
	changes, ok := data["changes"].([]any)
	if !ok || len(changes) != 2 {
		t.Fatalf("changes = %#v, want the two versions after 1.0.0", data["changes"])
	}
}

func TestCheckUpdatesUpToDate(t *testing.T) {
	h, mock := newSitesAPI(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WillReturnRows(siteRows("acme-site"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WillReturnRows(templateRow("1.0.0", ""))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WillReturnRows(templateRow("1.0.0", ""))

	rr, env := doJSON(t, h, http.MethodGet, "/sites/acme-site/updates", "", testToken)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	data, ok := env.Data.(map[string]any)
	if !ok {
		t.Fatalf("data = %#v", env.Data)
	}
	if data["updateAvailable"] != false {
		t.Errorf("updateAvailable = %v, want false", data["updateAvailable"])
	}
	if _, present := data["changes"]; present {
		t.Error("changes present on an up-to-date site")
	}
}

func TestCheckUpdatesUnknownSite(t *testing.T) {
	h, mock := newSitesAPI(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).
		WillReturnRows(sqlmock.NewRows(siteColumns))

	rr, _ := doJSON(t, h, http.MethodGet, "/sites/ghost/updates", "", testToken)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}
