// cmd/web/serve.go
//
// Published-site request handler.
//
// A request that reached this handler already resolved to a site, so the
// only questions left are "is it published?" and "which page?".  Both
// misses are 404s, never 5xx: an unpublished site and an unknown slug
// are ordinary visitor-facing conditions.
package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yanizio/loft/internal/content"
	"github.com/yanizio/loft/internal/render"
	"github.com/yanizio/loft/internal/site"
)

type ctxKey int

const siteIDKey ctxKey = iota

func withSiteID(ctx context.Context, siteID string) context.Context {
	return context.WithValue(ctx, siteIDKey, siteID)
}

func siteIDFromContext(ctx context.Context) string {
	s, _ := ctx.Value(siteIDKey).(string)
	return s
}

type siteHandler struct {
	db *sqlx.DB
}

func newSiteHandler(db *sqlx.DB) *siteHandler { return &siteHandler{db: db} }

func (h *siteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	siteID := siteIDFromContext(r.Context())
	h.serve(w, r, siteID, r.URL.Path, false)
}

// Preview serves draft content on the builder host under
// /preview/{siteID}/…, so editors see unpublished work rendered through
// the same registry the live path uses.
func (h *siteHandler) Preview(w http.ResponseWriter, r *http.Request) {
	siteID := chi.URLParam(r, "siteID")
	h.serve(w, r, siteID, chi.URLParam(r, "*"), true)
}

func (h *siteHandler) serve(w http.ResponseWriter, r *http.Request, siteID, path string, draft bool) {
	rec, err := site.BySiteID(r.Context(), h.db, siteID)
	if err != nil {
		if errors.Is(err, site.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		zap.S().Errorw("load site", "site_id", siteID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	var cfg *content.Config
	if draft {
		cfg, err = rec.ParseDraft()
	} else {
		cfg, err = rec.ParsePublished()
	}
	if err != nil {
		zap.S().Errorw("parse site content", "site_id", siteID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if cfg == nil {
		// Site exists but has never been published.
		http.NotFound(w, r)
		return
	}

	page, ok := cfg.FindPage(path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	html, err := render.Page(page)
	if err != nil {
		zap.S().Errorw("render page", "site_id", siteID, "slug", page.Slug, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}
