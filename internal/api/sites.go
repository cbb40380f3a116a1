// internal/api/sites.go
//
// Site lifecycle endpoints.
//
// Surface
// -------
//
//	GET  /sites                      – all sites, newest activity first
//	POST /sites                      – clone a template into a new site
//	GET  /sites/{siteID}             – full site record
//	GET  /sites/{siteID}/updates     – template upgrade check
//	PUT  /sites/{siteID}/draft       – replace draft content
//	GET  /sites/{siteID}/preview     – draft content (editor preview)
//	GET  /sites/{siteID}/published   – published snapshot
//	POST /sites/{siteID}/publish     – run the publish pipeline
//
// Draft updates are whole-tree replacements: the editor session owns
// incremental mutation client-side and persists the merged tree, which
// keeps this endpoint a single UPDATE with no merge logic on the server.
package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/yanizio/loft/internal/content"
	"github.com/yanizio/loft/internal/database"
	"github.com/yanizio/loft/internal/publish"
	"github.com/yanizio/loft/internal/site"
	"github.com/yanizio/loft/internal/template"
)

type createSiteRequest struct {
	TemplateID string `json:"templateId" validate:"required"`
	Name       string `json:"name"       validate:"required,max=190"`
}

type updateDraftRequest struct {
	Content *content.Config `json:"content" validate:"required"`
}

type publishRequest struct {
	CustomDomain string `json:"customDomain"`
}

// createSite clones the template's config into a fresh draft.
func (a *API) createSite(w http.ResponseWriter, r *http.Request) {
	var req createSiteRequest
	if !a.decode(w, r, &req) {
		return
	}

	tpl, err := template.ByID(r.Context(), a.db, req.TemplateID)
	if err != nil {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}
	cfg, err := tpl.ParseConfig()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	clone, err := cfg.Clone()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	draft, err := json.Marshal(clone)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	rec := &site.Record{
		ID:              uuid.NewString(),
		SiteID:          site.MakeSiteID(req.Name),
		TemplateID:      tpl.ID,
		TemplateVersion: tpl.Version,
		Name:            req.Name,
		DraftContent:    draft,
	}
	err = site.Insert(r.Context(), a.db, rec)
	if database.IsDuplicateKey(err) {
		// Label collision with an existing site; retry once with a suffix.
		rec.SiteID = site.WithRandomSuffix(rec.SiteID)
		err = site.Insert(r.Context(), a.db, rec)
	}
	if err != nil {
		writeEngineError(w, err)
		return
	}

	created, err := site.BySiteID(r.Context(), a.db, rec.SiteID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (a *API) listSites(w http.ResponseWriter, r *http.Request) {
	recs, err := site.All(r.Context(), a.db)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if recs == nil {
		recs = []site.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (a *API) getSite(w http.ResponseWriter, r *http.Request) {
	rec, err := site.BySiteID(r.Context(), a.db, chi.URLParam(r, "siteID"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// checkUpdates compares the site's pinned template version with the newest
// active version of the same family and reports the changelog entries in
// between.  Applying an update stays a client-side concern; the editor
// merges the new defaults into the draft and saves through PUT /draft.
func (a *API) checkUpdates(w http.ResponseWriter, r *http.Request) {
	rec, err := site.BySiteID(r.Context(), a.db, chi.URLParam(r, "siteID"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	tpl, err := template.ByID(r.Context(), a.db, rec.TemplateID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "template not found")
			return
		}
		writeEngineError(w, err)
		return
	}
	latest, err := template.LatestByName(r.Context(), a.db, tpl.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Family retired entirely; nothing to upgrade to.
			latest = tpl
		} else {
			writeEngineError(w, err)
			return
		}
	}

	resp := map[string]any{
		"updateAvailable": false,
		"currentVersion":  rec.TemplateVersion,
		"latestVersion":   latest.Version,
	}
	if latest.Version != rec.TemplateVersion {
		log, err := latest.ParseChangelog()
		if err != nil {
			writeEngineError(w, err)
			return
		}
		resp["updateAvailable"] = true
		resp["changes"] = template.ChangelogSince(log, rec.TemplateVersion)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) updateDraft(w http.ResponseWriter, r *http.Request) {
	var req updateDraftRequest
	if !a.decode(w, r, &req) {
		return
	}
	draft, err := json.Marshal(req.Content)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if err := site.UpdateDraft(r.Context(), a.db, chi.URLParam(r, "siteID"), draft); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (a *API) getPreview(w http.ResponseWriter, r *http.Request) {
	rec, err := site.BySiteID(r.Context(), a.db, chi.URLParam(r, "siteID"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	cfg, err := rec.ParseDraft()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (a *API) getPublished(w http.ResponseWriter, r *http.Request) {
	rec, err := site.BySiteID(r.Context(), a.db, chi.URLParam(r, "siteID"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	cfg, err := rec.ParsePublished()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if cfg == nil {
		writeError(w, http.StatusNotFound, "site has not been published")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (a *API) publishSite(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	// Publish without a body is legal; only decode when one is present.
	if r.ContentLength > 0 {
		if !a.decode(w, r, &req) {
			return
		}
	}

	result, err := a.pipeline.Publish(r.Context(), chi.URLParam(r, "siteID"),
		publish.Options{CustomDomain: req.CustomDomain})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
