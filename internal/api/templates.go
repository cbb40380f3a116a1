// internal/api/templates.go
//
// Template gallery endpoints.
//
// Surface
// -------
//
//	GET /templates                – active templates for the gallery
//	GET /templates/{templateID}   – one template with its changelog
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/loft/internal/template"
)

func (a *API) listTemplates(w http.ResponseWriter, r *http.Request) {
	rows, err := template.AllActive(r.Context(), a.db)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (a *API) getTemplate(w http.ResponseWriter, r *http.Request) {
	rec, err := template.ByID(r.Context(), a.db, chi.URLParam(r, "templateID"))
	if err != nil {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}
	changelog, err := rec.ParseChangelog()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"template":  rec,
		"changelog": changelog,
	})
}
