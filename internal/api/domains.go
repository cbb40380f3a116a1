// internal/api/domains.go
//
// Domain binding endpoints.
//
// Surface
// -------
//
//	GET    /domains                       – all bindings, newest first
//	POST   /domains                       – request a binding for a site
//	GET    /domains/site/{siteID}         – the site's current binding
//	POST   /domains/{domainID}/verify     – run the DNS TXT challenge
//	GET    /domains/{domainID}/dns-status – non-mutating challenge check
//	POST   /domains/{domainID}/unlink     – unlink-and-reassign to a new site
//	DELETE /domains/{domainID}            – remove the binding
//
// A collision on POST /domains returns 409 with the owning site's
// identity, which is everything the editor needs to render the "this
// domain is in use — move it here?" dialog and call unlink directly.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/loft/internal/domain"
)

type addDomainRequest struct {
	SiteID string `json:"siteId" validate:"required"`
	Domain string `json:"domain" validate:"required"`
}

type unlinkRequest struct {
	NewSiteID string `json:"newSiteId" validate:"required"`
	Domain    string `json:"domain"    validate:"required"`
}

func (a *API) listDomains(w http.ResponseWriter, r *http.Request) {
	recs, err := a.domains.All(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if recs == nil {
		recs = []domain.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (a *API) addDomain(w http.ResponseWriter, r *http.Request) {
	var req addDomainRequest
	if !a.decode(w, r, &req) {
		return
	}
	setup, err := a.engine.RequestBinding(r.Context(), req.SiteID, req.Domain)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, setup)
}

func (a *API) getSiteDomain(w http.ResponseWriter, r *http.Request) {
	rec, err := a.domains.BySite(r.Context(), chi.URLParam(r, "siteID"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (a *API) verifyDomain(w http.ResponseWriter, r *http.Request) {
	rec, err := a.engine.Verify(r.Context(), chi.URLParam(r, "domainID"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (a *API) dnsStatus(w http.ResponseWriter, r *http.Request) {
	verified, message, err := a.engine.DNSStatus(r.Context(), chi.URLParam(r, "domainID"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"verified": verified,
		"message":  message,
	})
}

func (a *API) unlinkDomain(w http.ResponseWriter, r *http.Request) {
	var req unlinkRequest
	if !a.decode(w, r, &req) {
		return
	}
	setup, err := a.engine.UnlinkAndReassign(r.Context(),
		chi.URLParam(r, "domainID"), req.NewSiteID, req.Domain)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, setup)
}

func (a *API) deleteDomain(w http.ResponseWriter, r *http.Request) {
	if err := a.engine.RemoveByID(r.Context(), chi.URLParam(r, "domainID")); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
