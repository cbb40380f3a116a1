// internal/api/api.go
//
// Editor/management API router.
//
// Context
// -------
// Everything under /api requires a bearer credential checked by the
// injected Authorizer.  Handlers stay thin: decode + validate the
// payload, call the engine or pipeline, map errors through the taxonomy
// in respond.go.  Site serving does not pass through here; that is the
// root handler's job in cmd/web.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"github.com/yanizio/loft/internal/domain"
	"github.com/yanizio/loft/internal/publish"
)

// API bundles the dependencies the handlers need.
type API struct {
	db       *sqlx.DB
	engine   *domain.Engine
	domains  domain.Store
	pipeline *publish.Pipeline
	auth     Authorizer
	validate *validator.Validate
}

// New constructs the API.
func New(db *sqlx.DB, engine *domain.Engine, domains domain.Store, pipeline *publish.Pipeline, auth Authorizer) *API {
	return &API{
		db:       db,
		engine:   engine,
		domains:  domains,
		pipeline: pipeline,
		auth:     auth,
		validate: validator.New(),
	}
}

// Routes mounts the authenticated API tree.
func (a *API) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requireAuth(a.auth))

	r.Route("/templates", func(r chi.Router) {
		r.Get("/", a.listTemplates)
		r.Get("/{templateID}", a.getTemplate)
	})

	r.Route("/sites", func(r chi.Router) {
		r.Get("/", a.listSites)
		r.Post("/", a.createSite)
		r.Get("/{siteID}", a.getSite)
		r.Get("/{siteID}/updates", a.checkUpdates)
		r.Put("/{siteID}/draft", a.updateDraft)
		r.Get("/{siteID}/preview", a.getPreview)
		r.Get("/{siteID}/published", a.getPublished)
		r.Post("/{siteID}/publish", a.publishSite)
	})

	r.Route("/domains", func(r chi.Router) {
		r.Get("/", a.listDomains)
		r.Post("/", a.addDomain)
		r.Get("/site/{siteID}", a.getSiteDomain)
		r.Post("/{domainID}/verify", a.verifyDomain)
		r.Get("/{domainID}/dns-status", a.dnsStatus)
		r.Post("/{domainID}/unlink", a.unlinkDomain)
		r.Delete("/{domainID}", a.deleteDomain)
	})

	return r
}

// decode unmarshals and validates a JSON body, writing the 400 itself on
// failure.  Returns false when the handler should stop.
func (a *API) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body")
		return false
	}
	if err := a.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
