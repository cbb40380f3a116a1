// internal/api/respond.go
//
// JSON envelope helpers.  Every response is `{success, data}` or
// `{success, message}` so clients branch on one field, and error mapping
// from the engine's taxonomy to status codes lives in one place.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/yanizio/loft/internal/domain"
	"github.com/yanizio/loft/internal/site"
)

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: status < 400, Data: data}); err != nil {
		zap.S().Errorw("response encode failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Message: message})
}

// writeEngineError maps the binding-engine taxonomy onto HTTP statuses.
// Collisions return the structured payload the editor needs to offer
// unlink-and-reassign without another round-trip.
func writeEngineError(w http.ResponseWriter, err error) {
	var (
		validation *domain.ValidationError
		collision  *domain.CollisionError
		unverified *domain.UnverifiedError
	)
	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, validation.Error())
	case errors.As(err, &collision):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(envelope{
			Success: false,
			Message: collision.Error(),
			Data: map[string]any{
				"isOwner":        collision.IsOwner,
				"domainId":       collision.DomainID,
				"linkedSiteId":   collision.LinkedSiteID,
				"linkedSiteName": collision.LinkedSiteName,
			},
		})
	case errors.As(err, &unverified):
		writeError(w, http.StatusUnprocessableEntity, unverified.Error())
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, site.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "try again")
	default:
		zap.S().Errorw("api internal error", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
