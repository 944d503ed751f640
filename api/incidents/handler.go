// Package incidents exposes the incident lifecycle over HTTP. Handlers
// follow the service's plain net/http style: one handler per route,
// optional bearer-token check, JSON in and out.
package incidents

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/openaid/respond/core/incident"
	"github.com/openaid/respond/core/store"
)

// authorized checks the Authorization header when token is non-empty.
func authorized(r *http.Request, token string) bool {
	if token == "" {
		return true
	}
	return r.Header.Get("Authorization") == "Bearer "+token
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, incident.ErrValidation), errors.Is(err, incident.ErrInvalidReason):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, incident.ErrAlreadyClosed):
		return http.StatusConflict
	case errors.Is(err, incident.ErrLocationUnresolved),
		errors.Is(err, incident.ErrTeamUnavailable),
		errors.Is(err, incident.ErrNoAvailableResponders),
		errors.Is(err, incident.ErrUnknownTeam):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrWriteFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// NewCreateHandler serves POST /api/incidents.
func NewCreateHandler(coord *incident.Coordinator, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !authorized(r, token) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var form incident.Form
		if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}
		inc, err := coord.Create(r.Context(), form)
		if err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, inc)
	})
}

// NewListHandler serves GET /api/incidents.
func NewListHandler(coord *incident.Coordinator, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !authorized(r, token) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		incidents, err := coord.List(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, incidents)
	})
}

// NewAcknowledgeHandler serves POST /api/incidents/{id}/acknowledge.
func NewAcknowledgeHandler(coord *incident.Coordinator, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !authorized(r, token) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var body struct {
			TeamName string `json:"team_name"`
			ByUID    string `json:"by_uid"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}
		inc, err := coord.Acknowledge(r.Context(), r.PathValue("id"), body.TeamName, body.ByUID)
		if err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		writeJSON(w, inc)
	})
}

// NewCancelHandler serves POST /api/incidents/{id}/cancel.
func NewCancelHandler(coord *incident.Coordinator, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !authorized(r, token) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var body struct {
			Reason string `json:"reason"`
			Detail string `json:"detail"`
			ByUID  string `json:"by_uid"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}
		inc, err := coord.Cancel(r.Context(), r.PathValue("id"), body.Reason, body.Detail, body.ByUID)
		if err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		writeJSON(w, inc)
	})
}

// NewResolveHandler serves POST /api/incidents/{id}/resolve.
func NewResolveHandler(coord *incident.Coordinator, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !authorized(r, token) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var body struct {
			ByUID string `json:"by_uid"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}
		inc, err := coord.Resolve(r.Context(), r.PathValue("id"), body.ByUID)
		if err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		writeJSON(w, inc)
	})
}
