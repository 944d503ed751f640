// Package decks exposes roster editing over HTTP: deck listing, role
// map saves and the available-responder pool for the deck under edit.
package decks

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/openaid/respond/core/assign"
	"github.com/openaid/respond/core/deck"
	"github.com/openaid/respond/core/model"
	"github.com/openaid/respond/core/roster"
	"github.com/openaid/respond/core/store"
)

func authorized(r *http.Request, token string) bool {
	if token == "" {
		return true
	}
	return r.Header.Get("Authorization") == "Bearer "+token
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// NewListHandler serves GET /api/decks. With a key query parameter it
// returns one roster's deck list; without it, every roster.
func NewListHandler(decks *deck.Store, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !authorized(r, token) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if k := r.URL.Query().Get("key"); k != "" {
			key, err := model.ParseDeckKey(k)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			writeJSON(w, decks.Decks(key))
			return
		}
		writeJSON(w, decks.Snapshot())
	})
}

// NewAddHandler serves POST /api/decks, appending an empty deck to the
// roster named in the body.
func NewAddHandler(decks *deck.Store, token string) http.Handler {
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
			Key string `json:"key"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}
		key, err := model.ParseDeckKey(body.Key)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		d, err := decks.AddDeck(r.Context(), key)
		if err != nil {
			status := http.StatusInternalServerError
			switch {
			case errors.Is(err, deck.ErrCapacityExceeded):
				status = http.StatusConflict
			case errors.Is(err, store.ErrWriteFailed):
				status = http.StatusBadGateway
			}
			http.Error(w, err.Error(), status)
			return
		}
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, d)
	})
}

// NewSaveHandler serves PUT /api/decks, overwriting one deck's role
// map. The write replaces the whole roster document.
func NewSaveHandler(decks *deck.Store, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !authorized(r, token) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var body struct {
			Key   string                                 `json:"key"`
			Index int                                    `json:"index"`
			Roles map[model.RoleSlot]*model.ResponderRef `json:"roles"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}
		key, err := model.ParseDeckKey(body.Key)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		d, err := decks.Save(r.Context(), key, body.Index, body.Roles)
		if err != nil {
			status := http.StatusBadRequest
			switch {
			case errors.Is(err, deck.ErrConflictingAssignment):
				status = http.StatusConflict
			case errors.Is(err, store.ErrWriteFailed):
				status = http.StatusBadGateway
			}
			http.Error(w, err.Error(), status)
			return
		}
		writeJSON(w, d)
	})
}

// RotateResult reports one rotation sweep.
type RotateResult struct {
	Rosters int `json:"rosters"`
	Rotated int `json:"rotated"`
}

// NewRotateHandler serves POST /api/decks/rotate, sweeping every roster
// through the rotation check on the service's own store.
func NewRotateHandler(decks *deck.Store, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !authorized(r, token) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		rotated := decks.RotateAll(r.Context())
		writeJSON(w, RotateResult{Rosters: len(decks.Keys()), Rotated: rotated})
	})
}

// NewPoolHandler serves GET /api/decks/pool, returning the responders
// placeable on the deck named by the key and index query parameters.
func NewPoolHandler(decks *deck.Store, directory *roster.Directory, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !authorized(r, token) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		key, err := model.ParseDeckKey(r.URL.Query().Get("key"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		index := 0
		if s := r.URL.Query().Get("index"); s != "" {
			if index, err = strconv.Atoi(s); err != nil {
				http.Error(w, "invalid index", http.StatusBadRequest)
				return
			}
		}
		list := decks.Decks(key)
		var assigned []string
		if index >= 0 && index < len(list) {
			assigned = list[index].AssignedUIDs()
		}
		excluded := assign.ExclusionSet(decks.Snapshot(), key)
		pool := assign.AvailablePool(directory.All(), excluded, assigned, time.Now())
		writeJSON(w, pool)
	})
}
