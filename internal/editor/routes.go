package editor

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matthewbaird/dtobuddy/internal/activity"
	"github.com/matthewbaird/dtobuddy/internal/event"
	"github.com/matthewbaird/dtobuddy/internal/types"
)

// RegisterRoutes registers the editor's HTTP and WebSocket routes. Session
// history is read from history, which may be nil.
func RegisterRoutes(r chi.Router, h *Handler, history activity.Store) {
	r.Route("/v1/editor", func(r chi.Router) {
		r.Get("/ws", h.ServeHTTP)

		// Session create endpoint; the body, if any, is the starting schema.
		r.Post("/session", func(w http.ResponseWriter, r *http.Request) {
			s := types.NewSchema("")
			if err := json.NewDecoder(r.Body).Decode(&s); err != nil && !errors.Is(err, io.EOF) {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
				return
			}
			sess, err := h.sessions.Create(s)
			if err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_SCHEMA", err.Error())
				return
			}
			h.record(r.Context(), event.NewSessionOpened(event.SessionOpenedPayload{SessionID: sess.ID, SchemaName: s.Name}))
			writeJSON(w, http.StatusCreated, sess.Info())
		})

		r.Get("/session/{id}", func(w http.ResponseWriter, r *http.Request) {
			sess := h.sessions.Get(chi.URLParam(r, "id"))
			if sess == nil {
				writeError(w, http.StatusNotFound, "NOT_FOUND", "session not found")
				return
			}
			writeJSON(w, http.StatusOK, sess.Info())
		})

		r.Delete("/session/{id}", func(w http.ResponseWriter, r *http.Request) {
			h.sessions.Remove(chi.URLParam(r, "id"))
			w.WriteHeader(http.StatusNoContent)
		})

		r.Get("/session/{id}/events", func(w http.ResponseWriter, r *http.Request) {
			if history == nil {
				writeError(w, http.StatusNotFound, "NOT_FOUND", "event history is disabled")
				return
			}
			opts := activity.DefaultQueryOptions()
			if v := r.URL.Query().Get("limit"); v != "" {
				if n, err := strconv.Atoi(v); err == nil && n > 0 {
					opts.Limit = n
				}
			}
			if c := r.URL.Query()["category"]; len(c) > 0 {
				opts.Categories = c
			}
			entries, total, err := history.QueryBySubject(r.Context(), "session", chi.URLParam(r, "id"), opts)
			if err != nil {
				log.Printf("editor: querying history: %v", err)
				writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
				return
			}
			if entries == nil {
				entries = []activity.Entry{}
			}
			writeJSON(w, http.StatusOK, map[string]any{"entries": entries, "total": total})
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("editor: encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": message, "code": code})
}
