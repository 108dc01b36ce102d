// Package handler implements the stateless HTTP API: code generation, field
// editing on a posted schema, and the assistant.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/matthewbaird/dtobuddy/internal/types"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 4 << 20

// writeJSON marshals v as JSON and writes it with the given status code. A
// value that cannot be encoded becomes a 500 rather than an empty body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("writeJSON encode error: %v", err)
		status = http.StatusInternalServerError
		data, _ = json.Marshal(map[string]string{"error": "encoding response", "code": "ENCODE_FAILED"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(data, '\n')); err != nil {
		log.Printf("writeJSON write error: %v", err)
	}
}

// writeText writes a plain-text body.
func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if _, err := io.WriteString(w, body); err != nil {
		log.Printf("writeText error: %v", err)
	}
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}

// decodeJSON decodes the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

// decodeSchema decodes a schema body, applying option defaults for
// anything the body omits. It writes the error response itself.
func decodeSchema(w http.ResponseWriter, r *http.Request) (types.Schema, bool) {
	s := types.NewSchema("")
	if err := decodeJSON(w, r, &s); err != nil {
		badJSON(w, err)
		return types.Schema{}, false
	}
	return s.Normalize(), true
}

func badJSON(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "TOO_LARGE", err.Error())
		return
	}
	writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
}
