// Package httpx provides the JSON response envelope shared by all handlers.
package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// Envelope is the uniform response body. List responses set Meta and Items,
// single-resource responses set Data, error responses set neither.
type Envelope struct {
	Message     string    `json:"message"`
	RequestedAt time.Time `json:"requestedAt"`
	RequestID   string    `json:"requestId,omitempty"`
	Meta        any       `json:"meta,omitempty"`
	Items       any       `json:"items,omitempty"`
	Data        any       `json:"data,omitempty"`
}

func write(w http.ResponseWriter, r *http.Request, status int, env Envelope) {
	env.RequestedAt = time.Now().UTC()
	env.RequestID = middleware.GetReqID(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

// OK sends a single-resource response.
func OK(w http.ResponseWriter, r *http.Request, status int, message string, data any) {
	write(w, r, status, Envelope{Message: message, Data: data})
}

// List sends a paginated collection response. Items must be a non-nil slice
// so empty pages encode as [] rather than null.
func List(w http.ResponseWriter, r *http.Request, message string, meta any, items any) {
	write(w, r, http.StatusOK, Envelope{Message: message, Meta: meta, Items: items})
}

// Fail sends an error response carrying only the message.
func Fail(w http.ResponseWriter, r *http.Request, status int, message string) {
	write(w, r, status, Envelope{Message: message})
}

// DecodeJSON decodes the request body into target. Bodies are capped at one
// megabyte and unknown fields are rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("httpx: decode body: %w", err)
	}
	return nil
}
