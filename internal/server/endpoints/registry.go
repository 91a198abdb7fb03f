// Package endpoints defines the HTTP API surface. Each endpoint bundles
// its route with an optional CLI command, so there is a single source of
// truth for API operations.
package endpoints

import (
	"encoding/json"
	"net/http"

	"github.com/ShipCreekGroup/email-parser/internal/api"
)

// All returns every endpoint, in registration order. The static endpoint
// goes last so its catch-all pattern never shadows API routes.
func All() []api.Endpoint {
	return []api.Endpoint{
		&HealthEndpoint{},
		&StatusEndpoint{},
		&ParseEndpoint{},
		&ExportEndpoint{},
		&StaticEndpoint{},
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
