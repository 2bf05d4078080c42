package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/goliatone/go-dynform/pkg/catalogue"
	"github.com/goliatone/go-dynform/pkg/propagation"
)

// writeJSON marshals v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Warn("web: encode response", "error", err)
	}
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorData{Code: code, Message: message})
}

// decodeJSON decodes the request body into v.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// classify maps domain errors to an HTTP status and error code.
func classify(err error) (int, string) {
	var qerr *propagation.ConstraintQueryError
	switch {
	case errors.Is(err, catalogue.ErrCollectionNotFound):
		return http.StatusNotFound, "COLLECTION_NOT_FOUND"
	case errors.Is(err, propagation.ErrUnknownField):
		return http.StatusNotFound, "FIELD_NOT_FOUND"
	case errors.As(err, &qerr):
		return http.StatusBadGateway, "CONSTRAINT_QUERY_FAILED"
	default:
		return http.StatusBadRequest, "INVALID_REQUEST"
	}
}

func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}
