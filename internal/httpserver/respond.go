// internal/httpserver/respond.go
//
// JSON request/response helpers shared by all route files.
// Error responses always carry the structured {code, message} shape; store
// causes behind a 500 are logged and never leak to the client.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/ti4table/companion/internal/apperr"
)

// writeJSON encodes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps an error onto the taxonomy and writes it. Anything that is
// not an *apperr.Error is treated as a store failure: logged with its cause,
// returned as a generic 500.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	e, ok := apperr.As(err)
	if !ok {
		e, _ = apperr.As(apperr.Store(err))
	}
	if e.HTTP == http.StatusInternalServerError {
		log.Error().Err(errors.Unwrap(e)).Str("path", r.URL.Path).Msg("store failure")
		// static message only
		writeJSON(w, e.HTTP, &apperr.Error{Code: e.Code, Message: "internal store error"})
		return
	}
	writeJSON(w, e.HTTP, e)
}

// errValidation is a shorthand for the 400 branch of the taxonomy.
func errValidation(format string, args ...any) error {
	return apperr.Validation(format, args...)
}

// decode parses the request body into dst, returning a ValidationError on
// malformed JSON.
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validation("invalid request body")
	}
	return nil
}
