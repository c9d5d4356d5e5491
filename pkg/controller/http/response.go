package http

import (
	"encoding/json"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/nagare/pkg/domain/types/apperr"
	"github.com/m-mizutani/nagare/pkg/utils/errors"
)

// decodeJSON decodes a request body, rejecting unparseable input as 400
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return goerr.Wrap(err, "invalid request body",
			goerr.T(apperr.ErrTagInvalidInput))
	}
	return nil
}

// respondJSON writes a JSON response with the given status code
func respondJSON(w http.ResponseWriter, r *http.Request, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		errors.Handle(r.Context(), goerr.Wrap(err, "failed to encode response"))
	}
}
