package http

import (
	"encoding/json"
	"net/http"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/nagare/pkg/domain/types/apperr"
	"github.com/m-mizutani/nagare/pkg/utils/errors"
)

// errorResponse is the JSON error body of the API
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

// handleError maps an error to its HTTP status via the tag taxonomy and
// writes the JSON error body. Internal detail stays in the log; the client
// sees the message and an error ID for correlation.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	statusCode := apperr.HTTPStatusFromError(err)

	if statusCode >= http.StatusInternalServerError {
		errors.Handle(r.Context(), err)
	} else {
		ctxlog.From(r.Context()).Warn("request failed",
			"error", err,
			"status", statusCode,
			"path", r.URL.Path,
			"method", r.Method,
		)
	}

	body := errorResponse{
		Error: errorBody{
			Code:    http.StatusText(statusCode),
			Message: err.Error(),
		},
	}
	if goErr := goerr.Unwrap(err); goErr != nil {
		body.Error.ID = goErr.Printable().ID
	}
	if statusCode >= http.StatusInternalServerError {
		// Do not leak internals
		body.Error.Message = "Internal Server Error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		errors.Handle(r.Context(), goerr.Wrap(err, "failed to encode error response"))
	}
}
