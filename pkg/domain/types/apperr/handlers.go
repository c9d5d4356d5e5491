package apperr

import (
	"net/http"

	"github.com/m-mizutani/goerr/v2"
)

// HTTPStatusFromError returns the appropriate HTTP status code based on error tags
func HTTPStatusFromError(err error) int {
	switch {
	// 404 Not Found
	case goerr.HasTag(err, ErrTagNotFound),
		goerr.HasTag(err, ErrTagInstanceNotFound),
		goerr.HasTag(err, ErrTagWorkflowNotFound),
		goerr.HasTag(err, ErrTagNodeNotFound),
		goerr.HasTag(err, ErrTagEntryNotFound):
		return http.StatusNotFound

	// 400 Bad Request
	case goerr.HasTag(err, ErrTagValidation),
		goerr.HasTag(err, ErrTagInvalidInput),
		goerr.HasTag(err, ErrTagInvalidFormat),
		goerr.HasTag(err, ErrTagRequiredField):
		return http.StatusBadRequest

	// 409 Conflict
	case goerr.HasTag(err, ErrTagInvalidTransition),
		goerr.HasTag(err, ErrTagConflict):
		return http.StatusConflict

	// 401 Unauthorized
	case goerr.HasTag(err, ErrTagUnauthorized),
		goerr.HasTag(err, ErrTagExpiredToken):
		return http.StatusUnauthorized

	// 403 Forbidden
	case goerr.HasTag(err, ErrTagForbidden):
		return http.StatusForbidden

	// 408 Request Timeout
	case goerr.HasTag(err, ErrTagTimeout):
		return http.StatusRequestTimeout

	// 502 Bad Gateway
	case goerr.HasTag(err, ErrTagExternal),
		goerr.HasTag(err, ErrTagFirestore),
		goerr.HasTag(err, ErrTagStorage):
		return http.StatusBadGateway

	// 500 Internal Server Error (default)
	default:
		return http.StatusInternalServerError
	}
}
