package apperr

import "github.com/m-mizutani/goerr/v2"

// NotFound errors (HTTP 404)
var (
	ErrTagNotFound         = goerr.NewTag("not_found")
	ErrTagInstanceNotFound = goerr.NewTag("instance_not_found")
	ErrTagWorkflowNotFound = goerr.NewTag("workflow_not_found")
	ErrTagNodeNotFound     = goerr.NewTag("node_not_found")
	ErrTagEntryNotFound    = goerr.NewTag("entry_not_found")
)

// Validation errors (HTTP 400)
var (
	ErrTagValidation    = goerr.NewTag("validation")
	ErrTagInvalidInput  = goerr.NewTag("invalid_input")
	ErrTagInvalidFormat = goerr.NewTag("invalid_format")
	ErrTagRequiredField = goerr.NewTag("required_field")
)

// State errors (HTTP 409)
var (
	ErrTagInvalidTransition = goerr.NewTag("invalid_transition")
	ErrTagConflict          = goerr.NewTag("conflict")
)

// Permission errors (HTTP 401/403)
var (
	ErrTagUnauthorized = goerr.NewTag("unauthorized")
	ErrTagForbidden    = goerr.NewTag("forbidden")
	ErrTagExpiredToken = goerr.NewTag("expired_token")
)

// External service errors (HTTP 502/503)
var (
	ErrTagExternal  = goerr.NewTag("external")
	ErrTagFirestore = goerr.NewTag("firestore")
	ErrTagStorage   = goerr.NewTag("storage")
)

// System errors (HTTP 500)
var (
	ErrTagInternal = goerr.NewTag("internal")
	ErrTagTimeout  = goerr.NewTag("timeout")
)
