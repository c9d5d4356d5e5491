package instance

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/nagare/pkg/domain/types/apperr"
)

// Error definitions for instance-related operations
var (
	// ErrInstanceNotFound is returned when a requested instance cannot be
	// found, or is owned by another user
	ErrInstanceNotFound = goerr.New("instance not found",
		goerr.T(apperr.ErrTagInstanceNotFound)).ID("ERR_INSTANCE_NOT_FOUND")

	// ErrInstanceExists is returned when an instance document already exists
	ErrInstanceExists = goerr.New("instance already exists",
		goerr.T(apperr.ErrTagConflict)).ID("ERR_INSTANCE_EXISTS")

	// ErrInvalidTransition is returned for a status change not in the
	// transition table. The instance is left unchanged.
	ErrInvalidTransition = goerr.New("invalid status transition",
		goerr.T(apperr.ErrTagInvalidTransition)).ID("ERR_INVALID_TRANSITION")

	// ErrInvalidStatus is returned when an unknown status value is provided
	ErrInvalidStatus = goerr.New("invalid instance status",
		goerr.T(apperr.ErrTagValidation)).ID("ERR_INVALID_STATUS")
)
