package journal

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/nagare/pkg/domain/types/apperr"
)

// Error definitions for journal-related operations
var (
	// ErrEntryNotFound is returned when a requested entry cannot be found
	ErrEntryNotFound = goerr.New("journal entry not found",
		goerr.T(apperr.ErrTagEntryNotFound)).ID("ERR_ENTRY_NOT_FOUND")

	// ErrEntryExists is returned when an entry document already exists.
	// Entries are append-only; an ID collision is never overwritten.
	ErrEntryExists = goerr.New("journal entry already exists",
		goerr.T(apperr.ErrTagConflict)).ID("ERR_ENTRY_EXISTS")
)
