package journal

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/nagare/pkg/domain/types"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Filter narrows and paginates journal timeline queries. Zero values mean
// "no restriction"; Normalize applies paging defaults and caps.
type Filter struct {
	Type      *types.JournalType
	Severity  *types.Severity
	SessionID *types.SessionID
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	Limit     int
}

// Normalize applies defaults and validates the filter in place
func (f *Filter) Normalize() error {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		return goerr.New("limit exceeds maximum",
			goerr.V("limit", f.Limit),
			goerr.V("max", MaxPageLimit))
	}
	if f.Type != nil && !f.Type.IsValid() {
		return goerr.New("invalid journal type filter", goerr.V("type", *f.Type))
	}
	if f.Severity != nil && !f.Severity.IsValid() {
		return goerr.New("invalid severity filter", goerr.V("severity", *f.Severity))
	}
	if f.StartDate != nil && f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
		return goerr.New("end date precedes start date",
			goerr.V("start", *f.StartDate),
			goerr.V("end", *f.EndDate))
	}
	return nil
}

// Offset returns the number of entries to skip for the requested page
func (f *Filter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Matches reports whether the entry passes the filter (paging aside)
func (f *Filter) Matches(e *JournalEntry) bool {
	if f.Type != nil && e.Type != *f.Type {
		return false
	}
	if f.Severity != nil && e.Severity != *f.Severity {
		return false
	}
	if f.SessionID != nil && e.SessionID != *f.SessionID {
		return false
	}
	if f.StartDate != nil && e.Timestamp.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && e.Timestamp.After(*f.EndDate) {
		return false
	}
	return true
}

// Page is one page of a timeline query, newest first
type Page struct {
	Entries []*JournalEntry `json:"entries"`
	Total   int             `json:"total"`
	Pages   int             `json:"pages"`
}

// PageCount computes ceil(total/limit)
func PageCount(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
