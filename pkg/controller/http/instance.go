package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/nagare/pkg/controller/http/middleware"
	"github.com/m-mizutani/nagare/pkg/domain/interfaces"
	"github.com/m-mizutani/nagare/pkg/domain/model/instance"
	"github.com/m-mizutani/nagare/pkg/domain/model/journal"
	"github.com/m-mizutani/nagare/pkg/domain/types"
	"github.com/m-mizutani/nagare/pkg/domain/types/apperr"
)

// requireUserID extracts the verified user ID placed by the auth middleware
func requireUserID(r *http.Request) (types.UserID, error) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		return "", goerr.New("no verified identity on request", goerr.T(apperr.ErrTagUnauthorized))
	}
	return userID, nil
}

// instanceIDFromRequest parses and validates the instance ID path parameter
func instanceIDFromRequest(r *http.Request) (types.InstanceID, error) {
	id := types.InstanceID(chi.URLParam(r, "instanceID"))
	if !id.IsValid() {
		return "", goerr.New("invalid instance ID",
			goerr.T(apperr.ErrTagInvalidFormat),
			goerr.V("instance_id", id))
	}
	return id, nil
}

// handleGetInstance returns one instance
func (s *Server) handleGetInstance(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUserID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	instanceID, err := instanceIDFromRequest(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	inst, err := s.instanceUC.GetInstance(r.Context(), userID, instanceID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, inst)
}

// updateInstanceRequest is the PATCH body for an instance. Absent fields
// keep their current values.
type updateInstanceRequest struct {
	Name        *string                          `json:"name,omitempty"`
	Role        *string                          `json:"role,omitempty"`
	Memory      *string                          `json:"memory,omitempty"`
	Variables   map[string]string                `json:"variables,omitempty"`
	CurrentTask *string                          `json:"current_task,omitempty"`
	Persistence *instance.PersistenceConfigPatch `json:"persistence,omitempty"`
}

// handleUpdateInstance applies a partial instance update
func (s *Server) handleUpdateInstance(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUserID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	instanceID, err := instanceIDFromRequest(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	var req updateInstanceRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	inst, err := s.instanceUC.UpdateInstance(r.Context(), userID, instanceID, &interfaces.UpdateInstanceRequest{
		Name:        req.Name,
		Role:        req.Role,
		Memory:      req.Memory,
		Variables:   req.Variables,
		CurrentTask: req.CurrentTask,
		Persistence: req.Persistence,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, inst)
}

// updateStatusRequest is the PATCH body for a status transition
type updateStatusRequest struct {
	Status instance.Status `json:"status"`
}

// handleUpdateStatus applies a status transition
func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUserID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	instanceID, err := instanceIDFromRequest(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	inst, err := s.instanceUC.UpdateStatus(r.Context(), userID, instanceID, req.Status)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, inst)
}

// journalFilterFromQuery builds a timeline filter from query parameters
func journalFilterFromQuery(r *http.Request) (*journal.Filter, error) {
	q := r.URL.Query()
	filter := &journal.Filter{}

	if v := q.Get("type"); v != "" {
		t := types.JournalType(v)
		filter.Type = &t
	}
	if v := q.Get("severity"); v != "" {
		sev := types.Severity(v)
		filter.Severity = &sev
	}
	if v := q.Get("session_id"); v != "" {
		sid := types.SessionID(v)
		filter.SessionID = &sid
	}
	if v := q.Get("start_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid start_date",
				goerr.T(apperr.ErrTagInvalidFormat), goerr.V("start_date", v))
		}
		filter.StartDate = &t
	}
	if v := q.Get("end_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid end_date",
				goerr.T(apperr.ErrTagInvalidFormat), goerr.V("end_date", v))
		}
		filter.EndDate = &t
	}
	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid page",
				goerr.T(apperr.ErrTagInvalidFormat), goerr.V("page", v))
		}
		filter.Page = page
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid limit",
				goerr.T(apperr.ErrTagInvalidFormat), goerr.V("limit", v))
		}
		filter.Limit = limit
	}

	return filter, nil
}

// handleListJournals returns one page of an instance timeline
func (s *Server) handleListJournals(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUserID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	instanceID, err := instanceIDFromRequest(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	filter, err := journalFilterFromQuery(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	page, err := s.journalUC.ListJournals(r.Context(), userID, instanceID, filter)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, page)
}
