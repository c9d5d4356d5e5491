package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/nagare/pkg/domain/interfaces"
	"github.com/m-mizutani/nagare/pkg/domain/model/instance"
	"github.com/m-mizutani/nagare/pkg/domain/model/workflow"
	"github.com/m-mizutani/nagare/pkg/domain/types"
	"github.com/m-mizutani/nagare/pkg/domain/types/apperr"
)

// workflowIDFromRequest parses and validates the workflow ID path parameter
func workflowIDFromRequest(r *http.Request) (types.WorkflowID, error) {
	id := types.WorkflowID(chi.URLParam(r, "workflowID"))
	if !id.IsValid() {
		return "", goerr.New("invalid workflow ID",
			goerr.T(apperr.ErrTagInvalidFormat),
			goerr.V("workflow_id", id))
	}
	return id, nil
}

type createWorkflowRequest struct {
	Name string `json:"name"`
}

// handleCreateWorkflow creates a new workflow
func (s *Server) handleCreateWorkflow(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUserID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	var req createWorkflowRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if req.Name == "" {
		handleError(w, r, goerr.New("workflow name is required",
			goerr.T(apperr.ErrTagRequiredField)))
		return
	}

	wf, err := s.workflowUC.CreateWorkflow(r.Context(), userID, req.Name)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusCreated, wf)
}

// handleGetWorkflow returns one workflow
func (s *Server) handleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUserID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	workflowID, err := workflowIDFromRequest(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	wf, err := s.workflowUC.GetWorkflow(r.Context(), userID, workflowID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, wf)
}

// createInstanceRequest is the POST body for the atomic instance creation
type createInstanceRequest struct {
	Name        string                           `json:"name"`
	Role        string                           `json:"role,omitempty"`
	PrototypeID string                           `json:"prototype_id,omitempty"`
	Model       instance.ModelConfig             `json:"model"`
	Persistence *instance.PersistenceConfigPatch `json:"persistence,omitempty"`
	Position    workflow.Position                `json:"position"`
	UIConfig    map[string]string                `json:"ui_config,omitempty"`
}

// handleCreateInstance creates an instance together with its agent node
func (s *Server) handleCreateInstance(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUserID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	workflowID, err := workflowIDFromRequest(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	var req createInstanceRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	created, err := s.workflowUC.CreateInstance(r.Context(), userID, &interfaces.CreateInstanceRequest{
		WorkflowID:  workflowID,
		Name:        req.Name,
		Role:        req.Role,
		PrototypeID: req.PrototypeID,
		Model:       req.Model,
		Persistence: req.Persistence,
		Position:    req.Position,
		UIConfig:    req.UIConfig,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusCreated, created)
}

// listInstancesResponse is one page of a workflow's instances
type listInstancesResponse struct {
	Instances []*instance.AgentInstance `json:"instances"`
	Total     int                       `json:"total"`
}

// handleListInstances returns a page of a workflow's instances
func (s *Server) handleListInstances(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUserID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	workflowID, err := workflowIDFromRequest(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	var offset, limit int
	if v := r.URL.Query().Get("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil {
			handleError(w, r, goerr.Wrap(err, "invalid offset",
				goerr.T(apperr.ErrTagInvalidFormat), goerr.V("offset", v)))
			return
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil {
			handleError(w, r, goerr.Wrap(err, "invalid limit",
				goerr.T(apperr.ErrTagInvalidFormat), goerr.V("limit", v)))
			return
		}
	}

	instances, total, err := s.instanceUC.ListInstances(r.Context(), userID, workflowID, offset, limit)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, listInstancesResponse{
		Instances: instances,
		Total:     total,
	})
}

// handleDeleteNode cascades the deletion of an agent node
func (s *Server) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUserID(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	workflowID, err := workflowIDFromRequest(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	nodeID := types.NodeID(chi.URLParam(r, "nodeID"))
	if !nodeID.IsValid() {
		handleError(w, r, goerr.New("invalid node ID",
			goerr.T(apperr.ErrTagInvalidFormat),
			goerr.V("node_id", nodeID)))
		return
	}

	result, err := s.workflowUC.DeleteNode(r.Context(), userID, workflowID, nodeID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, result)
}
