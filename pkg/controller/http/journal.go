package http

import (
	"encoding/base64"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/nagare/pkg/domain/interfaces"
	"github.com/m-mizutani/nagare/pkg/domain/model/journal"
	"github.com/m-mizutani/nagare/pkg/domain/types"
	"github.com/m-mizutani/nagare/pkg/domain/types/apperr"
)

// verifyInstanceAccess checks ownership before a journal write. Writes go
// through the journal use cases which only know the instance ID, so the
// controller performs the user-facing ownership check.
func (s *Server) verifyInstanceAccess(r *http.Request, userID types.UserID, instanceID types.InstanceID) error {
	_, err := s.instanceUC.GetInstance(r.Context(), userID, instanceID)
	return err
}

type chatRequest struct {
	SessionID types.SessionID    `json:"session_id,omitempty"`
	Role      string             `json:"role"`
	Content   string             `json:"content"`
	Model     string             `json:"model,omitempty"`
	Tokens    int                `json:"tokens,omitempty"`
	ToolCalls []journal.ToolCall `json:"tool_calls,omitempty"`
	Severity  *types.Severity    `json:"severity,omitempty"`
}

// handleLogChat records one chat exchange
func (s *Server) handleLogChat(w http.ResponseWriter, r *http.Request) {
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
	if err := s.verifyInstanceAccess(r, userID, instanceID); err != nil {
		handleError(w, r, err)
		return
	}

	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	result, err := s.journalUC.LogChat(r.Context(), &interfaces.LogChatRequest{
		InstanceID: instanceID,
		SessionID:  req.SessionID,
		Role:       req.Role,
		Content:    req.Content,
		Model:      req.Model,
		Tokens:     req.Tokens,
		ToolCalls:  req.ToolCalls,
		Severity:   req.Severity,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, logResultStatus(result), result)
}

type errorRequest struct {
	SessionID   types.SessionID `json:"session_id,omitempty"`
	Code        string          `json:"code,omitempty"`
	Message     string          `json:"message"`
	Source      string          `json:"source,omitempty"`
	Recoverable bool            `json:"recoverable"`
	Attempts    int             `json:"attempts,omitempty"`
	Severity    *types.Severity `json:"severity,omitempty"`
}

// handleLogError records an execution failure
func (s *Server) handleLogError(w http.ResponseWriter, r *http.Request) {
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
	if err := s.verifyInstanceAccess(r, userID, instanceID); err != nil {
		handleError(w, r, err)
		return
	}

	var req errorRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	result, err := s.journalUC.LogError(r.Context(), &interfaces.LogErrorRequest{
		InstanceID:  instanceID,
		SessionID:   req.SessionID,
		Code:        req.Code,
		Message:     req.Message,
		Source:      req.Source,
		Recoverable: req.Recoverable,
		Attempts:    req.Attempts,
		Severity:    req.Severity,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, logResultStatus(result), result)
}

// createJournalRequest is the generic journal write body. Type selects the
// variant; exactly the matching section must be present.
type createJournalRequest struct {
	Type      types.JournalType `json:"type"`
	SessionID types.SessionID   `json:"session_id,omitempty"`
	Severity  *types.Severity   `json:"severity,omitempty"`

	Chat   *chatRequest   `json:"chat,omitempty"`
	Error  *errorRequest  `json:"error,omitempty"`
	Media  *mediaRequest  `json:"media,omitempty"`
	Task   *taskRequest   `json:"task,omitempty"`
	System *systemRequest `json:"system,omitempty"`
}

type mediaRequest struct {
	// Data carries the artifact bytes, base64 encoded
	Data       string            `json:"data"`
	MimeType   string            `json:"mime_type"`
	Generation map[string]string `json:"generation,omitempty"`
}

type taskRequest struct {
	Name       string             `json:"name"`
	Status     journal.TaskStatus `json:"status"`
	Step       int                `json:"step,omitempty"`
	DurationMS int64              `json:"duration_ms,omitempty"`
}

type systemRequest struct {
	Event       string            `json:"event"`
	Details     map[string]string `json:"details,omitempty"`
	TriggeredBy string            `json:"triggered_by,omitempty"`
}

// handleCreateJournal dispatches a generic journal write to the matching
// use case operation
func (s *Server) handleCreateJournal(w http.ResponseWriter, r *http.Request) {
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
	if err := s.verifyInstanceAccess(r, userID, instanceID); err != nil {
		handleError(w, r, err)
		return
	}

	var req createJournalRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	var result *interfaces.LogResult
	switch req.Type {
	case types.JournalTypeChat:
		if req.Chat == nil {
			err = missingSection(req.Type)
			break
		}
		result, err = s.journalUC.LogChat(r.Context(), &interfaces.LogChatRequest{
			InstanceID: instanceID,
			SessionID:  req.SessionID,
			Role:       req.Chat.Role,
			Content:    req.Chat.Content,
			Model:      req.Chat.Model,
			Tokens:     req.Chat.Tokens,
			ToolCalls:  req.Chat.ToolCalls,
			Severity:   req.Severity,
		})

	case types.JournalTypeError:
		if req.Error == nil {
			err = missingSection(req.Type)
			break
		}
		result, err = s.journalUC.LogError(r.Context(), &interfaces.LogErrorRequest{
			InstanceID:  instanceID,
			SessionID:   req.SessionID,
			Code:        req.Error.Code,
			Message:     req.Error.Message,
			Source:      req.Error.Source,
			Recoverable: req.Error.Recoverable,
			Attempts:    req.Error.Attempts,
			Severity:    req.Severity,
		})

	case types.JournalTypeMedia:
		if req.Media == nil {
			err = missingSection(req.Type)
			break
		}
		var data []byte
		data, err = base64.StdEncoding.DecodeString(req.Media.Data)
		if err != nil {
			err = goerr.Wrap(err, "media data must be base64 encoded",
				goerr.T(apperr.ErrTagInvalidFormat))
			break
		}
		result, err = s.journalUC.LogMedia(r.Context(), &interfaces.LogMediaRequest{
			InstanceID: instanceID,
			SessionID:  req.SessionID,
			Data:       data,
			MimeType:   req.Media.MimeType,
			Generation: req.Media.Generation,
			Severity:   req.Severity,
		})

	case types.JournalTypeTask:
		if req.Task == nil {
			err = missingSection(req.Type)
			break
		}
		result, err = s.journalUC.LogTask(r.Context(), &interfaces.LogTaskRequest{
			InstanceID: instanceID,
			SessionID:  req.SessionID,
			Name:       req.Task.Name,
			Status:     req.Task.Status,
			Step:       req.Task.Step,
			Duration:   time.Duration(req.Task.DurationMS) * time.Millisecond,
			Severity:   req.Severity,
		})

	case types.JournalTypeSystem:
		if req.System == nil {
			err = missingSection(req.Type)
			break
		}
		result, err = s.journalUC.LogSystem(r.Context(), &interfaces.LogSystemRequest{
			InstanceID:  instanceID,
			Event:       req.System.Event,
			Details:     req.System.Details,
			TriggeredBy: req.System.TriggeredBy,
		})

	default:
		err = goerr.New("invalid journal type",
			goerr.T(apperr.ErrTagInvalidInput),
			goerr.V("type", req.Type))
	}

	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, logResultStatus(result), result)
}

func missingSection(t types.JournalType) error {
	return goerr.New("missing payload section for journal type",
		goerr.T(apperr.ErrTagRequiredField),
		goerr.V("type", t))
}

// logResultStatus maps a write outcome to its HTTP status: 201 for a
// persisted entry, 200 for a policy-disabled no-op
func logResultStatus(result *interfaces.LogResult) int {
	if result.Saved {
		return http.StatusCreated
	}
	return http.StatusOK
}
