package http_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/m-mizutani/gt"
	memadapter "github.com/m-mizutani/nagare/pkg/adapters/memory"
	httpCtrl "github.com/m-mizutani/nagare/pkg/controller/http"
	"github.com/m-mizutani/nagare/pkg/controller/http/middleware"
	"github.com/m-mizutani/nagare/pkg/domain/interfaces"
	"github.com/m-mizutani/nagare/pkg/domain/model/instance"
	"github.com/m-mizutani/nagare/pkg/domain/model/workflow"
	"github.com/m-mizutani/nagare/pkg/domain/types"
	"github.com/m-mizutani/nagare/pkg/repository/database/memory"
	"github.com/m-mizutani/nagare/pkg/repository/storage"
	"github.com/m-mizutani/nagare/pkg/usecase"
	"github.com/m-mizutani/nagare/pkg/utils/async"
)

var testSecret = []byte("test-secret-for-http-tests")

type serverEnv struct {
	server *httpCtrl.Server
	uc     *usecase.UseCases
	userID types.UserID
	token  string
}

// newServerEnv wires the full stack over the in-memory backends with HS256
// bearer authentication enabled
func newServerEnv(t *testing.T) *serverEnv {
	t.Helper()

	repo := memory.New()
	uc := usecase.New(
		usecase.WithRepository(repo),
		usecase.WithMediaStorage(storage.New(memadapter.New())),
	)

	server := httpCtrl.New(
		httpCtrl.WithJournalUseCases(uc),
		httpCtrl.WithInstanceUseCases(uc),
		httpCtrl.WithWorkflowUseCases(uc),
		httpCtrl.WithAuthMiddleware(middleware.NewAuthMiddleware(testSecret, false)),
	)

	userID := types.NewUserID(context.Background())
	return &serverEnv{
		server: server,
		uc:     uc,
		userID: userID,
		token:  signToken(t, userID),
	}
}

func signToken(t *testing.T, userID types.UserID) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID.String(),
	})
	signed, err := token.SignedString(testSecret)
	gt.NoError(t, err)
	return signed
}

// request performs one request against the router. Async side effects run
// synchronously so the response reflects the final state.
func (e *serverEnv) request(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		gt.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req = req.WithContext(async.WithSyncMode(req.Context()))
	req.Header.Set("Authorization", "Bearer "+e.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func (e *serverEnv) createWorkflow(t *testing.T) *workflow.Workflow {
	t.Helper()
	wf, err := e.uc.CreateWorkflow(context.Background(), e.userID, "test-workflow")
	gt.NoError(t, err)
	return wf
}

func (e *serverEnv) createInstance(t *testing.T, wf *workflow.Workflow, patch *instance.PersistenceConfigPatch) *interfaces.CreatedInstance {
	t.Helper()
	created, err := e.uc.CreateInstance(context.Background(), e.userID, &interfaces.CreateInstanceRequest{
		WorkflowID:  wf.ID,
		Name:        "worker",
		Model: instance.ModelConfig{
			Provider:    types.LLMProviderClaude,
			Model:       "claude-sonnet-4",
			Temperature: 0.7,
		},
		Persistence: patch,
	})
	gt.NoError(t, err)
	return created
}

func TestAuthentication(t *testing.T) {
	env := newServerEnv(t)
	wf := env.createWorkflow(t)
	created := env.createInstance(t, wf, nil)
	path := "/api/instances/" + created.Instance.ID.String()

	t.Run("missing token is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		env.server.ServeHTTP(rec, req)
		gt.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		rec := httptest.NewRecorder()
		env.server.ServeHTTP(rec, req)
		gt.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token signed with another secret is rejected", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": env.userID.String(),
		})
		signed, err := token.SignedString([]byte("wrong-secret"))
		gt.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+signed)
		rec := httptest.NewRecorder()
		env.server.ServeHTTP(rec, req)
		gt.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token passes", func(t *testing.T) {
		rec := env.request(t, http.MethodGet, path, nil)
		gt.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("health check needs no token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		env.server.ServeHTTP(rec, req)
		gt.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestInstanceEndpoints(t *testing.T) {
	env := newServerEnv(t)
	wf := env.createWorkflow(t)
	created := env.createInstance(t, wf, nil)
	base := "/api/instances/" + created.Instance.ID.String()

	t.Run("get instance", func(t *testing.T) {
		rec := env.request(t, http.MethodGet, base, nil)
		gt.Equal(t, http.StatusOK, rec.Code)

		var inst instance.AgentInstance
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &inst))
		gt.Equal(t, created.Instance.ID, inst.ID)
		gt.Equal(t, instance.StatusIdle, inst.Status)
	})

	t.Run("unknown instance is 404", func(t *testing.T) {
		other := types.NewInstanceID(context.Background())
		rec := env.request(t, http.MethodGet, "/api/instances/"+other.String(), nil)
		gt.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed instance ID is 400", func(t *testing.T) {
		rec := env.request(t, http.MethodGet, "/api/instances/not-a-uuid", nil)
		gt.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("partial update", func(t *testing.T) {
		rec := env.request(t, http.MethodPatch, base, map[string]any{
			"role": "summarize findings",
		})
		gt.Equal(t, http.StatusOK, rec.Code)

		var inst instance.AgentInstance
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &inst))
		gt.Equal(t, "summarize findings", inst.Role)
		gt.Equal(t, created.Instance.Name, inst.Name)
	})

	t.Run("status transition", func(t *testing.T) {
		rec := env.request(t, http.MethodPatch, base+"/status", map[string]any{
			"status": "running",
		})
		gt.Equal(t, http.StatusOK, rec.Code)

		var inst instance.AgentInstance
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &inst))
		gt.Equal(t, instance.StatusRunning, inst.Status)
	})

	t.Run("illegal transition is 409", func(t *testing.T) {
		rec := env.request(t, http.MethodPatch, base+"/status", map[string]any{
			"status": "running",
		})
		gt.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("unknown status is 400", func(t *testing.T) {
		rec := env.request(t, http.MethodPatch, base+"/status", map[string]any{
			"status": "exploded",
		})
		gt.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestJournalEndpoints(t *testing.T) {
	env := newServerEnv(t)
	wf := env.createWorkflow(t)
	created := env.createInstance(t, wf, nil)
	base := "/api/instances/" + created.Instance.ID.String()

	t.Run("chat write returns 201", func(t *testing.T) {
		rec := env.request(t, http.MethodPost, base+"/chat", map[string]any{
			"role":    "assistant",
			"content": "found three sources",
		})
		gt.Equal(t, http.StatusCreated, rec.Code)

		var result interfaces.LogResult
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		gt.True(t, result.Saved)
		gt.True(t, result.EntryID.IsValid())
	})

	t.Run("error write returns 201", func(t *testing.T) {
		rec := env.request(t, http.MethodPost, base+"/error", map[string]any{
			"message":     "rate limited",
			"recoverable": true,
		})
		gt.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("generic task write", func(t *testing.T) {
		rec := env.request(t, http.MethodPost, base+"/journals", map[string]any{
			"type": "task",
			"task": map[string]any{
				"name":   "index",
				"status": "completed",
				"step":   2,
			},
		})
		gt.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("generic write missing its section is 400", func(t *testing.T) {
		rec := env.request(t, http.MethodPost, base+"/journals", map[string]any{
			"type": "task",
		})
		gt.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("generic write with unknown type is 400", func(t *testing.T) {
		rec := env.request(t, http.MethodPost, base+"/journals", map[string]any{
			"type": "hologram",
		})
		gt.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("media with invalid base64 is 400", func(t *testing.T) {
		rec := env.request(t, http.MethodPost, base+"/journals", map[string]any{
			"type": "media",
			"media": map[string]any{
				"data":      "%%%not-base64%%%",
				"mime_type": "image/png",
			},
		})
		gt.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("policy-disabled write returns 200", func(t *testing.T) {
		off := false
		muted := env.createInstance(t, wf, &instance.PersistenceConfigPatch{
			SaveChatHistory: &off,
		})
		rec := env.request(t, http.MethodPost, "/api/instances/"+muted.Instance.ID.String()+"/chat", map[string]any{
			"role":    "user",
			"content": "this should be dropped",
		})
		gt.Equal(t, http.StatusOK, rec.Code)

		var result interfaces.LogResult
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		gt.False(t, result.Saved)
		gt.NotEqual(t, "", result.Reason)
	})

	t.Run("list journals with filters", func(t *testing.T) {
		path := fmt.Sprintf("%s/journals?type=chat&page=1&limit=10", base)
		rec := env.request(t, http.MethodGet, path, nil)
		gt.Equal(t, http.StatusOK, rec.Code)

		var page struct {
			Entries []json.RawMessage `json:"entries"`
			Total   int               `json:"total"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
		gt.Equal(t, 1, page.Total)
		gt.A(t, page.Entries).Length(1)
	})

	t.Run("list journals with bad date is 400", func(t *testing.T) {
		rec := env.request(t, http.MethodGet, base+"/journals?start_date=yesterday", nil)
		gt.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("foreign user cannot read or write", func(t *testing.T) {
		stranger := &serverEnv{
			server: env.server,
			uc:     env.uc,
			userID: types.NewUserID(context.Background()),
		}
		stranger.token = signToken(t, stranger.userID)

		rec := stranger.request(t, http.MethodGet, base+"/journals", nil)
		gt.Equal(t, http.StatusNotFound, rec.Code)

		rec = stranger.request(t, http.MethodPost, base+"/chat", map[string]any{
			"role":    "user",
			"content": "hijack",
		})
		gt.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestWorkflowEndpoints(t *testing.T) {
	env := newServerEnv(t)

	t.Run("create workflow", func(t *testing.T) {
		rec := env.request(t, http.MethodPost, "/api/workflows", map[string]any{
			"name": "research-pipeline",
		})
		gt.Equal(t, http.StatusCreated, rec.Code)

		var wf workflow.Workflow
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &wf))
		gt.Equal(t, "research-pipeline", wf.Name)
		gt.True(t, wf.ID.IsValid())
	})

	t.Run("create workflow without name is 400", func(t *testing.T) {
		rec := env.request(t, http.MethodPost, "/api/workflows", map[string]any{})
		gt.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("create and list instances", func(t *testing.T) {
		wf := env.createWorkflow(t)

		rec := env.request(t, http.MethodPost, "/api/workflows/"+wf.ID.String()+"/instances", map[string]any{
			"name": "researcher",
			"model": map[string]any{
				"provider":    "claude",
				"model":       "claude-sonnet-4",
				"temperature": 0.7,
			},
			"position": map[string]any{"x": 100, "y": 50},
		})
		gt.Equal(t, http.StatusCreated, rec.Code)

		var created interfaces.CreatedInstance
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		gt.Equal(t, "researcher", created.Instance.Name)
		gt.Equal(t, created.Instance.ID, created.Node.InstanceID)

		rec = env.request(t, http.MethodGet, "/api/workflows/"+wf.ID.String()+"/instances", nil)
		gt.Equal(t, http.StatusOK, rec.Code)

		var listed struct {
			Instances []*instance.AgentInstance `json:"instances"`
			Total     int                       `json:"total"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
		gt.Equal(t, 1, listed.Total)
		gt.A(t, listed.Instances).Length(1)
	})

	t.Run("delete node cascades", func(t *testing.T) {
		wf := env.createWorkflow(t)
		on := true
		created := env.createInstance(t, wf, &instance.PersistenceConfigPatch{SaveMedia: &on})

		data := base64.StdEncoding.EncodeToString([]byte("png-bytes"))
		rec := env.request(t, http.MethodPost, "/api/instances/"+created.Instance.ID.String()+"/journals", map[string]any{
			"type": "media",
			"media": map[string]any{
				"data":      data,
				"mime_type": "image/png",
			},
		})
		gt.Equal(t, http.StatusCreated, rec.Code)

		rec = env.request(t, http.MethodDelete,
			"/api/workflows/"+wf.ID.String()+"/nodes/"+created.Node.ID.String(), nil)
		gt.Equal(t, http.StatusOK, rec.Code)

		var result interfaces.CascadeResult
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		gt.Equal(t, 2, result.DeletedEntries) // creation + media

		rec = env.request(t, http.MethodGet, "/api/instances/"+created.Instance.ID.String(), nil)
		gt.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("foreign workflow is 404", func(t *testing.T) {
		wf := env.createWorkflow(t)
		stranger := &serverEnv{server: env.server, uc: env.uc, userID: types.NewUserID(context.Background())}
		stranger.token = signToken(t, stranger.userID)

		rec := stranger.request(t, http.MethodGet, "/api/workflows/"+wf.ID.String(), nil)
		gt.Equal(t, http.StatusNotFound, rec.Code)
	})
}
