package proxy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"focusfeed/errs"
)

func todoistUpstream(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts
}

func TestTodoistMissingCredential(t *testing.T) {
	s := NewTodoistService(TodoistConfig{}, zap.NewNop().Sugar())

	_, err := s.Tasks(context.Background())
	assert.Equal(t, errs.EUNCONFIGURED, errs.ErrorCode(err))
	assert.Contains(t, errs.ErrorMessage(err), "TODOIST_TOKEN")

	_, err = s.CreateTask(context.Background(), "buy milk")
	assert.Equal(t, errs.EUNCONFIGURED, errs.ErrorCode(err))

	err = s.CloseTask(context.Background(), "42")
	assert.Equal(t, errs.EUNCONFIGURED, errs.ErrorCode(err))

	// The credential check runs before input validation: a request that
	// is both unconfigured and invalid reports the misconfiguration.
	_, err = s.CreateTask(context.Background(), "   ")
	assert.Equal(t, errs.EUNCONFIGURED, errs.ErrorCode(err))

	err = s.CloseTask(context.Background(), "")
	assert.Equal(t, errs.EUNCONFIGURED, errs.ErrorCode(err))
}

func TestTodoistTasks(t *testing.T) {
	var gotAuth string
	ts := todoistUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/tasks", r.URL.Path)
		// Extra upstream fields are dropped by the projection.
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"id": "100", "content": "buy milk", "priority": 4, "project_id": "7"},
			{"id": "101", "content": "water plants", "due": map[string]string{"date": "2024-05-02"}},
		})
	})

	s := NewTodoistService(TodoistConfig{Token: "secret", BaseURL: ts.URL}, zap.NewNop().Sugar())

	tasks, err := s.Tasks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, []Task{
		{ID: "100", Content: "buy milk"},
		{ID: "101", Content: "water plants"},
	}, tasks)
}

func TestTodoistCreateTask(t *testing.T) {
	ts := todoistUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"id": "200", "content": body["content"]})
	})

	s := NewTodoistService(TodoistConfig{Token: "secret", BaseURL: ts.URL}, zap.NewNop().Sugar())

	task, err := s.CreateTask(context.Background(), "  buy milk  ")
	require.NoError(t, err)
	assert.Equal(t, &Task{ID: "200", Content: "buy milk"}, task)
}

func TestTodoistCreateTaskBlankContent(t *testing.T) {
	var calls int64
	ts := todoistUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
	})

	s := NewTodoistService(TodoistConfig{Token: "secret", BaseURL: ts.URL}, zap.NewNop().Sugar())

	_, err := s.CreateTask(context.Background(), "   ")
	assert.Equal(t, errs.EINVALID, errs.ErrorCode(err))
	// Validation fires before any outbound call.
	assert.Zero(t, atomic.LoadInt64(&calls))
}

func TestTodoistCloseTask(t *testing.T) {
	ts := todoistUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tasks/42/close", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	s := NewTodoistService(TodoistConfig{Token: "secret", BaseURL: ts.URL}, zap.NewNop().Sugar())

	require.NoError(t, s.CloseTask(context.Background(), "42"))
}

func TestTodoistCloseTaskBlankID(t *testing.T) {
	var calls int64
	ts := todoistUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
	})

	s := NewTodoistService(TodoistConfig{Token: "secret", BaseURL: ts.URL}, zap.NewNop().Sugar())

	err := s.CloseTask(context.Background(), "")
	assert.Equal(t, errs.EINVALID, errs.ErrorCode(err))
	assert.Zero(t, atomic.LoadInt64(&calls))
}

func TestTodoistUpstreamRejected(t *testing.T) {
	ts := todoistUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"over quota"}`, http.StatusForbidden)
	})

	s := NewTodoistService(TodoistConfig{Token: "secret", BaseURL: ts.URL}, zap.NewNop().Sugar())

	_, err := s.Tasks(context.Background())
	assert.Equal(t, errs.EUPSTREAM, errs.ErrorCode(err))
	// Upstream status and body travel with the error for diagnostics.
	assert.Contains(t, errs.ErrorMessage(err), "403")
	assert.Contains(t, errs.ErrorMessage(err), "over quota")
}

func TestTodoistUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	ts.Close()

	s := NewTodoistService(TodoistConfig{Token: "secret", BaseURL: ts.URL}, zap.NewNop().Sugar())

	_, err := s.Tasks(context.Background())
	assert.Equal(t, errs.EUPSTREAM, errs.ErrorCode(err))
}
