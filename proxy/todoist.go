package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"focusfeed/errs"
)

// DefaultTodoistBaseURL is the Todoist REST API root.
const DefaultTodoistBaseURL = "https://api.todoist.com/rest/v2"

// TodoistConfig carries the credential and endpoint for the task service.
type TodoistConfig struct {
	Token   string
	BaseURL string
}

// Task is the normalized projection of an upstream Todoist task.
type Task struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// TodoistService proxies task operations to Todoist. It keeps no local
// state: every call is a pass-through, and idempotency of repeated closes
// is upstream's concern.
type TodoistService struct {
	cfg    TodoistConfig
	client *http.Client
	logger *zap.SugaredLogger
}

// NewTodoistService returns a TodoistService with a 15 second client timeout.
func NewTodoistService(cfg TodoistConfig, logger *zap.SugaredLogger) *TodoistService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultTodoistBaseURL
	}
	return &TodoistService{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
		logger: logger,
	}
}

// WithClient replaces the outbound HTTP client. Returns the service for chaining.
func (s *TodoistService) WithClient(c *http.Client) *TodoistService {
	s.client = c
	return s
}

// Tasks fetches all upstream tasks and projects them to {id, content}.
func (s *TodoistService) Tasks(ctx context.Context) ([]Task, error) {
	resp, err := s.do(ctx, http.MethodGet, "/tasks", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errs.Errorf(errs.EUPSTREAM, "Todoist list failed with status %d: %s",
			resp.StatusCode, readBodyPreview(resp.Body))
	}

	var upstream []struct {
		ID      string `json:"id"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&upstream); err != nil {
		return nil, errs.Errorf(errs.EUPSTREAM, "Todoist returned an unreadable response: %s", err)
	}

	tasks := make([]Task, 0, len(upstream))
	for _, t := range upstream {
		tasks = append(tasks, Task{ID: t.ID, Content: t.Content})
	}
	return tasks, nil
}

// CreateTask creates a task with the given content upstream. The credential
// is checked first, then blank content is rejected, both before any
// outbound call is made.
func (s *TodoistService) CreateTask(ctx context.Context, content string) (*Task, error) {
	if err := s.checkToken(); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errs.Errorf(errs.EINVALID, "content is required")
	}

	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return nil, err
	}
	resp, err := s.do(ctx, http.MethodPost, "/tasks", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, errs.Errorf(errs.EUPSTREAM, "Todoist create failed with status %d: %s",
			resp.StatusCode, readBodyPreview(resp.Body))
	}

	var task Task
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		return nil, errs.Errorf(errs.EUPSTREAM, "Todoist returned an unreadable response: %s", err)
	}
	return &task, nil
}

// CloseTask marks the task with the given ID as done upstream. The
// credential is checked first, then a blank ID is rejected, both before any
// outbound call is made.
func (s *TodoistService) CloseTask(ctx context.Context, taskID string) error {
	if err := s.checkToken(); err != nil {
		return err
	}
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return errs.Errorf(errs.EINVALID, "taskId is required")
	}

	resp, err := s.do(ctx, http.MethodPost, "/tasks/"+taskID+"/close", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return errs.Errorf(errs.EUPSTREAM, "Todoist close failed with status %d: %s",
			resp.StatusCode, readBodyPreview(resp.Body))
	}
	return nil
}

// checkToken reports a missing credential. It runs before any input
// validation, so an unconfigured service always answers with the
// misconfiguration error.
func (s *TodoistService) checkToken() error {
	if s.cfg.Token == "" {
		return errs.Errorf(errs.EUNCONFIGURED, "TODOIST_TOKEN is not set")
	}
	return nil
}

// do performs one authenticated request against the Todoist API. It checks
// the credential and translates transport failures, so the operation
// methods only deal with status codes and payloads.
func (s *TodoistService) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	if err := s.checkToken(); err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.cfg.BaseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errs.Errorf(errs.EUPSTREAM, "Todoist is unreachable: %s", err)
	}

	s.logger.Debugw("todoist request", "method", method, "path", path, "status", resp.StatusCode)
	return resp, nil
}

// readBodyPreview returns at most the first 400 bytes of a response body,
// for inclusion in upstream error diagnostics.
func readBodyPreview(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 400))
	return string(b)
}
