package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"focusfeed/errs"
)

// registerAPIRoutes is a helper for registering the /api/ and /pomodoro/
// routes: the two external proxies, the pomodoro timer config, and the
// UTC clock.
func (s *Server) registerAPIRoutes(r *mux.Router) {
	r.HandleFunc("/pomodoro/", s.handlePomodoro).Methods("GET")
	r.HandleFunc("/api/sound/", s.handleSound).Methods("GET")
	r.HandleFunc("/api/todoist/tasks/", s.handleTodoistTasks).Methods("GET")
	r.HandleFunc("/api/todoist/task/create/", s.handleTodoistCreateTask).Methods("POST")
	r.HandleFunc("/api/todoist/task/close/", s.handleTodoistCloseTask).Methods("POST")
	r.HandleFunc("/api/time/utc/", s.handleTimeUTC).Methods("GET")
}

// handlePomodoro handles the route "GET /pomodoro/". It echoes the timer
// configuration from the query string, with the classic 25/5 defaults.
func (s *Server) handlePomodoro(w http.ResponseWriter, r *http.Request) {
	work := intQueryParam(r, "work", 25)
	rest := intQueryParam(r, "rest", 5)

	json.NewEncoder(w).Encode(map[string]int{
		"work_minutes":  work,
		"break_minutes": rest,
	})
}

// handleSound handles the route "GET /api/sound/?tag=". It proxies a
// Freesound search and returns one matching sound. Repeated calls with the
// same tag may return different sounds, the pick is random.
func (s *Server) handleSound(w http.ResponseWriter, r *http.Request) {
	sound, err := s.sound.Search(r.Context(), r.URL.Query().Get("tag"))
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	if err := json.NewEncoder(w).Encode(sound); err != nil {
		errs.LogError(r, err)
	}
}

// handleTodoistTasks handles the route "GET /api/todoist/tasks/".
func (s *Server) handleTodoistTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.tasks.Tasks(r.Context())
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	if err := json.NewEncoder(w).Encode(map[string]interface{}{"tasks": tasks}); err != nil {
		errs.LogError(r, err)
	}
}

// handleTodoistCreateTask handles the route "POST /api/todoist/task/create/".
// A malformed json body is rejected before any outbound call.
func (s *Server) handleTodoistCreateTask(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "Invalid json body."))
		return
	}

	task, err := s.tasks.CreateTask(r.Context(), body.Content)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	if err := json.NewEncoder(w).Encode(task); err != nil {
		errs.LogError(r, err)
	}
}

// handleTodoistCloseTask handles the route "POST /api/todoist/task/close/".
// A malformed json body is rejected before any outbound call.
func (s *Server) handleTodoistCloseTask(w http.ResponseWriter, r *http.Request) {
	var body struct {
		TaskID string `json:"taskId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "Invalid json body."))
		return
	}

	if err := s.tasks.CloseTask(r.Context(), body.TaskID); err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// handleTimeUTC handles the route "GET /api/time/utc/". Pure, no external
// calls, no failure modes.
func (s *Server) handleTimeUTC(w http.ResponseWriter, r *http.Request) {
	now := s.now().UTC().Format("2006-01-02 15:04:05")
	json.NewEncoder(w).Encode(map[string]string{"datetime": now})
}

// intQueryParam reads an integer query parameter, falling back to def when
// the parameter is absent or not a number.
func intQueryParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
