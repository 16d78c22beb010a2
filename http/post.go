package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"focusfeed/domain"
	"focusfeed/errs"
)

// registerPostRoutes is a helper for registering all Post routes. The write
// routes take form-encoded bodies and answer with a redirect, mirroring the
// form flow of the original client; the feed and detail routes return json.
func (s *Server) registerPostRoutes(r *mux.Router) {
	r.HandleFunc("/", s.handleFeed).Methods("GET")
	r.HandleFunc("/post/{id:[0-9]+}/", s.handlePostDetail).Methods("GET")
	r.HandleFunc("/post_create", s.requireAuth(s.handleCreatePost)).Methods("POST")
	r.HandleFunc("/post/{id:[0-9]+}/edit/", s.requireAuth(s.handleEditPost)).Methods("POST")
	r.HandleFunc("/post/{id:[0-9]+}/delete/", s.requireAuth(s.handleDeletePost)).Methods("POST")
}

// feedResponse wraps the timeline posts together with the search query that
// produced them.
type feedResponse struct {
	Posts []domain.Post `json:"posts"`
	Query string        `json:"q,omitempty"`
}

// handleFeed handles the route "GET /". It returns all posts, most recent
// first, narrowed by the optional ?q= search term.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")

	posts, err := s.ps.Feed(q)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	if err := json.NewEncoder(w).Encode(&feedResponse{Posts: posts, Query: q}); err != nil {
		errs.LogError(r, err)
	}
}

// handlePostDetail handles the route "GET /post/{id}/".
func (s *Server) handlePostDetail(w http.ResponseWriter, r *http.Request) {
	post, err := s.postFromVars(r)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	if err := json.NewEncoder(w).Encode(post); err != nil {
		errs.LogError(r, err)
	}
}

// handleCreatePost handles the route "POST /post_create".
// The author is always the authenticated user, never client-supplied.
func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	user := s.getUserFromContext(r.Context())

	post := domain.Post{
		UserID:  user.ID,
		Content: r.PostFormValue("content"),
	}
	if err := s.ps.Create(&post); err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

// handleEditPost handles the route "POST /post/{id}/edit/".
// Only the author may edit, and only the content changes.
func (s *Server) handleEditPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.postFromVars(r)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	user := s.getUserFromContext(r.Context())
	if post.UserID != user.ID {
		errs.ReturnError(w, r, errs.Errorf(errs.EFORBIDDEN, "You are not allowed to edit this post."))
		return
	}

	if err := s.ps.Update(post, r.PostFormValue("content")); err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	http.Redirect(w, r, "/post/"+strconv.Itoa(post.ID)+"/", http.StatusFound)
}

// handleDeletePost handles the route "POST /post/{id}/delete/".
// Only the author may delete. Likes go with the post.
func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	post, err := s.postFromVars(r)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	user := s.getUserFromContext(r.Context())
	if post.UserID != user.ID {
		errs.ReturnError(w, r, errs.Errorf(errs.EFORBIDDEN, "You are not allowed to delete this post."))
		return
	}

	if err := s.ps.Delete(post); err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

// postFromVars parses the post ID route variable and fetches the post.
func (s *Server) postFromVars(r *http.Request) (*domain.Post, error) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		return nil, errs.Errorf(errs.EINVALID, "Invalid Id format.")
	}
	return s.ps.ByID(id)
}
