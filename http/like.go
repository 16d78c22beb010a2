package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"focusfeed/errs"
)

// registerLikeRoutes is a helper for registering all Like routes.
func (s *Server) registerLikeRoutes(r *mux.Router) {
	r.HandleFunc("/post/{id:[0-9]+}/like/", s.requireAuth(s.handleToggleLike)).Methods("POST")
}

// likeResponse reports the user's membership in the like set and the post's
// like count after the toggle.
type likeResponse struct {
	Liked bool `json:"liked"`
	Count int  `json:"count"`
}

// handleToggleLike handles the route "POST /post/{id}/like/".
// It flips the authenticated user's like on the post: present becomes
// absent and vice versa, so a second identical request undoes the first.
func (s *Server) handleToggleLike(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "Invalid Id format."))
		return
	}

	user := s.getUserFromContext(r.Context())
	liked, count, err := s.ls.Toggle(id, user.ID)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	if err := json.NewEncoder(w).Encode(&likeResponse{Liked: liked, Count: count}); err != nil {
		errs.LogError(r, err)
	}
}
