package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"focusfeed/crud"
	"focusfeed/domain"
	"focusfeed/errs"
)

func (s *Server) registerAuthRoutes(r *mux.Router) {
	r.HandleFunc("/register", s.handleRegister).Methods("POST")
	r.HandleFunc("/login", s.handleLogin).Methods("POST")
	r.HandleFunc("/logout", s.requireAuth(s.handleLogout)).Methods("POST")
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var user domain.User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "Invalid json body."))
		return
	}

	if err := s.us.Create(&user); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	if err := s.signIn(w, &user); err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(&user); err != nil {
		errs.LogError(r, err)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "Invalid json body."))
		return
	}

	user, err := s.us.Authenticate(creds.Email, creds.Password)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	if err := s.signIn(w, user); err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	if err := json.NewEncoder(w).Encode(user); err != nil {
		errs.LogError(r, err)
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	// Expire the cookie and rotate the remember token, so the old
	// cookie value can never be replayed.
	http.SetCookie(w, &http.Cookie{
		Name:     "remember_token",
		Value:    "",
		Expires:  time.Now(),
		HttpOnly: true,
	})

	user := s.getUserFromContext(r.Context())
	token, err := crud.MakeRememberToken()
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	user.Remember = token
	if err := s.us.Update(user); err != nil {
		errs.ReturnError(w, r, err)
		return
	}

	json.NewEncoder(w).Encode(map[string]string{"message": "successfully logged out"})
}

// signIn sets the remember-token session cookie for the given user,
// generating and storing a fresh token if the user has none.
func (s *Server) signIn(w http.ResponseWriter, user *domain.User) error {
	if user.Remember == "" {
		token, err := crud.MakeRememberToken()
		if err != nil {
			return err
		}
		user.Remember = token
		if err := s.us.Update(user); err != nil {
			return err
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "remember_token",
		Value:    user.Remember,
		HttpOnly: true,
	})
	return nil
}

// authUser resolves the session cookie to a user and stores it in the
// request context. Requests without a valid session pass through
// unauthenticated; requireAuth is the gate for protected routes.
func (s *Server) authUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("remember_token")
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		user, err := s.us.ByRemember(cookie.Value)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		r = r.WithContext(s.setUserInContext(r.Context(), user))
		next.ServeHTTP(w, r)
	})
}

// requireAuth rejects requests that have no authenticated user in context.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.getUserFromContext(r.Context()) == nil {
			errs.ReturnError(w, r, errs.Errorf(errs.EUNAUTHORIZED, "You must be logged in."))
			return
		}
		next.ServeHTTP(w, r)
	}
}

type contextKey string

const userContextKey contextKey = "user"

func (s *Server) setUserInContext(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

func (s *Server) getUserFromContext(ctx context.Context) *domain.User {
	if temp := ctx.Value(userContextKey); temp != nil {
		if user, ok := temp.(*domain.User); ok {
			return user
		}
	}
	return nil
}
