package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"focusfeed/crud"
	"focusfeed/domain"
	"focusfeed/errs"
	"focusfeed/proxy"
)

// Server provides the http functionality of the app: routing, request
// handling, and middleware. It performs authentication and authorization
// before handing things over to one of the crud or proxy services.
type Server struct {
	router *mux.Router
	logger *zap.SugaredLogger

	us domain.UserService
	ps domain.PostService
	ls domain.LikeService

	sound *proxy.SoundService
	tasks *proxy.TodoistService

	// now is the clock used by the time endpoint, injected for tests.
	now func() time.Time
}

// NewServer returns a new instance of the server, registers all necessary
// routes and gives their handlers access to the services passed in.
func NewServer(
	services *crud.Services,
	sound *proxy.SoundService,
	tasks *proxy.TodoistService,
	logger *zap.SugaredLogger,
) *Server {

	s := &Server{
		router: mux.NewRouter(),
		logger: logger,
		us:     services.User,
		ps:     services.Post,
		ls:     services.Like,
		sound:  sound,
		tasks:  tasks,
		now:    time.Now,
	}

	// Route handler-side error logging through the process logger.
	errs.SetLogFunc(logger.Errorf)

	// Register routes of the auth system.
	s.registerAuthRoutes(s.router)

	// Register routes of the timeline.
	s.registerPostRoutes(s.router)
	s.registerLikeRoutes(s.router)

	// Register the api routes (external proxies, pomodoro, utc time).
	s.registerAPIRoutes(s.router)

	// Set up middleware that needs to run on every request.
	s.router.Use(s.logRequest, setContentTypeJSON, s.authUser)
	return s
}

// The setContentTypeJSON middleware sets the content type to "application/json".
func setContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// The logRequest middleware logs every request with its duration.
func (s *Server) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debugw("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

// Router exposes the mux router, mainly so that tests can drive the full
// middleware and handler chain through httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Run starts to listen and serve on the specified port.
func (s *Server) Run(port int) {
	s.logger.Infow("listening", "port", port)
	s.logger.Fatal(http.ListenAndServe("localhost:"+strconv.Itoa(port), s.router))
}
