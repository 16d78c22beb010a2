package http

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"focusfeed/crud"
	"focusfeed/domain"
	"focusfeed/proxy"
)

// newTestServer builds a full Server over an in-memory sqlite database,
// with proxy services pointed at nothing (individual tests swap in
// httptest doubles where needed).
func newTestServer(t *testing.T) (*Server, *crud.Services) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(domain.User{}, domain.Post{}, domain.Like{}))

	services, err := crud.NewServices(
		db,
		crud.WithUser("test-hmac-key", "test-pepper"),
		crud.WithPost(),
		crud.WithLike(),
	)
	require.NoError(t, err)

	nop := zap.NewNop().Sugar()
	sound := proxy.NewSoundService(proxy.SoundConfig{}, nop)
	tasks := proxy.NewTodoistService(proxy.TodoistConfig{}, nop)
	return NewServer(services, sound, tasks, nop), services
}

// signUp creates a user directly through the user service and returns it
// with a live remember token for the session cookie.
func signUp(t *testing.T, services *crud.Services, username string) *domain.User {
	t.Helper()
	user := &domain.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
	}
	require.NoError(t, services.User.Create(user))
	return user
}

// doRequest drives a request through the full router and middleware chain.
// A non-nil user authenticates the request via its session cookie.
func doRequest(s *Server, user *domain.User, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		if strings.HasPrefix(body, "{") {
			req.Header.Set("Content-Type", "application/json")
		} else {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if user != nil {
		req.AddCookie(&http.Cookie{Name: "remember_token", Value: user.Remember})
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

// formBody encodes a single content field the way the post forms send it.
func formBody(field, value string) string {
	v := url.Values{}
	v.Set(field, value)
	return v.Encode()
}
