package crud

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"focusfeed/domain"
)

// testDB opens a fresh in-memory sqlite database with the full schema.
// The shared-cache DSN keeps all pooled connections on the same database,
// the per-test name keeps tests isolated from each other.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(domain.User{}, domain.Post{}, domain.Like{}))
	return db
}

// testServices builds the full Services container over a test database.
func testServices(t *testing.T) *Services {
	t.Helper()
	services, err := NewServices(
		testDB(t),
		WithUser("test-hmac-key", "test-pepper"),
		WithPost(),
		WithLike(),
	)
	require.NoError(t, err)
	return services
}

// createUser is a helper for seeding a user without going through the full
// validation chain ceremony each time.
func createUser(t *testing.T, s *Services, username string) *domain.User {
	t.Helper()
	user := &domain.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
	}
	require.NoError(t, s.User.Create(user))
	return user
}

// createPost is a helper for seeding a post by the given author.
func createPost(t *testing.T, s *Services, author *domain.User, content string) *domain.Post {
	t.Helper()
	post := &domain.Post{UserID: author.ID, Content: content}
	require.NoError(t, s.Post.Create(post))
	return post
}
