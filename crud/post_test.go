package crud

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focusfeed/domain"
	"focusfeed/errs"
)

func TestPostCreate(t *testing.T) {
	s := testServices(t)
	alice := createUser(t, s, "alice")

	post := createPost(t, s, alice, "hello world")
	assert.NotZero(t, post.ID)
	assert.Equal(t, alice.ID, post.UserID)
	assert.False(t, post.CreatedAt.IsZero())
	require.NotNil(t, post.User)
	assert.Equal(t, "alice", post.User.Username)
}

func TestPostCreateValidations(t *testing.T) {
	s := testServices(t)
	alice := createUser(t, s, "alice")

	err := s.Post.Create(&domain.Post{UserID: alice.ID, Content: "   "})
	assert.Equal(t, errs.EINVALID, errs.ErrorCode(err))

	err = s.Post.Create(&domain.Post{UserID: alice.ID, Content: strings.Repeat("x", ContentMaxLength+1)})
	assert.Equal(t, errs.EINVALID, errs.ErrorCode(err))

	err = s.Post.Create(&domain.Post{Content: "no author"})
	assert.Equal(t, errs.EUNAUTHORIZED, errs.ErrorCode(err))
}

func TestPostByIDNotFound(t *testing.T) {
	s := testServices(t)

	_, err := s.Post.ByID(9999)
	assert.Equal(t, errs.ENOTFOUND, errs.ErrorCode(err))
}

func TestFeedOrdering(t *testing.T) {
	s := testServices(t)
	alice := createUser(t, s, "alice")

	first := createPost(t, s, alice, "first")
	second := createPost(t, s, alice, "second")
	third := createPost(t, s, alice, "third")

	// Space the timestamps out so ordering doesn't depend on sub-second
	// clock resolution.
	db := s.db
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, db.Model(first).Update("created_at", base).Error)
	require.NoError(t, db.Model(second).Update("created_at", base.Add(time.Minute)).Error)
	require.NoError(t, db.Model(third).Update("created_at", base.Add(2*time.Minute)).Error)

	feed, err := s.Post.Feed("")
	require.NoError(t, err)
	require.Len(t, feed, 3)
	assert.Equal(t, "third", feed[0].Content)
	assert.Equal(t, "second", feed[1].Content)
	assert.Equal(t, "first", feed[2].Content)
}

func TestFeedTieBreaking(t *testing.T) {
	s := testServices(t)
	alice := createUser(t, s, "alice")

	older := createPost(t, s, alice, "older")
	newer := createPost(t, s, alice, "newer")

	// Identical timestamps: the later insert (higher id) lists first.
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.db.Model(older).Update("created_at", ts).Error)
	require.NoError(t, s.db.Model(newer).Update("created_at", ts).Error)

	feed, err := s.Post.Feed("")
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, "newer", feed[0].Content)
}

func TestFeedSearch(t *testing.T) {
	s := testServices(t)
	alice := createUser(t, s, "alice")
	createPost(t, s, alice, "hello world")
	createPost(t, s, alice, "Something Else")

	// Case-insensitive substring match.
	feed, err := s.Post.Feed("HELLO")
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "hello world", feed[0].Content)

	// No match excludes everything.
	feed, err = s.Post.Feed("zzz")
	require.NoError(t, err)
	assert.Empty(t, feed)

	// A filtered feed is a subset of the unfiltered one.
	all, err := s.Post.Feed("")
	require.NoError(t, err)
	filtered, err := s.Post.Feed("e")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(filtered), len(all))
	for _, p := range filtered {
		assert.Contains(t, strings.ToLower(p.Content), "e")
	}

	// A blank query after trimming returns the unfiltered feed.
	blank, err := s.Post.Feed("   ")
	require.NoError(t, err)
	assert.Len(t, blank, len(all))
}

func TestFeedSearchLiteralMetacharacters(t *testing.T) {
	s := testServices(t)
	alice := createUser(t, s, "alice")
	createPost(t, s, alice, "progress is 100 percent")
	createPost(t, s, alice, "literally 100% done")
	createPost(t, s, alice, "under_score naming")
	createPost(t, s, alice, "underscore naming")
	createPost(t, s, alice, `backslash \ content`)

	// "%" and "_" match as literal text, not as LIKE wildcards.
	feed, err := s.Post.Feed("100%")
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "literally 100% done", feed[0].Content)

	feed, err = s.Post.Feed("under_score")
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "under_score naming", feed[0].Content)

	// The escape character itself is searchable.
	feed, err = s.Post.Feed(`\`)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, `backslash \ content`, feed[0].Content)
}

func TestPostUpdateContentOnly(t *testing.T) {
	s := testServices(t)
	alice := createUser(t, s, "alice")
	post := createPost(t, s, alice, "original")
	createdAt := post.CreatedAt

	require.NoError(t, s.Post.Update(post, "edited"))
	require.NoError(t, s.Post.Update(post, "edited twice"))

	got, err := s.Post.ByID(post.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited twice", got.Content)
	// The author and creation time never change, however often we edit.
	assert.Equal(t, alice.ID, got.UserID)
	assert.WithinDuration(t, createdAt, got.CreatedAt, time.Second)

	err = s.Post.Update(post, "")
	assert.Equal(t, errs.EINVALID, errs.ErrorCode(err))
}

func TestPostDeleteRemovesLikes(t *testing.T) {
	s := testServices(t)
	alice := createUser(t, s, "alice")
	bob := createUser(t, s, "bob")
	post := createPost(t, s, alice, "soon gone")

	_, _, err := s.Like.Toggle(post.ID, bob.ID)
	require.NoError(t, err)

	require.NoError(t, s.Post.Delete(post))

	_, err = s.Post.ByID(post.ID)
	assert.Equal(t, errs.ENOTFOUND, errs.ErrorCode(err))

	count, err := s.Like.CountByPost(post.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}
