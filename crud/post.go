package crud

import (
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"focusfeed/domain"
	"focusfeed/errs"
)

// ContentMaxLength caps the post body on the write path. The column itself
// is unbounded text, the cap only guards Create and Update.
const ContentMaxLength = 10000

// PostService manages Posts.
// It implements the domain.PostService interface.
type PostService struct {
	postValidator
}

// postValidator runs validations on incoming Post data.
// On success, it passes the data on to postGorm.
// Otherwise, it returns the error of the validation that has failed.
type postValidator struct {
	postGorm
}

// postGorm runs CRUD operations on the database using incoming Post data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type postGorm struct {
	db *gorm.DB
}

// NewPostService returns an instance of PostService.
func NewPostService(db *gorm.DB) *PostService {
	return &PostService{
		postValidator{
			postGorm{
				db: db,
			},
		},
	}
}

// Ensure the PostService struct properly implements the domain.PostService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.PostService = &PostService{}

// Create runs validations needed for creating new Post database records.
func (pv *postValidator) Create(post *domain.Post) error {
	err := runPostValFns(post,
		pv.userIdValid,
		pv.contentMinLength,
		pv.contentMaxLength)
	if err != nil {
		return err
	}
	return pv.postGorm.Create(post)
}

// Update runs content validations, then updates only the content column.
// UserID and CreatedAt are never written after Create.
func (pv *postValidator) Update(post *domain.Post, content string) error {
	check := domain.Post{Content: content}
	err := runPostValFns(&check,
		pv.contentMinLength,
		pv.contentMaxLength)
	if err != nil {
		return err
	}
	return pv.postGorm.Update(post, content)
}

// Delete runs validations needed for deleting existing Post database records.
func (pv *postValidator) Delete(post *domain.Post) error {
	err := runPostValFns(post, pv.idValid)
	if err != nil {
		return err
	}
	return pv.postGorm.Delete(post)
}

// runPostValFns runs any number of functions of type postValFn on the passed in Post object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runPostValFns(post *domain.Post, fns ...postValFn) error {
	for _, fn := range fns {
		if err := fn(post); err != nil {
			return err
		}
	}
	return nil
}

// A postValFn is any function that takes in a pointer to a domain.Post object and returns an error.
type postValFn = func(post *domain.Post) error

// contentMinLength makes sure that the Post's content is not empty.
func (pv *postValidator) contentMinLength(post *domain.Post) error {
	contentStripped := strings.ReplaceAll(post.Content, " ", "")
	if contentStripped == "" {
		return errs.Errorf(errs.EINVALID, "Post content must not be empty.")
	}
	return nil
}

// contentMaxLength makes sure that the Post's content does not exceed the maximum content length.
func (pv *postValidator) contentMaxLength(post *domain.Post) error {
	if utf8.RuneCountInString(post.Content) > ContentMaxLength {
		return errs.Errorf(errs.EINVALID, "Post content max length is %d characters.", ContentMaxLength)
	}
	return nil
}

// idValid makes sure that the passed in ID of a Post to be deleted is greater than 0.
func (pv *postValidator) idValid(post *domain.Post) error {
	if post.ID <= 0 {
		return errs.Errorf(errs.EINVALID, "Invalid post ID.")
	}
	return nil
}

// userIdValid ensures that the userId is not empty.
func (pv *postValidator) userIdValid(post *domain.Post) error {
	if post.UserID <= 0 {
		return errs.Errorf(errs.EUNAUTHORIZED, "An authenticated author is required.")
	}
	return nil
}

// ByID retrieves a single Post by ID, along with its author and likes.
// If the record doesn't exist, it returns errs.ENOTFOUND.
func (pg *postGorm) ByID(id int) (*domain.Post, error) {
	var post domain.Post
	err := pg.db.
		Preload("User").
		Preload("Likes").
		First(&post, "id = ?", id).
		Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errs.Errorf(errs.ENOTFOUND, "The post does not exist.")
		}
		return nil, err
	}
	return &post, nil
}

// Feed retrieves the timeline: all posts ordered by creation time descending,
// ties broken by ID descending so same-second posts list newest insert first.
// A non-empty trimmed query narrows the feed to posts whose content contains
// it as a case-insensitive substring.
func (pg *postGorm) Feed(query string) ([]domain.Post, error) {
	var posts []domain.Post
	db := pg.db.
		Preload("User").
		Preload("Likes").
		Order("created_at desc, id desc")
	if q := strings.TrimSpace(query); q != "" {
		// LOWER/LIKE instead of ILIKE so the same query runs on
		// postgres and the sqlite test store. LIKE metacharacters in
		// the query are escaped so they match literally.
		db = db.Where(`LOWER(content) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(q))+"%")
	}
	if err := db.Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// likeEscaper neutralizes the LIKE pattern metacharacters, and the escape
// character itself, in a search query.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike returns the query with all LIKE metacharacters escaped, so the
// feed search matches them as literal text.
func escapeLike(q string) string {
	return likeEscaper.Replace(q)
}

// Create stores the data from the Post object in a new database record.
func (pg *postGorm) Create(post *domain.Post) error {
	if err := pg.db.Create(post).Error; err != nil {
		return err
	}
	return pg.db.Preload("User").First(post, "id = ?", post.ID).Error
}

// Update writes the new content to the existing record. Only the content
// column is touched.
func (pg *postGorm) Update(post *domain.Post, content string) error {
	err := pg.db.Model(post).Update("content", content).Error
	if err != nil {
		return err
	}
	post.Content = content
	return nil
}

// Delete soft-deletes a Post record from the database, along with its
// associated Likes, in a single statement.
func (pg *postGorm) Delete(post *domain.Post) error {
	return pg.db.Select("Likes").Delete(post).Error
}
