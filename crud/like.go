package crud

import (
	"gorm.io/gorm"

	"focusfeed/domain"
	"focusfeed/errs"
)

// LikeService manages Likes.
// It implements the domain.LikeService interface.
type LikeService struct {
	likeValidator
}

// likeValidator runs validations on incoming Like data.
// On success, it passes the data on to likeGorm.
// Otherwise, it returns the error of the validation that has failed.
type likeValidator struct {
	likeGorm
}

// likeGorm runs CRUD operations on the database using incoming Like data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type likeGorm struct {
	db *gorm.DB
}

// NewLikeService returns an instance of LikeService.
func NewLikeService(db *gorm.DB) *LikeService {
	return &LikeService{
		likeValidator{
			likeGorm{
				db: db,
			},
		},
	}
}

// Ensure the LikeService struct properly implements the domain.LikeService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.LikeService = &LikeService{}

// Toggle runs validations, then flips the user's like on the post.
func (lv *likeValidator) Toggle(postID, userID int) (bool, int, error) {
	if userID <= 0 {
		return false, 0, errs.Errorf(errs.EUNAUTHORIZED, "An authenticated user is required.")
	}
	if err := lv.likedPostExists(postID); err != nil {
		return false, 0, err
	}
	return lv.likeGorm.Toggle(postID, userID)
}

// likedPostExists makes sure that the post to be liked actually exists.
func (lv *likeValidator) likedPostExists(postID int) error {
	err := lv.db.First(&domain.Post{}, "id = ?", postID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errs.Errorf(errs.ENOTFOUND, "The liked post does not exist.")
		}
		return err
	}
	return nil
}

// Toggle removes the user's like if present, otherwise creates it, and
// returns the resulting membership and like count. The whole flip runs in
// one transaction so two concurrent toggles on the same pair serialize
// against the row; the unique index on (user_id, post_id) is the backstop
// against a duplicate slipping through.
func (lg *likeGorm) Toggle(postID, userID int) (liked bool, count int, err error) {
	err = lg.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&domain.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if err := tx.Create(&domain.Like{UserID: userID, PostID: postID}).Error; err != nil {
				return err
			}
			liked = true
		}
		var n int64
		if err := tx.Model(&domain.Like{}).Where("post_id = ?", postID).Count(&n).Error; err != nil {
			return err
		}
		count = int(n)
		return nil
	})
	if err != nil {
		return false, 0, err
	}
	return liked, count, nil
}

// CountByPost returns the number of likes on a post.
func (lg *likeGorm) CountByPost(postID int) (int, error) {
	var count int64
	err := lg.db.Model(&domain.Like{}).Where("post_id = ?", postID).Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// UserLikes takes a user ID and a post ID and returns a boolean expressing
// whether the given user likes the given post or not.
func (lg *likeGorm) UserLikes(userID, postID int) bool {
	err := lg.db.First(&domain.Like{}, "user_id = ? AND post_id = ?", userID, postID).Error
	return err == nil
}
