package repositories

import (
	"context"
	"errors"

	"github.com/pulse-social/backend/internal/models"
	"gorm.io/gorm"
)

// LikeRepository defines the interface for like data operations. The like row
// and the post's like counter move together inside one transaction; the
// counter itself is a single-row atomic update, never read-modify-write.
type LikeRepository interface {
	Create(ctx context.Context, userID, postID uint) (bool, error)
	Delete(ctx context.Context, userID, postID uint) (bool, error)
	ListLikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error)
	CountByPostID(ctx context.Context, postID uint) (int64, error)
}

// PostgresLikeRepository implements LikeRepository for PostgreSQL
type PostgresLikeRepository struct {
	db *gorm.DB
}

// NewPostgresLikeRepository creates a new PostgresLikeRepository
func NewPostgresLikeRepository(db *gorm.DB) *PostgresLikeRepository {
	return &PostgresLikeRepository{db: db}
}

// Create inserts a like and bumps the post's like counter. A duplicate like
// returns (false, nil) so retries are idempotent.
func (r *PostgresLikeRepository) Create(ctx context.Context, userID, postID uint) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Like{}).
			Where("user_id = ? AND post_id = ?", userID, postID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		if err := tx.Create(&models.Like{UserID: userID, PostID: postID}).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil
			}
			return err
		}
		if err := tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}

// Delete removes a like and lowers the post's like counter. Missing like rows
// are a no-op.
func (r *PostgresLikeRepository) Delete(ctx context.Context, userID, postID uint) (bool, error) {
	removed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		removed = true
		return tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("like_count", gorm.Expr("GREATEST(like_count - 1, 0)")).Error
	})
	return removed, err
}

// ListLikedPostIDs returns, out of postIDs, the ones the user has liked.
// One bulk query regardless of page size.
func (r *PostgresLikeRepository) ListLikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error) {
	if len(postIDs) == 0 {
		return []uint{}, nil
	}
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &ids).Error
	return ids, err
}

func (r *PostgresLikeRepository) CountByPostID(ctx context.Context, postID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).Where("post_id = ?", postID).Count(&count).Error
	return count, err
}
