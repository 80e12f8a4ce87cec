package repositories

import (
	"context"
	"errors"

	"github.com/pulse-social/backend/internal/feed"
	"github.com/pulse-social/backend/internal/models"
	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations. Writes that
// touch a relationship row and a counter run inside one transaction so a
// failed write never leaves a partial counter mutation behind.
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id uint) (*models.Post, error)
	GetPostsByIDs(ctx context.Context, ids []uint) ([]models.Post, error)
	GetRepliesByParentIDs(ctx context.Context, parentIDs []uint) ([]models.Post, error)
	ListReplies(ctx context.Context, parentID uint, offset, limit int) ([]models.Post, int64, error)
	ListRootPostsByUser(ctx context.Context, userID uint, offset, limit int) ([]models.Post, int64, error)
	ListForYouFeed(ctx context.Context, offset, limit int) ([]models.Post, int64, error)
	ListFollowingFeed(ctx context.Context, viewerID uint, offset, limit int) ([]models.Post, int64, error)
	CreateRepost(ctx context.Context, actorID, originalID uint) (*models.Post, bool, error)
	DeleteRepost(ctx context.Context, actorID, originalID uint) (bool, error)
	ListRepostedOriginalIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error)
	DeleteThread(ctx context.Context, post *models.Post, ids []uint) error
}

// PostgresPostRepository implements PostRepository for PostgreSQL
type PostgresPostRepository struct {
	db *gorm.DB
}

// NewPostgresPostRepository creates a new PostgresPostRepository
func NewPostgresPostRepository(db *gorm.DB) *PostgresPostRepository {
	return &PostgresPostRepository{db: db}
}

// CreatePost inserts a post or reply. For replies the parent lookup and the
// reply-count bump share the insert's transaction.
func (r *PostgresPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if post.ParentID != nil {
			var count int64
			if err := tx.Model(&models.Post{}).Where("id = ?", *post.ParentID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ErrPostNotFound
			}
		}
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		if post.ParentID != nil {
			return tx.Model(&models.Post{}).Where("id = ?", *post.ParentID).
				UpdateColumn("reply_count", gorm.Expr("reply_count + 1")).Error
		}
		return nil
	})
}

func (r *PostgresPostRepository) GetPostByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (r *PostgresPostRepository) GetPostsByIDs(ctx context.Context, ids []uint) ([]models.Post, error) {
	if len(ids) == 0 {
		return []models.Post{}, nil
	}
	var posts []models.Post
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// GetRepliesByParentIDs returns the direct replies of every given parent, for
// the iterative thread walk.
func (r *PostgresPostRepository) GetRepliesByParentIDs(ctx context.Context, parentIDs []uint) ([]models.Post, error) {
	if len(parentIDs) == 0 {
		return []models.Post{}, nil
	}
	var posts []models.Post
	if err := r.db.WithContext(ctx).Where("parent_id IN ?", parentIDs).Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *PostgresPostRepository) ListReplies(ctx context.Context, parentID uint, offset, limit int) ([]models.Post, int64, error) {
	var posts []models.Post
	var total int64

	q := r.db.WithContext(ctx).Model(&models.Post{}).Where("parent_id = ?", parentID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("created_at ASC").Offset(offset).Limit(limit).Find(&posts).Error
	return posts, total, err
}

func (r *PostgresPostRepository) ListRootPostsByUser(ctx context.Context, userID uint, offset, limit int) ([]models.Post, int64, error) {
	var posts []models.Post
	var total int64

	q := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("user_id = ? AND parent_id IS NULL", userID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&posts).Error
	return posts, total, err
}

// ListForYouFeed returns all root posts ordered by the decay score, recomputed
// per row on every request.
func (r *PostgresPostRepository) ListForYouFeed(ctx context.Context, offset, limit int) ([]models.Post, int64, error) {
	var posts []models.Post
	var total int64

	q := r.db.WithContext(ctx).Model(&models.Post{}).Where("parent_id IS NULL")
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order(feed.OrderExpr()).Offset(offset).Limit(limit).Find(&posts).Error
	return posts, total, err
}

// ListFollowingFeed returns root posts authored by accounts the viewer
// follows, newest first.
func (r *PostgresPostRepository) ListFollowingFeed(ctx context.Context, viewerID uint, offset, limit int) ([]models.Post, int64, error) {
	var posts []models.Post
	var total int64

	followed := r.db.Table("follows").Select("following_id").Where("follower_id = ?", viewerID)
	q := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("parent_id IS NULL AND user_id IN (?)", followed)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&posts).Error
	return posts, total, err
}

// CreateRepost inserts a repost row for the given original and bumps its
// repost count. Returns (row, false, nil) when the actor already reposted the
// original; the caller treats that as idempotent success.
func (r *PostgresPostRepository) CreateRepost(ctx context.Context, actorID, originalID uint) (*models.Post, bool, error) {
	var repost *models.Post
	created := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Post
		err := tx.Where("user_id = ? AND repost_of_id = ?", actorID, originalID).First(&existing).Error
		if err == nil {
			repost = &existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		row := models.Post{
			UserID:     actorID,
			RepostOfID: &originalID,
		}
		if err := tx.Create(&row).Error; err != nil {
			// Lost a race against a concurrent repost of the same original;
			// the unique (user_id, repost_of_id) index makes it a no-op.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil
			}
			return err
		}
		if err := tx.Model(&models.Post{}).Where("id = ?", originalID).
			UpdateColumn("repost_count", gorm.Expr("repost_count + 1")).Error; err != nil {
			return err
		}
		repost = &row
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return repost, created, nil
}

// DeleteRepost removes the actor's repost of the original, if any. Idempotent.
func (r *PostgresPostRepository) DeleteRepost(ctx context.Context, actorID, originalID uint) (bool, error) {
	removed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND repost_of_id = ?", actorID, originalID).Delete(&models.Post{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		removed = true
		return tx.Model(&models.Post{}).Where("id = ?", originalID).
			UpdateColumn("repost_count", gorm.Expr("GREATEST(repost_count - 1, 0)")).Error
	})
	return removed, err
}

// ListRepostedOriginalIDs returns, out of postIDs, the originals the user has
// reposted. One bulk query regardless of page size.
func (r *PostgresPostRepository) ListRepostedOriginalIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error) {
	if len(postIDs) == 0 {
		return []uint{}, nil
	}
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("user_id = ? AND repost_of_id IN ?", userID, postIDs).
		Pluck("repost_of_id", &ids).Error
	return ids, err
}

// DeleteThread removes a post together with its already-collected descendant
// ids in one transaction: parent reply count, dependent likes and the rows
// themselves. Media harvesting must have happened before this call.
func (r *PostgresPostRepository) DeleteThread(ctx context.Context, post *models.Post, ids []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if post.ParentID != nil {
			if err := tx.Model(&models.Post{}).Where("id = ?", *post.ParentID).
				UpdateColumn("reply_count", gorm.Expr("GREATEST(reply_count - 1, 0)")).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("post_id IN ?", ids).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&models.Post{}).Error
	})
}
