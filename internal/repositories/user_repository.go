package repositories

import (
	"context"
	"errors"

	"github.com/pulse-social/backend/internal/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []uint) ([]models.User, error)
	IncrementFollowersCount(ctx context.Context, userID uint) error
	DecrementFollowersCount(ctx context.Context, userID uint) error
	IncrementFollowingCount(ctx context.Context, userID uint) error
	DecrementFollowingCount(ctx context.Context, userID uint) error
	ListSuggestedUsers(ctx context.Context, viewerID uint, offset, limit int) ([]models.User, error)
	ListTopUsers(ctx context.Context, offset, limit int) ([]models.User, error)
}

// PostgresUserRepository implements UserRepository for PostgreSQL
type PostgresUserRepository struct {
	db *gorm.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *PostgresUserRepository) GetUsersByIDs(ctx context.Context, ids []uint) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	var users []models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *PostgresUserRepository) IncrementFollowersCount(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("followers_count", gorm.Expr("followers_count + 1")).Error
}

func (r *PostgresUserRepository) DecrementFollowersCount(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("followers_count", gorm.Expr("GREATEST(followers_count - 1, 0)")).Error
}

func (r *PostgresUserRepository) IncrementFollowingCount(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("following_count", gorm.Expr("following_count + 1")).Error
}

func (r *PostgresUserRepository) DecrementFollowingCount(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("following_count", gorm.Expr("GREATEST(following_count - 1, 0)")).Error
}

// ListSuggestedUsers returns accounts the viewer does not follow yet, most
// followed first.
func (r *PostgresUserRepository) ListSuggestedUsers(ctx context.Context, viewerID uint, offset, limit int) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("id <> ?", viewerID).
		Where("id NOT IN (?)",
			r.db.Table("follows").Select("following_id").Where("follower_id = ?", viewerID),
		).
		Order("followers_count DESC, id ASC").
		Offset(offset).Limit(limit).
		Find(&users).Error
	return users, err
}

// ListTopUsers returns globally most-followed accounts, for guests.
func (r *PostgresUserRepository) ListTopUsers(ctx context.Context, offset, limit int) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Order("followers_count DESC, id ASC").
		Offset(offset).Limit(limit).
		Find(&users).Error
	return users, err
}
