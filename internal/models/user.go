package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// User represents an account. Follower/following counts are denormalized and
// maintained with atomic single-row updates, same as post counters.
type User struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	Username       string    `json:"username" gorm:"size:50;uniqueIndex"`
	DisplayName    string    `json:"display_name" gorm:"size:100"`
	Bio            string    `json:"bio" gorm:"size:300"`
	AvatarURL      string    `json:"avatar_url"`
	FollowersCount int       `json:"followers_count" gorm:"not null;default:0"`
	FollowingCount int       `json:"following_count" gorm:"not null;default:0"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UserCompact is the author/actor shape embedded in posts and notifications.
type UserCompact struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// ToCompact converts a User to its compact representation
func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
	}
}

// AuthorView is a compact user annotated with the viewer's follow state.
type AuthorView struct {
	UserCompact
	FollowedByViewer bool `json:"followed_by_viewer"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}
