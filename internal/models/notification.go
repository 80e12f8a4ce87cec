package models

import "time"

// Notification types.
const (
	NotificationLike   = "LIKE"
	NotificationFollow = "FOLLOW"
	NotificationReply  = "REPLY"
	NotificationRepost = "REPOST"
)

// Notification represents a persisted user notification. Rows are written by
// the notification writer strictly after the triggering relationship commit.
// The only mutation ever applied is the bulk read-flag transition.
type Notification struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Type        string    `json:"type" gorm:"size:10;index"`
	ActorID     uint      `json:"actor_id" gorm:"index"`
	RecipientID uint      `json:"recipient_id" gorm:"index"`
	PostID      *uint     `json:"post_id,omitempty"`
	IsRead      bool      `json:"is_read" gorm:"default:false;index"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
}

// EnrichedNotification includes actor info for rendering and push payloads.
type EnrichedNotification struct {
	Notification
	Actor UserCompact `json:"actor"`
}
