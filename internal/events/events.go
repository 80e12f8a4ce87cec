// Package events carries social-interaction events from the write path to the
// notification pipeline. Writers publish only after their owning transaction
// has committed, so a consumer never observes an event whose relationship row
// could still roll away.
package events

import "github.com/pulse-social/backend/internal/models"

// Event is a committed domain event.
type Event interface {
	Kind() string
}

// LikeEvent fires after a like row commits.
type LikeEvent struct {
	ActorID uint
	Post    models.Post
}

// FollowEvent fires after a follow edge commits.
type FollowEvent struct {
	ActorID  uint
	TargetID uint
}

// ReplyEvent fires after a reply post commits.
type ReplyEvent struct {
	ActorID uint
	Parent  models.Post
	Reply   models.Post
}

// RepostEvent fires after a repost row commits. Original is always the
// underlying original, never a repost.
type RepostEvent struct {
	ActorID  uint
	Original models.Post
}

func (LikeEvent) Kind() string   { return models.NotificationLike }
func (FollowEvent) Kind() string { return models.NotificationFollow }
func (ReplyEvent) Kind() string  { return models.NotificationReply }
func (RepostEvent) Kind() string { return models.NotificationRepost }
