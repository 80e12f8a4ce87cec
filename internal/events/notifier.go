package events

import (
	"context"

	"github.com/pulse-social/backend/internal/models"
	"github.com/pulse-social/backend/internal/repositories"
	log "github.com/sirupsen/logrus"
)

// Pusher hands a persisted notification to the live delivery layer.
type Pusher interface {
	Send(recipientID uint, payload interface{})
}

// Notifier is the bus consumer that turns events into notification rows.
// Addressing and suppression rules:
//
//	LIKE   -> post author, suppressed on self-like
//	FOLLOW -> followed target, never suppressed
//	REPLY  -> parent author, suppressed on self-reply
//	REPOST -> original author, suppressed on self-repost
//
// Persistence always happens before the push attempt for a given recipient.
// Failures are logged and dropped: the social action already succeeded.
type Notifier struct {
	notifications repositories.NotificationRepository
	users         repositories.UserRepository
	pusher        Pusher
}

// NewNotifier creates a new Notifier
func NewNotifier(notifications repositories.NotificationRepository, users repositories.UserRepository, pusher Pusher) *Notifier {
	return &Notifier{notifications: notifications, users: users, pusher: pusher}
}

// Handle consumes one committed event.
func (n *Notifier) Handle(ctx context.Context, evt Event) {
	var notification models.Notification

	switch e := evt.(type) {
	case LikeEvent:
		if e.ActorID == e.Post.UserID {
			return
		}
		notification = models.Notification{
			Type:        models.NotificationLike,
			ActorID:     e.ActorID,
			RecipientID: e.Post.UserID,
			PostID:      &e.Post.ID,
		}
	case FollowEvent:
		notification = models.Notification{
			Type:        models.NotificationFollow,
			ActorID:     e.ActorID,
			RecipientID: e.TargetID,
		}
	case ReplyEvent:
		if e.ActorID == e.Parent.UserID {
			return
		}
		notification = models.Notification{
			Type:        models.NotificationReply,
			ActorID:     e.ActorID,
			RecipientID: e.Parent.UserID,
			PostID:      &e.Reply.ID,
		}
	case RepostEvent:
		if e.ActorID == e.Original.UserID {
			return
		}
		notification = models.Notification{
			Type:        models.NotificationRepost,
			ActorID:     e.ActorID,
			RecipientID: e.Original.UserID,
			PostID:      &e.Original.ID,
		}
	default:
		log.Warnf("unknown event type %T, ignoring", evt)
		return
	}

	if err := n.notifications.Create(ctx, &notification); err != nil {
		log.WithField("event", evt.Kind()).Errorf("failed to persist notification: %v", err)
		return
	}

	enriched := models.EnrichedNotification{Notification: notification}
	if actor, err := n.users.GetUserByID(ctx, notification.ActorID); err == nil {
		enriched.Actor = actor.ToCompact()
	}

	n.pusher.Send(notification.RecipientID, enriched)
}
