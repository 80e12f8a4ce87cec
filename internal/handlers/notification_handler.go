package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pulse-social/backend/internal/models"
	"github.com/pulse-social/backend/internal/realtime"
	"github.com/pulse-social/backend/internal/repositories"
	log "github.com/sirupsen/logrus"
)

// NotificationHandler handles notification-related HTTP requests, including
// the live stream.
type NotificationHandler struct {
	notificationRepository repositories.NotificationRepository
	userRepository         repositories.UserRepository
	registry               *realtime.Registry
	idleTimeout            time.Duration
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifRepo repositories.NotificationRepository, userRepo repositories.UserRepository, registry *realtime.Registry, idleTimeout time.Duration) *NotificationHandler {
	return &NotificationHandler{
		notificationRepository: notifRepo,
		userRepository:         userRepo,
		registry:               registry,
		idleTimeout:            idleTimeout,
	}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.POST("/notifications/mark-read", h.MarkAllRead)
	g.GET("/notifications/stream", h.Stream)
}

// enrichNotifications attaches actor info with one batch user lookup.
func (h *NotificationHandler) enrichNotifications(c echo.Context, notifications []models.Notification) ([]models.EnrichedNotification, error) {
	actorIDs := make([]uint, 0, len(notifications))
	seen := map[uint]bool{}
	for _, n := range notifications {
		if !seen[n.ActorID] {
			seen[n.ActorID] = true
			actorIDs = append(actorIDs, n.ActorID)
		}
	}

	users, err := h.userRepository.GetUsersByIDs(c.Request().Context(), actorIDs)
	if err != nil {
		return nil, err
	}
	actors := map[uint]models.UserCompact{}
	for i := range users {
		actors[users[i].ID] = users[i].ToCompact()
	}

	enriched := make([]models.EnrichedNotification, len(notifications))
	for i, n := range notifications {
		enriched[i] = models.EnrichedNotification{Notification: n, Actor: actors[n.ActorID]}
	}
	return enriched, nil
}

// GetNotifications returns paginated notifications, newest first
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	page, size := pageParams(c, 20)

	notifications, total, err := h.notificationRepository.ListByRecipient(c.Request().Context(), currentUserID, (page-1)*size, size)
	if err != nil {
		return httpError(err)
	}
	enriched, err := h.enrichNotifications(c, notifications)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"notifications": enriched},
		"meta":    pageMeta(page, size, total),
	})
}

// GetUnreadCount returns the unread notification count
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)

	count, err := h.notificationRepository.UnreadCount(c.Request().Context(), currentUserID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"count": count}})
}

// MarkAllRead marks all of the viewer's notifications as read
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)

	if err := h.notificationRepository.MarkAllRead(c.Request().Context(), currentUserID); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"success": true}})
}

// Stream opens the server-push channel and emits named "notification" events
// as they are generated. The channel lives until the client disconnects, the
// idle timeout fires, a write fails, or a newer subscription replaces it; the
// registry entry is cleaned up on every one of those paths.
func (h *NotificationHandler) Stream(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)

	ch, cancel := h.registry.Subscribe(currentUserID)
	defer cancel()

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)
	resp.Flush()

	ctx := c.Request().Context()
	idle := time.NewTimer(h.idleTimeout)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-idle.C:
			return nil
		case payload, ok := <-ch:
			if !ok {
				// Replaced by a newer subscription for this recipient.
				return nil
			}
			data, err := json.Marshal(payload)
			if err != nil {
				log.Errorf("failed to marshal push payload: %v", err)
				continue
			}
			if _, err := fmt.Fprintf(resp, "event: notification\ndata: %s\n\n", data); err != nil {
				// Connection is dead.
				return nil
			}
			resp.Flush()

			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(h.idleTimeout)
		}
	}
}
