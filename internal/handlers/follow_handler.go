package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pulse-social/backend/internal/events"
	"github.com/pulse-social/backend/internal/repositories"
)

// FollowHandler handles follow/unfollow HTTP requests
type FollowHandler struct {
	followRepository repositories.FollowRepository
	userRepository   repositories.UserRepository
	bus              Publisher
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(followRepo repositories.FollowRepository, userRepo repositories.UserRepository, bus Publisher) *FollowHandler {
	return &FollowHandler{
		followRepository: followRepo,
		userRepository:   userRepo,
		bus:              bus,
	}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.FollowUser)
	g.DELETE("/users/:id/follow", h.UnfollowUser)
}

// FollowUser follows a user. Self-follow is blocked here, upstream of the
// notification pipeline; duplicate follows are idempotent success.
func (h *FollowHandler) FollowUser(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	targetID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if currentUserID == targetID {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot follow yourself")
	}
	if _, err := h.userRepository.GetUserByID(c.Request().Context(), targetID); err != nil {
		return httpError(err)
	}

	created, err := h.followRepository.Create(c.Request().Context(), currentUserID, targetID)
	if err != nil {
		return httpError(err)
	}

	if created {
		h.bus.Publish(events.FollowEvent{ActorID: currentUserID, TargetID: targetID})
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"following": true}})
}

// UnfollowUser unfollows a user. Idempotent.
func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	targetID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if _, err := h.followRepository.Delete(c.Request().Context(), currentUserID, targetID); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"following": false}})
}
