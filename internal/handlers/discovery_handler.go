package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pulse-social/backend/internal/models"
	"github.com/pulse-social/backend/internal/repositories"
)

// DiscoveryHandler handles who-to-follow suggestions
type DiscoveryHandler struct {
	userRepository repositories.UserRepository
}

// NewDiscoveryHandler creates a new DiscoveryHandler
func NewDiscoveryHandler(userRepo repositories.UserRepository) *DiscoveryHandler {
	return &DiscoveryHandler{userRepository: userRepo}
}

// RegisterDiscoveryRoutes registers discovery routes
func (h *DiscoveryHandler) RegisterDiscoveryRoutes(g *echo.Group) {
	g.GET("/discovery/suggested-users", h.GetSuggestedUsers)
}

// GetSuggestedUsers returns accounts worth following: personalized for
// signed-in viewers (already-followed accounts filtered out in SQL), global
// top accounts for guests.
func (h *DiscoveryHandler) GetSuggestedUsers(c echo.Context) error {
	page, size := pageParams(c, 10)
	offset := (page - 1) * size

	var users []models.User
	var err error
	if viewer := viewerID(c); viewer != nil {
		users, err = h.userRepository.ListSuggestedUsers(c.Request().Context(), *viewer, offset, size)
	} else {
		users, err = h.userRepository.ListTopUsers(c.Request().Context(), offset, size)
	}
	if err != nil {
		return httpError(err)
	}

	compact := make([]models.UserCompact, len(users))
	for i := range users {
		compact[i] = users[i].ToCompact()
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"users": compact}})
}
