package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pulse-social/backend/internal/events"
	"github.com/pulse-social/backend/internal/models"
	"github.com/pulse-social/backend/internal/repositories"
)

// RepostHandler handles HTTP requests related to reposts
type RepostHandler struct {
	postRepository repositories.PostRepository
	bus            Publisher
}

// NewRepostHandler creates a new RepostHandler
func NewRepostHandler(postRepo repositories.PostRepository, bus Publisher) *RepostHandler {
	return &RepostHandler{postRepository: postRepo, bus: bus}
}

// RegisterRepostRoutes registers repost-related routes
func (h *RepostHandler) RegisterRepostRoutes(g *echo.Group) {
	g.POST("/posts/:id/repost", h.Repost)
	g.DELETE("/posts/:id/repost", h.Unrepost)
}

// Repost reposts a post. Reposting a repost always re-targets the underlying
// original, so repost-of never points at a repost. Reposting something
// already reposted is idempotent success.
func (h *RepostHandler) Repost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	postID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	original, err := h.resolveOriginal(c, postID)
	if err != nil {
		return err
	}

	_, created, err := h.postRepository.CreateRepost(c.Request().Context(), currentUserID, original.ID)
	if err != nil {
		return httpError(err)
	}

	if created {
		h.bus.Publish(events.RepostEvent{ActorID: currentUserID, Original: *original})
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"reposted": true}})
}

// Unrepost removes the viewer's repost of the underlying original. Idempotent.
func (h *RepostHandler) Unrepost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	postID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	original, err := h.resolveOriginal(c, postID)
	if err != nil {
		return err
	}

	if _, err := h.postRepository.DeleteRepost(c.Request().Context(), currentUserID, original.ID); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"reposted": false}})
}

// resolveOriginal follows at most one repost-of hop; chains are disallowed by
// construction, so no recursion is needed.
func (h *RepostHandler) resolveOriginal(c echo.Context, postID uint) (*models.Post, error) {
	target, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		return nil, httpError(err)
	}
	if target.RepostOfID == nil {
		return target, nil
	}
	original, err := h.postRepository.GetPostByID(c.Request().Context(), *target.RepostOfID)
	if err != nil {
		return nil, httpError(err)
	}
	return original, nil
}
