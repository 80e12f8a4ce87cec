package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pulse-social/backend/internal/events"
	"github.com/pulse-social/backend/internal/hydration"
	"github.com/pulse-social/backend/internal/media"
	"github.com/pulse-social/backend/internal/models"
	"github.com/pulse-social/backend/internal/repositories"
	log "github.com/sirupsen/logrus"
)

// Publisher enqueues committed domain events.
type Publisher interface {
	Publish(evt events.Event)
}

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	postRepository repositories.PostRepository
	hydrator       *hydration.Hydrator
	bus            Publisher
	purger         media.Purger
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(postRepo repositories.PostRepository, hydrator *hydration.Hydrator, bus Publisher, purger media.Purger) *PostHandler {
	return &PostHandler{
		postRepository: postRepo,
		hydrator:       hydrator,
		bus:            bus,
		purger:         purger,
	}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group, authed *echo.Group) {
	g.GET("/posts/:id", h.GetPost)
	g.GET("/posts/:id/replies", h.GetReplies)
	g.GET("/users/:id/posts", h.GetUserPosts)
	authed.POST("/posts", h.CreatePost)
	authed.DELETE("/posts/:id", h.DeletePost)
}

// CreatePost creates a new post or reply. Media arrives as an already-stored
// URL from the upload collaborator.
func (h *PostHandler) CreatePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)

	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	content := cleanContent(req.Content)
	if content == nil && req.MediaURL == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "A post must have either text content or media")
	}
	if (req.MediaURL == nil) != (req.MediaType == nil) {
		return echo.NewHTTPError(http.StatusBadRequest, "media_type and media_url must be provided together")
	}

	var parent *models.Post
	if req.ParentID != nil {
		var err error
		parent, err = h.postRepository.GetPostByID(c.Request().Context(), *req.ParentID)
		if err != nil {
			return httpError(err)
		}
	}

	post := &models.Post{
		UserID:    currentUserID,
		Content:   content,
		MediaType: req.MediaType,
		MediaURL:  req.MediaURL,
		ParentID:  req.ParentID,
	}
	if err := h.postRepository.CreatePost(c.Request().Context(), post); err != nil {
		return httpError(err)
	}

	if parent != nil {
		h.bus.Publish(events.ReplyEvent{ActorID: currentUserID, Parent: *parent, Reply: *post})
	}

	annotated, err := h.hydrator.Annotate(c.Request().Context(), []models.Post{*post}, viewerID(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": echo.Map{"post": annotated[0]}})
}

// GetPost retrieves a single annotated post
func (h *PostHandler) GetPost(c echo.Context) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		return httpError(err)
	}

	annotated, err := h.hydrator.Annotate(c.Request().Context(), []models.Post{*post}, viewerID(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"post": annotated[0]}})
}

// GetReplies returns the paginated replies of a post, oldest first
func (h *PostHandler) GetReplies(c echo.Context) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	page, size := pageParams(c, 20)

	if _, err := h.postRepository.GetPostByID(c.Request().Context(), postID); err != nil {
		return httpError(err)
	}

	replies, total, err := h.postRepository.ListReplies(c.Request().Context(), postID, (page-1)*size, size)
	if err != nil {
		return httpError(err)
	}
	annotated, err := h.hydrator.Annotate(c.Request().Context(), replies, viewerID(c))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"posts": annotated},
		"meta":    pageMeta(page, size, total),
	})
}

// GetUserPosts returns a user's root posts, newest first
func (h *PostHandler) GetUserPosts(c echo.Context) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	page, size := pageParams(c, 20)

	posts, total, err := h.postRepository.ListRootPostsByUser(c.Request().Context(), userID, (page-1)*size, size)
	if err != nil {
		return httpError(err)
	}
	annotated, err := h.hydrator.Annotate(c.Request().Context(), posts, viewerID(c))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"posts": annotated},
		"meta":    pageMeta(page, size, total),
	})
}

// DeletePost deletes a post and its reply thread. Media URLs of the whole
// thread are harvested before any row goes away, then handed to the media
// collaborator once the delete has committed.
func (h *PostHandler) DeletePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	postID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		return httpError(err)
	}
	if post.UserID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "You can only delete your own posts")
	}

	ids, mediaURLs, err := h.collectThread(c.Request().Context(), post)
	if err != nil {
		return httpError(err)
	}

	if err := h.postRepository.DeleteThread(c.Request().Context(), post, ids); err != nil {
		return httpError(err)
	}

	if len(mediaURLs) > 0 {
		go h.purger.Purge(context.Background(), mediaURLs)
	}

	return c.NoContent(http.StatusNoContent)
}

// collectThread walks the reply tree level by level and gathers every post id
// and media URL below (and including) the given post. Plain iterative id
// lookups; parent pointers are ids, so there is no cycle to guard against.
func (h *PostHandler) collectThread(ctx context.Context, post *models.Post) ([]uint, []string, error) {
	ids := []uint{post.ID}
	var mediaURLs []string
	if post.MediaURL != nil {
		mediaURLs = append(mediaURLs, *post.MediaURL)
	}

	frontier := []uint{post.ID}
	for len(frontier) > 0 {
		replies, err := h.postRepository.GetRepliesByParentIDs(ctx, frontier)
		if err != nil {
			return nil, nil, err
		}
		frontier = frontier[:0]
		for _, reply := range replies {
			ids = append(ids, reply.ID)
			frontier = append(frontier, reply.ID)
			if reply.MediaURL != nil {
				mediaURLs = append(mediaURLs, *reply.MediaURL)
			}
		}
	}
	return ids, mediaURLs, nil
}

func cleanContent(content *string) *string {
	if content == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*content)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		log.Debugf("invalid %s param: %q", name, c.Param(name))
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid id")
	}
	return uint(id), nil
}
