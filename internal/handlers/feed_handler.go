package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/pulse-social/backend/internal/hydration"
	"github.com/pulse-social/backend/internal/models"
	"github.com/pulse-social/backend/internal/repositories"
	log "github.com/sirupsen/logrus"
)

const feedCacheTTL = 30 * time.Second

// FeedHandler handles feed-related HTTP requests
type FeedHandler struct {
	postRepository repositories.PostRepository
	hydrator       *hydration.Hydrator
	redis          *redis.Client
}

// NewFeedHandler creates a new FeedHandler. redis may be nil; the guest feed
// cache is then disabled.
func NewFeedHandler(postRepo repositories.PostRepository, hydrator *hydration.Hydrator, redisClient *redis.Client) *FeedHandler {
	return &FeedHandler{
		postRepository: postRepo,
		hydrator:       hydrator,
		redis:          redisClient,
	}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
}

type cachedFeedPage struct {
	Posts []models.Post `json:"posts"`
	Total int64         `json:"total"`
}

// GetFeed returns an annotated feed page. type=foryou (default) ranks all
// root posts by decay score; type=following is the chronological timeline of
// followed authors and requires a signed-in viewer.
func (h *FeedHandler) GetFeed(c echo.Context) error {
	viewer := viewerID(c)
	page, size := pageParams(c, 20)
	offset := (page - 1) * size

	var posts []models.Post
	var total int64
	var err error

	switch feedType := c.QueryParam("type"); feedType {
	case "following":
		if viewer == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Login to see following feed")
		}
		posts, total, err = h.postRepository.ListFollowingFeed(c.Request().Context(), *viewer, offset, size)
	case "", "foryou":
		posts, total, err = h.forYouPage(c, viewer, page, size, offset)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "Unknown feed type")
	}
	if err != nil {
		return httpError(err)
	}

	annotated, err := h.hydrator.Annotate(c.Request().Context(), posts, viewer)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"posts": annotated},
		"meta":    pageMeta(page, size, total),
	})
}

// forYouPage serves the ranked discovery page. Guest pages are identical for
// every caller, so they are cached briefly; signed-in requests always hit the
// database because hydration flags are per-viewer anyway.
func (h *FeedHandler) forYouPage(c echo.Context, viewer *uint, page, size, offset int) ([]models.Post, int64, error) {
	ctx := c.Request().Context()
	cacheKey := fmt.Sprintf("cache:feed:foryou:page:%d:size:%d", page, size)

	if viewer == nil && h.redis != nil {
		if cached, err := h.redis.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
			var entry cachedFeedPage
			if json.Unmarshal([]byte(cached), &entry) == nil {
				return entry.Posts, entry.Total, nil
			}
		}
	}

	posts, total, err := h.postRepository.ListForYouFeed(ctx, offset, size)
	if err != nil {
		return nil, 0, err
	}

	if viewer == nil && h.redis != nil && len(posts) > 0 {
		if data, err := json.Marshal(cachedFeedPage{Posts: posts, Total: total}); err == nil {
			if err := h.redis.Set(ctx, cacheKey, data, feedCacheTTL).Err(); err != nil {
				log.Debugf("feed cache set failed: %v", err)
			}
		}
	}

	return posts, total, nil
}
