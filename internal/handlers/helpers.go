package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pulse-social/backend/internal/models"
	"github.com/pulse-social/backend/internal/repositories"
)

// getUserIDFromContext returns the authenticated user's id, or 0 for guests.
func getUserIDFromContext(c echo.Context) uint {
	claims, ok := c.Get("user").(*models.JwtCustomClaims)
	if !ok || claims == nil {
		return 0
	}
	return claims.UserID
}

// viewerID returns the viewer as a nullable id for the hydrator.
func viewerID(c echo.Context) *uint {
	if id := getUserIDFromContext(c); id != 0 {
		return &id
	}
	return nil
}

// pageParams clamps page/size query params at the handler boundary: page >= 1,
// 1 <= size <= 50.
func pageParams(c echo.Context, defaultSize int) (page, size int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	size, _ = strconv.Atoi(c.QueryParam("size"))
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 50 {
		size = defaultSize
	}
	return page, size
}

// pageMeta builds the pagination envelope shared by every paginated response.
func pageMeta(page, size int, total int64) echo.Map {
	totalPages := int(math.Ceil(float64(total) / float64(size)))
	return echo.Map{
		"currentPage":     page,
		"totalPages":      totalPages,
		"totalItems":      total,
		"itemsPerPage":    size,
		"hasNextPage":     page < totalPages,
		"hasPreviousPage": page > 1,
	}
}

// httpError maps repository sentinel errors onto HTTP status codes.
func httpError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrPostNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	case errors.Is(err, repositories.ErrUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	case errors.Is(err, repositories.ErrNotificationNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Notification not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
