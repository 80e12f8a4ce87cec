package handlers

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pulse-social/backend/internal/events"
	"github.com/pulse-social/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLikeHandlerFixture(posts ...models.Post) (*LikeHandler, *fakeLikeRepo, *fakeBus) {
	likeRepo := newFakeLikeRepo()
	bus := &fakeBus{}
	return NewLikeHandler(likeRepo, newFakePostRepo(posts...), bus), likeRepo, bus
}

func likeRequest(t *testing.T, h *LikeHandler, method string, userID uint, postID string) (*echo.HTTPError, int, map[string]interface{}) {
	t.Helper()
	c, rec := newTestContext(t, method, "/posts/"+postID+"/like", "", userID)
	c.SetParamNames("id")
	c.SetParamValues(postID)

	var handler func(echo.Context) error
	if method == http.MethodPost {
		handler = h.LikePost
	} else {
		handler = h.UnlikePost
	}
	if err := handler(c); err != nil {
		var httpErr *echo.HTTPError
		require.ErrorAs(t, err, &httpErr)
		return httpErr, 0, nil
	}
	return nil, rec.Code, decodeData(t, rec.Body.Bytes())
}

func TestLikePost(t *testing.T) {
	h, repo, bus := newLikeHandlerFixture(models.Post{ID: 1, UserID: 6})

	httpErr, code, data := likeRequest(t, h, http.MethodPost, 5, "1")
	require.Nil(t, httpErr)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, data["liked"])
	assert.True(t, repo.likes[[2]uint{5, 1}])

	require.Len(t, bus.published, 1)
	evt, ok := bus.published[0].(events.LikeEvent)
	require.True(t, ok)
	assert.Equal(t, uint(5), evt.ActorID)
	assert.Equal(t, uint(1), evt.Post.ID)
}

func TestLikePostTwiceIsIdempotent(t *testing.T) {
	h, _, bus := newLikeHandlerFixture(models.Post{ID: 1, UserID: 6})

	for i := 0; i < 2; i++ {
		httpErr, code, data := likeRequest(t, h, http.MethodPost, 5, "1")
		require.Nil(t, httpErr)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, true, data["liked"])
	}

	assert.Len(t, bus.published, 1, "a duplicate like must not fire a second event")
}

func TestLikeMissingPost(t *testing.T) {
	h, _, bus := newLikeHandlerFixture()

	httpErr, _, _ := likeRequest(t, h, http.MethodPost, 5, "99")
	require.NotNil(t, httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)
	assert.Empty(t, bus.published)
}

func TestUnlikeNeverLikedPost(t *testing.T) {
	h, _, bus := newLikeHandlerFixture(models.Post{ID: 1, UserID: 6})

	httpErr, code, data := likeRequest(t, h, http.MethodDelete, 5, "1")
	require.Nil(t, httpErr)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, data["liked"])
	assert.Empty(t, bus.published)
}

func TestUnlikeRemovesLike(t *testing.T) {
	h, repo, _ := newLikeHandlerFixture(models.Post{ID: 1, UserID: 6})
	repo.likes[[2]uint{5, 1}] = true

	httpErr, code, _ := likeRequest(t, h, http.MethodDelete, 5, "1")
	require.Nil(t, httpErr)
	assert.Equal(t, http.StatusOK, code)
	assert.False(t, repo.likes[[2]uint{5, 1}])
}
