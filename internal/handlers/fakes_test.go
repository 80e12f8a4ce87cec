package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pulse-social/backend/internal/events"
	"github.com/pulse-social/backend/internal/hydration"
	"github.com/pulse-social/backend/internal/models"
	"github.com/pulse-social/backend/internal/repositories"
	"github.com/pulse-social/backend/validators"
	"github.com/stretchr/testify/require"
)

// In-memory repository fakes shared by the handler tests. They implement the
// same idempotency contracts as the Postgres implementations: duplicate
// relationship writes report created=false, deletes of absent rows report
// deleted=false, both without error.

type fakePostRepo struct {
	posts  map[uint]*models.Post
	nextID uint

	feed          []models.Post
	followingFeed []models.Post

	reposted map[[2]uint]bool // [actorID, originalID]

	deletedThreads [][]uint
}

func newFakePostRepo(posts ...models.Post) *fakePostRepo {
	f := &fakePostRepo{
		posts:    map[uint]*models.Post{},
		reposted: map[[2]uint]bool{},
		nextID:   1,
	}
	for i := range posts {
		p := posts[i]
		f.posts[p.ID] = &p
		if p.ID >= f.nextID {
			f.nextID = p.ID + 1
		}
	}
	return f
}

func (f *fakePostRepo) CreatePost(ctx context.Context, post *models.Post) error {
	if post.ParentID != nil {
		parent, ok := f.posts[*post.ParentID]
		if !ok {
			return repositories.ErrPostNotFound
		}
		parent.ReplyCount++
	}
	post.ID = f.nextID
	f.nextID++
	stored := *post
	f.posts[post.ID] = &stored
	return nil
}

func (f *fakePostRepo) GetPostByID(ctx context.Context, id uint) (*models.Post, error) {
	p, ok := f.posts[id]
	if !ok {
		return nil, repositories.ErrPostNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakePostRepo) GetPostsByIDs(ctx context.Context, ids []uint) ([]models.Post, error) {
	var out []models.Post
	for _, id := range ids {
		if p, ok := f.posts[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePostRepo) GetRepliesByParentIDs(ctx context.Context, parentIDs []uint) ([]models.Post, error) {
	parents := map[uint]bool{}
	for _, id := range parentIDs {
		parents[id] = true
	}
	var out []models.Post
	for _, p := range f.posts {
		if p.ParentID != nil && parents[*p.ParentID] {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePostRepo) ListReplies(ctx context.Context, parentID uint, offset, limit int) ([]models.Post, int64, error) {
	replies, _ := f.GetRepliesByParentIDs(ctx, []uint{parentID})
	return replies, int64(len(replies)), nil
}

func (f *fakePostRepo) ListRootPostsByUser(ctx context.Context, userID uint, offset, limit int) ([]models.Post, int64, error) {
	var out []models.Post
	for _, p := range f.posts {
		if p.UserID == userID && p.ParentID == nil {
			out = append(out, *p)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakePostRepo) ListForYouFeed(ctx context.Context, offset, limit int) ([]models.Post, int64, error) {
	return f.feed, int64(len(f.feed)), nil
}

func (f *fakePostRepo) ListFollowingFeed(ctx context.Context, viewerID uint, offset, limit int) ([]models.Post, int64, error) {
	return f.followingFeed, int64(len(f.followingFeed)), nil
}

func (f *fakePostRepo) CreateRepost(ctx context.Context, actorID, originalID uint) (*models.Post, bool, error) {
	key := [2]uint{actorID, originalID}
	if f.reposted[key] {
		return nil, false, nil
	}
	f.reposted[key] = true
	if original, ok := f.posts[originalID]; ok {
		original.RepostCount++
	}
	id := originalID
	repost := &models.Post{ID: f.nextID, UserID: actorID, RepostOfID: &id}
	f.nextID++
	f.posts[repost.ID] = repost
	return repost, true, nil
}

func (f *fakePostRepo) DeleteRepost(ctx context.Context, actorID, originalID uint) (bool, error) {
	key := [2]uint{actorID, originalID}
	if !f.reposted[key] {
		return false, nil
	}
	delete(f.reposted, key)
	if original, ok := f.posts[originalID]; ok && original.RepostCount > 0 {
		original.RepostCount--
	}
	return true, nil
}

func (f *fakePostRepo) ListRepostedOriginalIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error) {
	var out []uint
	for _, id := range postIDs {
		if f.reposted[[2]uint{userID, id}] {
			out = append(out, id)
		}
	}
	return out, nil
}

func (f *fakePostRepo) DeleteThread(ctx context.Context, post *models.Post, ids []uint) error {
	f.deletedThreads = append(f.deletedThreads, ids)
	for _, id := range ids {
		delete(f.posts, id)
	}
	return nil
}

type fakeLikeRepo struct {
	likes map[[2]uint]bool // [userID, postID]
}

func newFakeLikeRepo() *fakeLikeRepo {
	return &fakeLikeRepo{likes: map[[2]uint]bool{}}
}

func (f *fakeLikeRepo) Create(ctx context.Context, userID, postID uint) (bool, error) {
	key := [2]uint{userID, postID}
	if f.likes[key] {
		return false, nil
	}
	f.likes[key] = true
	return true, nil
}

func (f *fakeLikeRepo) Delete(ctx context.Context, userID, postID uint) (bool, error) {
	key := [2]uint{userID, postID}
	if !f.likes[key] {
		return false, nil
	}
	delete(f.likes, key)
	return true, nil
}

func (f *fakeLikeRepo) ListLikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error) {
	var out []uint
	for _, id := range postIDs {
		if f.likes[[2]uint{userID, id}] {
			out = append(out, id)
		}
	}
	return out, nil
}

func (f *fakeLikeRepo) CountByPostID(ctx context.Context, postID uint) (int64, error) {
	var n int64
	for key := range f.likes {
		if key[1] == postID {
			n++
		}
	}
	return n, nil
}

type fakeFollowRepo struct {
	follows map[[2]uint]bool // [followerID, followingID]
}

func newFakeFollowRepo() *fakeFollowRepo {
	return &fakeFollowRepo{follows: map[[2]uint]bool{}}
}

func (f *fakeFollowRepo) Create(ctx context.Context, followerID, followingID uint) (bool, error) {
	key := [2]uint{followerID, followingID}
	if f.follows[key] {
		return false, nil
	}
	f.follows[key] = true
	return true, nil
}

func (f *fakeFollowRepo) Delete(ctx context.Context, followerID, followingID uint) (bool, error) {
	key := [2]uint{followerID, followingID}
	if !f.follows[key] {
		return false, nil
	}
	delete(f.follows, key)
	return true, nil
}

func (f *fakeFollowRepo) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	return f.follows[[2]uint{followerID, followingID}], nil
}

func (f *fakeFollowRepo) ListFollowedUserIDs(ctx context.Context, followerID uint, candidateIDs []uint) ([]uint, error) {
	var out []uint
	for _, id := range candidateIDs {
		if f.follows[[2]uint{followerID, id}] {
			out = append(out, id)
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	users map[uint]models.User

	suggested []models.User
	top       []models.User

	suggestedCalls  int
	topCalls        int
	batchUserCalls  int
	batchUserArgLen int
}

func newFakeUserRepo(users ...models.User) *fakeUserRepo {
	f := &fakeUserRepo{users: map[uint]models.User{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return &u, nil
}

func (f *fakeUserRepo) GetUsersByIDs(ctx context.Context, ids []uint) ([]models.User, error) {
	f.batchUserCalls++
	f.batchUserArgLen = len(ids)
	var out []models.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) IncrementFollowersCount(ctx context.Context, userID uint) error { return nil }
func (f *fakeUserRepo) DecrementFollowersCount(ctx context.Context, userID uint) error { return nil }
func (f *fakeUserRepo) IncrementFollowingCount(ctx context.Context, userID uint) error { return nil }
func (f *fakeUserRepo) DecrementFollowingCount(ctx context.Context, userID uint) error { return nil }

func (f *fakeUserRepo) ListSuggestedUsers(ctx context.Context, viewerID uint, offset, limit int) ([]models.User, error) {
	f.suggestedCalls++
	return f.suggested, nil
}

func (f *fakeUserRepo) ListTopUsers(ctx context.Context, offset, limit int) ([]models.User, error) {
	f.topCalls++
	return f.top, nil
}

type fakeNotificationRepo struct {
	notifications []models.Notification
	unread        int64
	markedFor     []uint
}

func (f *fakeNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	f.notifications = append(f.notifications, *n)
	return nil
}

func (f *fakeNotificationRepo) ListByRecipient(ctx context.Context, recipientID uint, offset, limit int) ([]models.Notification, int64, error) {
	var out []models.Notification
	for _, n := range f.notifications {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeNotificationRepo) UnreadCount(ctx context.Context, recipientID uint) (int64, error) {
	return f.unread, nil
}

func (f *fakeNotificationRepo) MarkAllRead(ctx context.Context, recipientID uint) error {
	f.markedFor = append(f.markedFor, recipientID)
	return nil
}

type fakeBus struct {
	published []events.Event
}

func (f *fakeBus) Publish(evt events.Event) {
	f.published = append(f.published, evt)
}

type fakePurger struct {
	got chan []string
}

func newFakePurger() *fakePurger {
	return &fakePurger{got: make(chan []string, 1)}
}

func (f *fakePurger) Purge(ctx context.Context, urls []string) {
	f.got <- urls
}

func newHydrator(posts *fakePostRepo, likes *fakeLikeRepo, follows *fakeFollowRepo, users *fakeUserRepo) *hydration.Hydrator {
	return hydration.NewHydrator(posts, likes, follows, users)
}

// newTestContext builds an echo context the way requests reach handlers in
// production: validator installed, claims present for signed-in viewers.
func newTestContext(t *testing.T, method, target, body string, userID uint) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = validators.NewValidator()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != 0 {
		c.Set("user", &models.JwtCustomClaims{UserID: userID, Username: "tester"})
	}
	return c, rec
}

// decodeData unwraps the standard {"success","data"} envelope.
func decodeData(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var envelope struct {
		Success bool                   `json:"success"`
		Data    map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &envelope))
	require.True(t, envelope.Success)
	return envelope.Data
}

func strPtr(s string) *string { return &s }
func uintPtr(u uint) *uint    { return &u }
