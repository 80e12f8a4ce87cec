package hydration

import (
	"context"
	"testing"

	"github.com/pulse-social/backend/internal/models"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSources struct {
	posts   map[uint]models.Post
	users   map[uint]models.User
	liked   []uint
	repostd []uint
	followd []uint

	postCalls   int
	likeCalls   int
	repostCalls int
	followCalls int
	userCalls   int
}

func (f *fakeSources) GetPostsByIDs(ctx context.Context, ids []uint) ([]models.Post, error) {
	f.postCalls++
	var out []models.Post
	for _, id := range ids {
		if p, ok := f.posts[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeSources) ListRepostedOriginalIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error) {
	f.repostCalls++
	return lo.Intersect(f.repostd, postIDs), nil
}

func (f *fakeSources) ListLikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error) {
	f.likeCalls++
	return lo.Intersect(f.liked, postIDs), nil
}

func (f *fakeSources) ListFollowedUserIDs(ctx context.Context, followerID uint, candidateIDs []uint) ([]uint, error) {
	f.followCalls++
	return lo.Intersect(f.followd, candidateIDs), nil
}

func (f *fakeSources) GetUsersByIDs(ctx context.Context, ids []uint) ([]models.User, error) {
	f.userCalls++
	var out []models.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func strPtr(s string) *string { return &s }
func uintPtr(u uint) *uint    { return &u }

func fixtures() *fakeSources {
	return &fakeSources{
		posts: map[uint]models.Post{
			1: {ID: 1, UserID: 10, Content: strPtr("root"), LikeCount: 3},
			2: {ID: 2, UserID: 11, Content: strPtr("original"), RepostCount: 1},
			3: {ID: 3, UserID: 12, RepostOfID: uintPtr(2)},
		},
		users: map[uint]models.User{
			10: {ID: 10, Username: "alice"},
			11: {ID: 11, Username: "bob"},
			12: {ID: 12, Username: "carol"},
		},
	}
}

func TestAnnotateEmptyPageIssuesNoQueries(t *testing.T) {
	src := fixtures()
	h := NewHydrator(src, src, src, src)

	viewer := uint(10)
	out, err := h.Annotate(context.Background(), nil, &viewer)

	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Zero(t, src.postCalls+src.likeCalls+src.repostCalls+src.followCalls+src.userCalls,
		"empty page must not touch any source")
}

func TestAnnotateAnonymousSkipsRelationshipQueries(t *testing.T) {
	src := fixtures()
	src.liked = []uint{1}
	src.followd = []uint{10}
	h := NewHydrator(src, src, src, src)

	out, err := h.Annotate(context.Background(), []models.Post{src.posts[1]}, nil)

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.False(t, out[0].LikedByViewer)
	assert.False(t, out[0].RepostedByViewer)
	assert.False(t, out[0].Author.FollowedByViewer)
	assert.Zero(t, src.likeCalls+src.repostCalls+src.followCalls,
		"anonymous viewers must not trigger relationship lookups")
	assert.Equal(t, 1, src.userCalls)
}

func TestAnnotateBatchesRelationshipQueries(t *testing.T) {
	src := fixtures()
	src.liked = []uint{1, 2}
	src.repostd = []uint{2}
	src.followd = []uint{11}
	h := NewHydrator(src, src, src, src)

	page := []models.Post{src.posts[1], src.posts[3]}
	viewer := uint(12)
	out, err := h.Annotate(context.Background(), page, &viewer)

	require.NoError(t, err)
	require.Len(t, out, 2)

	// One bulk call per relationship regardless of page size.
	assert.Equal(t, 1, src.likeCalls)
	assert.Equal(t, 1, src.repostCalls)
	assert.Equal(t, 1, src.followCalls)
	assert.Equal(t, 1, src.userCalls)

	assert.True(t, out[0].LikedByViewer)
	assert.Equal(t, "alice", out[0].Author.Username)
	assert.False(t, out[0].Author.FollowedByViewer)
}

func TestAnnotateEmbedsOriginalOneLevel(t *testing.T) {
	src := fixtures()
	src.liked = []uint{2}
	src.repostd = []uint{2}
	src.followd = []uint{11}
	h := NewHydrator(src, src, src, src)

	viewer := uint(12)
	out, err := h.Annotate(context.Background(), []models.Post{src.posts[3]}, &viewer)

	require.NoError(t, err)
	require.Len(t, out, 1)

	repost := out[0]
	assert.Equal(t, "carol", repost.Author.Username)

	original := repost.OriginalPost
	require.NotNil(t, original)
	assert.Equal(t, "bob", original.Author.Username)
	assert.Equal(t, "original", *original.Content)
	assert.True(t, original.LikedByViewer)
	assert.True(t, original.Author.FollowedByViewer)
	assert.Nil(t, original.OriginalPost, "embedding stops at one level")
}

func TestAnnotateRepostFlagKeysOffOriginalID(t *testing.T) {
	// The viewer reposted post 2. The flag lives on the original wherever it
	// appears, standalone or embedded; the repost row itself carries no
	// content and no flags.
	src := fixtures()
	src.repostd = []uint{2}
	h := NewHydrator(src, src, src, src)

	viewer := uint(12)
	out, err := h.Annotate(context.Background(), []models.Post{src.posts[2], src.posts[3]}, &viewer)

	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.True(t, out[0].RepostedByViewer, "the original itself reads as reposted")
	assert.False(t, out[1].RepostedByViewer)
	require.NotNil(t, out[1].OriginalPost)
	assert.True(t, out[1].OriginalPost.RepostedByViewer)
}
