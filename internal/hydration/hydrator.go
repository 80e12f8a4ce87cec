// Package hydration annotates pages of posts with a specific viewer's
// interaction state. The batcher is stateless and reentrant: it collects the
// union of ids up front, issues at most three bulk relationship queries per
// page plus one author batch, then assembles results from pure set lookups.
// A naive per-post check would issue O(pageSize) queries per interaction type.
package hydration

import (
	"context"

	"github.com/pulse-social/backend/internal/models"
	"github.com/samber/lo"
)

// PostSource is the subset of the post repository the hydrator needs.
type PostSource interface {
	GetPostsByIDs(ctx context.Context, ids []uint) ([]models.Post, error)
	ListRepostedOriginalIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error)
}

// LikeSource resolves the viewer's liked set.
type LikeSource interface {
	ListLikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error)
}

// FollowSource resolves the viewer's followed-author set.
type FollowSource interface {
	ListFollowedUserIDs(ctx context.Context, followerID uint, candidateIDs []uint) ([]uint, error)
}

// UserSource resolves post authors in bulk.
type UserSource interface {
	GetUsersByIDs(ctx context.Context, ids []uint) ([]models.User, error)
}

// Hydrator batches per-viewer interaction lookups for a page of posts.
type Hydrator struct {
	posts   PostSource
	likes   LikeSource
	follows FollowSource
	users   UserSource
}

// NewHydrator creates a new Hydrator
func NewHydrator(posts PostSource, likes LikeSource, follows FollowSource, users UserSource) *Hydrator {
	return &Hydrator{posts: posts, likes: likes, follows: follows, users: users}
}

// Annotate resolves author info and viewer flags for a page of posts. A nil
// viewerID means anonymous: every flag is false and no relationship table is
// queried. Reposts embed their annotated original one level deep, never
// deeper — originals are never reposts themselves, chains are flattened at
// write time.
func (h *Hydrator) Annotate(ctx context.Context, posts []models.Post, viewerID *uint) ([]models.AnnotatedPost, error) {
	if len(posts) == 0 {
		return []models.AnnotatedPost{}, nil
	}

	// Resolve originals embedded by reposts on this page.
	pageIDs := lo.Map(posts, func(p models.Post, _ int) uint { return p.ID })
	originalIDs := lo.Uniq(lo.FilterMap(posts, func(p models.Post, _ int) (uint, bool) {
		if p.RepostOfID == nil {
			return 0, false
		}
		return *p.RepostOfID, true
	}))

	originals := map[uint]models.Post{}
	if len(originalIDs) > 0 {
		rows, err := h.posts.GetPostsByIDs(ctx, originalIDs)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			originals[row.ID] = row
		}
	}

	// Union of ids the three bulk queries must cover: page posts, their
	// originals, and the authors of both.
	postIDs := lo.Uniq(append(pageIDs, originalIDs...))
	authorIDs := lo.Uniq(append(
		lo.Map(posts, func(p models.Post, _ int) uint { return p.UserID }),
		lo.Map(lo.Values(originals), func(p models.Post, _ int) uint { return p.UserID })...,
	))

	liked := map[uint]struct{}{}
	reposted := map[uint]struct{}{}
	followed := map[uint]struct{}{}
	if viewerID != nil {
		likedIDs, err := h.likes.ListLikedPostIDs(ctx, *viewerID, postIDs)
		if err != nil {
			return nil, err
		}
		repostedIDs, err := h.posts.ListRepostedOriginalIDs(ctx, *viewerID, postIDs)
		if err != nil {
			return nil, err
		}
		followedIDs, err := h.follows.ListFollowedUserIDs(ctx, *viewerID, authorIDs)
		if err != nil {
			return nil, err
		}
		liked = toSet(likedIDs)
		reposted = toSet(repostedIDs)
		followed = toSet(followedIDs)
	}

	users, err := h.users.GetUsersByIDs(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	authors := map[uint]models.UserCompact{}
	for i := range users {
		authors[users[i].ID] = users[i].ToCompact()
	}

	annotate := func(p models.Post) models.AnnotatedPost {
		_, isLiked := liked[p.ID]
		_, isReposted := reposted[p.ID]
		_, isFollowed := followed[p.UserID]
		return models.AnnotatedPost{
			ID:        p.ID,
			Content:   p.Content,
			MediaType: p.MediaType,
			MediaURL:  p.MediaURL,
			Author: models.AuthorView{
				UserCompact:      authors[p.UserID],
				FollowedByViewer: isFollowed,
			},
			ReplyCount:       p.ReplyCount,
			RepostCount:      p.RepostCount,
			LikeCount:        p.LikeCount,
			LikedByViewer:    isLiked,
			RepostedByViewer: isReposted,
			ParentID:         p.ParentID,
			CreatedAt:        p.CreatedAt,
		}
	}

	result := make([]models.AnnotatedPost, 0, len(posts))
	for _, p := range posts {
		item := annotate(p)
		if p.RepostOfID != nil {
			if original, ok := originals[*p.RepostOfID]; ok {
				embedded := annotate(original)
				item.OriginalPost = &embedded
			}
		}
		result = append(result, item)
	}
	return result, nil
}

func toSet(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
