package models

import "time"

// Media types accepted on posts.
const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

// Post represents a post, reply or repost. The tree is self-referential by id:
// ParentID points at the post being replied to, RepostOfID at the original
// being reposted. A repost has RepostOfID set and no content of its own, and
// RepostOfID never points at a row that is itself a repost (chains are
// flattened at write time). Counters are caches over the like/follow/post
// tables, mutated only through atomic single-row updates.
type Post struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      uint      `json:"user_id" gorm:"index;uniqueIndex:idx_user_repost_of"`
	Content     *string   `json:"content,omitempty"`
	MediaType   *string   `json:"media_type,omitempty" gorm:"size:10"`
	MediaURL    *string   `json:"media_url,omitempty"`
	ParentID    *uint     `json:"parent_id,omitempty" gorm:"index"`
	RepostOfID  *uint     `json:"repost_of_id,omitempty" gorm:"index;uniqueIndex:idx_user_repost_of"`
	ReplyCount  int       `json:"reply_count" gorm:"not null;default:0"`
	RepostCount int       `json:"repost_count" gorm:"not null;default:0"`
	LikeCount   int       `json:"like_count" gorm:"not null;default:0"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsRepost reports whether the post is a repost row.
func (p *Post) IsRepost() bool {
	return p.RepostOfID != nil
}

// IsRoot reports whether the post is a root post (not a reply).
func (p *Post) IsRoot() bool {
	return p.ParentID == nil
}

// CreatePostRequest defines the request body for creating a post or reply.
// Media is referenced by an already-stored URL; uploading is the media
// collaborator's job.
type CreatePostRequest struct {
	Content   *string `json:"content,omitempty" validate:"omitempty,min=1,max=280"`
	MediaType *string `json:"media_type,omitempty" validate:"omitempty,oneof=image video"`
	MediaURL  *string `json:"media_url,omitempty" validate:"omitempty,url"`
	ParentID  *uint   `json:"parent_id,omitempty"`
}

// AnnotatedPost is a post annotated with the viewer's interaction state. A
// repost embeds its original one level deep, never further.
type AnnotatedPost struct {
	ID               uint           `json:"id"`
	Content          *string        `json:"content,omitempty"`
	MediaType        *string        `json:"media_type,omitempty"`
	MediaURL         *string        `json:"media_url,omitempty"`
	Author           AuthorView     `json:"author"`
	ReplyCount       int            `json:"reply_count"`
	RepostCount      int            `json:"repost_count"`
	LikeCount        int            `json:"like_count"`
	LikedByViewer    bool           `json:"liked_by_viewer"`
	RepostedByViewer bool           `json:"reposted_by_viewer"`
	OriginalPost     *AnnotatedPost `json:"original_post,omitempty"`
	ParentID         *uint          `json:"parent_id,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
}
