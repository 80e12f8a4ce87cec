// Package feed owns the discovery-feed decay ranking. The same constants feed
// both the pure Score function and the SQL order expression used by the post
// repository, so the two can never drift apart.
package feed

import (
	"fmt"
	"math"
)

// Decay ranking constants. Gravity trades recency against accumulated
// engagement and is deliberately not caller-tunable.
const (
	LikeWeight   = 2.0
	RepostWeight = 3.0
	ReplyWeight  = 1.0

	// EngagementOffset keeps brand-new zero-engagement posts ranked by
	// recency instead of scoring exactly zero.
	EngagementOffset = 1.0

	// AgeOffset bounds the score of posts younger than one hour.
	AgeOffset = 2.0

	Gravity = 1.8
)

// Score computes the decay score of a post. ageHours is fractional wall-clock
// hours since creation. Strictly increasing in every engagement counter for a
// fixed age, strictly decreasing in age for fixed engagement.
func Score(likes, reposts, replies int, ageHours float64) float64 {
	engagement := LikeWeight*float64(likes) +
		RepostWeight*float64(reposts) +
		ReplyWeight*float64(replies) +
		EngagementOffset
	return engagement / math.Pow(ageHours+AgeOffset, Gravity)
}

// OrderExpr returns the Postgres ORDER BY expression equivalent to Score,
// computed per row against now(). Ties break by recency.
func OrderExpr() string {
	return fmt.Sprintf(
		"(%g * like_count + %g * repost_count + %g * reply_count + %g) / power(EXTRACT(EPOCH FROM (now() - created_at)) / 3600.0 + %g, %g) DESC, created_at DESC",
		LikeWeight, RepostWeight, ReplyWeight, EngagementOffset, AgeOffset, Gravity,
	)
}
