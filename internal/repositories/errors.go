package repositories

import "errors"

// Sentinel errors returned by repositories. Handlers map these onto HTTP
// status codes with errors.Is; duplicate like/follow/repost is reported as a
// (created=false, nil) result rather than an error so client retries stay safe.
var (
	ErrPostNotFound         = errors.New("post not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrNotificationNotFound = errors.New("notification not found")
)
