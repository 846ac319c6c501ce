package domain

import "time"

// Profile is an account's header and counters.
type Profile struct {
	ID             string
	Handle         string
	DisplayName    string
	Bio            string
	AvatarURL      string
	HeaderURL      string // Cover photo
	Bot            bool
	Locked         bool
	CreatedAt      time.Time
	URL            string
	PostsCount     int
	FollowersCount int
	FollowingCount int
}
