package domain

import "time"

const AppTitle = "Twiddle"

// Author is the account that published a post.
type Author struct {
	ID          string
	Handle      string // acct, e.g. "user" or "user@remote.social"
	DisplayName string
	AvatarURL   string
}

// Name returns the display name, falling back to the handle.
func (a Author) Name() string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return a.Handle
}

// Media is an attachment on a post.
type Media struct {
	ID          string
	Type        string // image, gifv, video, audio, unknown
	URL         string
	PreviewURL  string
	Description string
}

// Post represents a single status on a timeline. Posts are immutable once
// fetched; the timeline store hands out copies.
type Post struct {
	ID            string
	Author        Author
	Text          string // Plain text, HTML stripped
	CreatedAt     time.Time
	URL           string
	RepostCount   int
	FavoriteCount int
	ReplyCount    int
	Media         []Media
}

// HasMedia reports whether the post carries at least one attachment.
func (p Post) HasMedia() bool {
	return len(p.Media) > 0
}
