package app

import (
	"context"

	"github.com/CrestNiraj12/twiddle/domain"
)

// PageQuery selects one page of a timeline. At most one of MaxID and MinID
// is expected to be set.
type PageQuery struct {
	Limit int
	MaxID string // Return posts older than this ID.
	MinID string // Return posts immediately newer than this ID.
}

// TimelineService fetches pages of posts from a social timeline.
type TimelineService interface {
	// Page returns one page of posts, newest first.
	Page(ctx context.Context, q PageQuery) ([]domain.Post, error)
}

// MediaService downloads raw media bytes (avatars, attachments).
type MediaService interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// Authenticator logs the user in against the identity provider.
// Only success or failure surfaces to the caller.
type Authenticator interface {
	Authenticate(ctx context.Context) error
}
