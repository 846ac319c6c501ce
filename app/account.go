package app

import (
	"context"

	"github.com/CrestNiraj12/twiddle/domain"
)

// AccountService provides information about accounts.
type AccountService interface {
	// CurrentProfile returns the authenticated user's profile.
	CurrentProfile(ctx context.Context) (domain.Profile, error)

	// ProfileByID returns the profile of any account.
	ProfileByID(ctx context.Context, accountID string) (domain.Profile, error)
}
