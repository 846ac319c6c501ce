package mastodon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/CrestNiraj12/twiddle/domain"
)

// accountService implements app.AccountService using the Mastodon API.
type accountService struct {
	client *Client
}

// NewAccountService creates an AccountService backed by Mastodon.
func NewAccountService(client *Client) *accountService {
	return &accountService{client: client}
}

func (s *accountService) CurrentProfile(ctx context.Context) (domain.Profile, error) {
	return s.fetch(ctx, "/api/v1/accounts/verify_credentials")
}

func (s *accountService) ProfileByID(ctx context.Context, accountID string) (domain.Profile, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return domain.Profile{}, fmt.Errorf("empty account id")
	}
	return s.fetch(ctx, "/api/v1/accounts/"+url.PathEscape(accountID))
}

func (s *accountService) fetch(ctx context.Context, path string) (domain.Profile, error) {
	data, err := s.client.Get(ctx, path)
	if err != nil {
		return domain.Profile{}, err
	}

	var acct mastodonAccount
	if err := json.Unmarshal(data, &acct); err != nil {
		return domain.Profile{}, fmt.Errorf("%w: parsing account: %w", domain.ErrMalformedResponse, err)
	}
	if acct.ID == "" {
		return domain.Profile{}, fmt.Errorf("%w: account without id", domain.ErrMalformedResponse)
	}
	return mapProfile(acct), nil
}
