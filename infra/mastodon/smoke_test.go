//go:build smoke

package mastodon

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/CrestNiraj12/twiddle/app"
)

type envToken struct{}

func (envToken) AccessToken() (string, error) {
	tok := strings.TrimSpace(os.Getenv("TWIDDLE_TOKEN"))
	if tok == "" {
		return "", fmt.Errorf("TWIDDLE_TOKEN is empty")
	}
	return tok, nil
}

func smokeClient(t *testing.T) *Client {
	t.Helper()
	base := strings.TrimSpace(os.Getenv("TWIDDLE_BASE_URL"))
	if base == "" {
		t.Skip("TWIDDLE_BASE_URL not set")
	}
	if strings.TrimSpace(os.Getenv("TWIDDLE_TOKEN")) == "" {
		t.Skip("TWIDDLE_TOKEN not set")
	}
	return NewClient(base, envToken{})
}

func TestSmoke_PageHomeAndProfiles(t *testing.T) {
	client := smokeClient(t)
	ctx := context.Background()
	timeline := NewTimelineService(client, Source{Kind: SourceHome})

	first, err := timeline.Page(ctx, app.PageQuery{Limit: 5})
	if err != nil {
		t.Fatalf("home timeline failed: %v", err)
	}
	if len(first) == 0 {
		t.Skip("home timeline is empty")
	}

	older, err := timeline.Page(ctx, app.PageQuery{Limit: 5, MaxID: first[len(first)-1].ID})
	if err != nil {
		t.Fatalf("older page failed: %v", err)
	}
	for _, p := range older {
		for _, q := range first {
			if p.ID == q.ID {
				t.Fatalf("older page repeated id %s", p.ID)
			}
		}
	}

	accounts := NewAccountService(client)
	if _, err := accounts.CurrentProfile(ctx); err != nil {
		t.Fatalf("verify_credentials failed: %v", err)
	}
	author, err := accounts.ProfileByID(ctx, first[0].Author.ID)
	if err != nil {
		t.Fatalf("account lookup failed: %v", err)
	}
	if author.AvatarURL != "" {
		if _, err := NewMediaService().Download(ctx, author.AvatarURL); err != nil {
			t.Fatalf("avatar download failed: %v", err)
		}
	}
}
