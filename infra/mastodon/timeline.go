package mastodon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/CrestNiraj12/twiddle/app"
	"github.com/CrestNiraj12/twiddle/domain"
)

// SourceKind selects which Mastodon timeline a service pages through.
type SourceKind int

const (
	SourceHome SourceKind = iota
	SourceTag
	SourceAccount
)

// Source is a timeline selector: the home timeline, a hashtag, or the
// statuses of one account.
type Source struct {
	Kind SourceKind
	Arg  string // Hashtag for SourceTag, account id for SourceAccount.
}

// ParseSource accepts "home", "tag:<name>" and "account:<id>".
func ParseSource(s string) (Source, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "home" {
		return Source{Kind: SourceHome}, nil
	}
	kind, arg, ok := strings.Cut(s, ":")
	arg = strings.TrimSpace(arg)
	if !ok || arg == "" {
		return Source{}, fmt.Errorf("invalid timeline source %q", s)
	}
	switch kind {
	case "tag":
		return Source{Kind: SourceTag, Arg: strings.TrimPrefix(arg, "#")}, nil
	case "account":
		return Source{Kind: SourceAccount, Arg: arg}, nil
	default:
		return Source{}, fmt.Errorf("invalid timeline source %q", s)
	}
}

func (src Source) String() string {
	switch src.Kind {
	case SourceTag:
		return "tag:" + src.Arg
	case SourceAccount:
		return "account:" + src.Arg
	default:
		return "home"
	}
}

func (src Source) path() string {
	switch src.Kind {
	case SourceTag:
		return "/api/v1/timelines/tag/" + url.PathEscape(src.Arg)
	case SourceAccount:
		return "/api/v1/accounts/" + url.PathEscape(src.Arg) + "/statuses"
	default:
		return "/api/v1/timelines/home"
	}
}

// timelineService implements app.TimelineService using the Mastodon API.
type timelineService struct {
	client *Client
	source Source
}

// NewTimelineService creates a TimelineService backed by Mastodon.
func NewTimelineService(client *Client, source Source) *timelineService {
	return &timelineService{client: client, source: source}
}

func (s *timelineService) Page(ctx context.Context, q app.PageQuery) ([]domain.Post, error) {
	params := url.Values{}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.MaxID != "" {
		params.Set("max_id", q.MaxID)
	}
	if q.MinID != "" {
		params.Set("min_id", q.MinID)
	}

	path := s.source.path()
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	data, err := s.client.Get(ctx, path)
	if err != nil {
		return nil, err
	}

	var statuses []mastodonStatus
	if err := json.Unmarshal(data, &statuses); err != nil {
		return nil, fmt.Errorf("%w: parsing timeline: %w", domain.ErrMalformedResponse, err)
	}
	return mapStatuses(statuses), nil
}
