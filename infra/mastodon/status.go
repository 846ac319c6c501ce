package mastodon

import (
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/CrestNiraj12/twiddle/domain"
)

// mastodonStatus is the subset of Mastodon's Status entity we care about.
type mastodonStatus struct {
	ID               string                    `json:"id"`
	Content          string                    `json:"content"` // HTML
	CreatedAt        string                    `json:"created_at"`
	URL              string                    `json:"url"`
	ReblogsCount     int                       `json:"reblogs_count"`
	FavouritesCount  int                       `json:"favourites_count"`
	RepliesCount     int                       `json:"replies_count"`
	Account          mastodonAccount           `json:"account"`
	MediaAttachments []mastodonMediaAttachment `json:"media_attachments"`
	Reblog           *mastodonStatus           `json:"reblog"`
}

type mastodonAccount struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	Acct           string `json:"acct"`
	DisplayName    string `json:"display_name"`
	Note           string `json:"note"`
	URL            string `json:"url"`
	Avatar         string `json:"avatar"`
	AvatarStatic   string `json:"avatar_static"`
	Header         string `json:"header"`
	Bot            bool   `json:"bot"`
	Locked         bool   `json:"locked"`
	CreatedAt      string `json:"created_at"`
	StatusesCount  int    `json:"statuses_count"`
	FollowersCount int    `json:"followers_count"`
	FollowingCount int    `json:"following_count"`
}

type mastodonMediaAttachment struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	URL         string `json:"url"`
	PreviewURL  string `json:"preview_url"`
	Description string `json:"description"`
}

func mapStatuses(statuses []mastodonStatus) []domain.Post {
	posts := make([]domain.Post, 0, len(statuses))
	for _, st := range statuses {
		posts = append(posts, mapStatus(st))
	}
	return posts
}

// mapStatus keeps the wrapper's id and timestamp for boosts so that paging
// cursors and ordering follow the timeline, but shows the boosted content.
func mapStatus(st mastodonStatus) domain.Post {
	body := st
	if st.Reblog != nil {
		body = *st.Reblog
	}
	return domain.Post{
		ID:            st.ID,
		Author:        mapAuthor(body.Account),
		Text:          stripHTML(body.Content),
		CreatedAt:     parseTime(st.CreatedAt),
		URL:           sanitizeForTerminal(body.URL),
		RepostCount:   body.ReblogsCount,
		FavoriteCount: body.FavouritesCount,
		ReplyCount:    body.RepliesCount,
		Media:         mapMediaAttachments(body.MediaAttachments),
	}
}

func mapAuthor(a mastodonAccount) domain.Author {
	avatar := a.AvatarStatic
	if avatar == "" {
		avatar = a.Avatar
	}
	return domain.Author{
		ID:          a.ID,
		Handle:      sanitizeForTerminal(a.Acct),
		DisplayName: sanitizeForTerminal(a.DisplayName),
		AvatarURL:   strings.TrimSpace(avatar),
	}
}

func mapProfile(a mastodonAccount) domain.Profile {
	author := mapAuthor(a)
	return domain.Profile{
		ID:             a.ID,
		Handle:         author.Handle,
		DisplayName:    author.DisplayName,
		Bio:            stripHTML(a.Note),
		AvatarURL:      author.AvatarURL,
		HeaderURL:      strings.TrimSpace(a.Header),
		Bot:            a.Bot,
		Locked:         a.Locked,
		CreatedAt:      parseTime(a.CreatedAt),
		URL:            sanitizeForTerminal(a.URL),
		PostsCount:     a.StatusesCount,
		FollowersCount: a.FollowersCount,
		FollowingCount: a.FollowingCount,
	}
}

func mapMediaAttachments(in []mastodonMediaAttachment) []domain.Media {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.Media, 0, len(in))
	for _, m := range in {
		url := strings.TrimSpace(m.URL)
		preview := strings.TrimSpace(m.PreviewURL)
		if url == "" && preview == "" {
			continue
		}
		out = append(out, domain.Media{
			ID:          m.ID,
			Type:        strings.ToLower(strings.TrimSpace(m.Type)),
			URL:         url,
			PreviewURL:  preview,
			Description: sanitizeForTerminal(strings.TrimSpace(m.Description)),
		})
	}
	return out
}

// parseTime accepts RFC 3339 with or without fractional seconds; Mastodon
// sends "2026-01-02T12:00:00.000Z". Unparseable input yields the zero time.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

var (
	htmlTagRe   = regexp.MustCompile(`<[^>]*>`)
	lineBreakRe = regexp.MustCompile(`(?i)</p>|<br\s*/?>`)
	scriptRe    = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	blankRunRe  = regexp.MustCompile(`\n{3,}`)
)

// stripHTML removes HTML tags and decodes entities.
// Good enough for display; not a security boundary.
func stripHTML(s string) string {
	s = scriptRe.ReplaceAllString(s, "")
	s = lineBreakRe.ReplaceAllString(s, "\n")
	s = htmlTagRe.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = blankRunRe.ReplaceAllString(s, "\n\n")
	return sanitizeForTerminal(strings.TrimSpace(s))
}

var (
	// CSI: ESC [ params intermediates final.
	csiRe = regexp.MustCompile(`\x1b\[[0-?]*[ -/]*[@-~]`)
	// OSC: ESC ] ... terminated by BEL or ST.
	oscRe = regexp.MustCompile(`\x1b\][^\x07\x1b]*(\x07|\x1b\\)`)
	// Any other two-byte escape.
	escRe = regexp.MustCompile(`\x1b.?`)
)

// sanitizeForTerminal removes escape sequences and control characters
// (except newline and tab) so remote text cannot drive the terminal.
func sanitizeForTerminal(s string) string {
	s = oscRe.ReplaceAllString(s, "")
	s = csiRe.ReplaceAllString(s, "")
	s = escRe.ReplaceAllString(s, "")
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r < 0x20 || r == 0x7f:
			return -1
		case r >= 0x80 && r < 0xa0:
			return -1
		default:
			return r
		}
	}, s)
}
