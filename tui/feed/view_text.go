package feed

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/CrestNiraj12/twiddle/domain"
	"github.com/CrestNiraj12/twiddle/tui/common"
)

var hashtagRe = regexp.MustCompile(`(?i)#[a-z0-9_]+`)

// authorPalette gives each handle a stable color.
var authorPalette = []lipgloss.Color{
	"#7DC4E4", "#8BD5CA", "#F5A97F", "#C6A0F6", "#EBA0AC",
	"#A6DA95", "#F9E2AF", "#89B4FA", "#F38BA8", "#94E2D5",
}

// postBody returns the post text without hashtags, and the hashtags
// lowercased in order of first appearance.
func postBody(p domain.Post) (string, []string) {
	var tags []string
	seen := map[string]bool{}
	for _, t := range hashtagRe.FindAllString(p.Text, -1) {
		t = strings.ToLower(t)
		if !seen[t] {
			seen[t] = true
			tags = append(tags, t)
		}
	}

	lines := strings.Split(hashtagRe.ReplaceAllString(p.Text, ""), "\n")
	for i, ln := range lines {
		lines[i] = strings.Join(strings.Fields(ln), " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), tags
}

func tagBadges(tags []string, limit int) string {
	if len(tags) == 0 {
		return ""
	}
	limit = max(limit, 1)
	parts := make([]string, 0, limit+1)
	for i, t := range tags {
		if i == limit {
			parts = append(parts, common.MetadataStyle.Render(fmt.Sprintf("+%d more", len(tags)-limit)))
			break
		}
		parts = append(parts, common.TagStyle.Render(t))
	}
	return strings.Join(parts, " ")
}

// mediaBadge summarizes attachments, e.g. "2 images" or "image, video".
func mediaBadge(media []domain.Media) string {
	if len(media) == 0 {
		return ""
	}
	counts := map[string]int{}
	var kinds []string
	for _, m := range media {
		kind := m.Type
		if kind == "" || kind == "unknown" {
			kind = "file"
		}
		if kind == "gifv" {
			kind = "gif"
		}
		if counts[kind] == 0 {
			kinds = append(kinds, kind)
		}
		counts[kind]++
	}
	parts := make([]string, 0, len(kinds))
	for _, k := range kinds {
		if n := counts[k]; n > 1 {
			parts = append(parts, fmt.Sprintf("%d %ss", n, k))
		} else {
			parts = append(parts, k)
		}
	}
	return strings.Join(parts, ", ")
}

func authorStyle(handle string) lipgloss.Style {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(handle))))
	return common.AuthorStyle.Foreground(authorPalette[h.Sum32()%uint32(len(authorPalette))])
}

// displayHandle renders an acct as @user or @user@host.
func displayHandle(acct string) string {
	user, host, _ := strings.Cut(strings.TrimSpace(acct), "@")
	switch {
	case user == "":
		return ""
	case host == "":
		return "@" + user
	default:
		return "@" + user + "@" + host
	}
}
