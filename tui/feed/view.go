package feed

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/CrestNiraj12/twiddle/domain"
	"github.com/CrestNiraj12/twiddle/tui/common"
)

// View renders the feed as a string.
func (m Model) View() string {
	var b strings.Builder

	title := common.AppTitleStyle.Render(domain.AppTitle)
	source := common.SourceStyle.Render(m.source)
	b.WriteString(common.FitLine(title+" "+source, m.width) + "\n\n")

	switch {
	case m.loading && len(m.posts) == 0:
		b.WriteString(fmt.Sprintf("  %s Loading timeline...\n", m.spinner.View()))
	case m.err != nil:
		b.WriteString(common.ErrorStyle.Render(fmt.Sprintf("  Error: %v", m.err)))
		b.WriteString("\n\n  Press r to retry.\n")
	case len(m.posts) == 0:
		b.WriteString("  Nothing here yet.\n")
	default:
		end := m.startIndex + m.visibleCount()
		if end > len(m.posts) {
			end = len(m.posts)
		}
		for i := m.startIndex; i < end; i++ {
			b.WriteString(m.renderPost(m.posts[i], i == m.cursor) + "\n")
		}
		b.WriteString(m.renderFooter() + "\n")
	}

	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m Model) boxWidth() int {
	w := m.width - 4
	if w <= 0 || w > 100 {
		w = 100
	}
	return w
}

func (m Model) renderPost(p domain.Post, selected bool) string {
	inner := m.boxWidth() - 4

	header := authorStyle(p.Author.Handle).Render(p.Author.Name())
	if handle := displayHandle(p.Author.Handle); handle != "" {
		header += " " + common.HandleStyle.Render(handle)
	}
	if !p.CreatedAt.IsZero() {
		header += "  " + common.TimestampStyle.Render(p.CreatedAt.Local().Format("Jan 02 15:04"))
	}

	text, tags := postBody(p)
	body := common.ContentStyle.Render(common.TruncateLines(text, inner, 2))

	meta := fmt.Sprintf("↩ %d  ⟳ %d  ★ %d", p.ReplyCount, p.RepostCount, p.FavoriteCount)
	if badge := mediaBadge(p.Media); badge != "" {
		meta += "  ▣ " + badge
	}
	if t := tagBadges(tags, 3); t != "" {
		meta += "  " + t
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		common.FitLine(header, inner),
		body,
		common.FitLine(common.MetadataStyle.Render(meta), inner),
	)

	style := common.UnselectedStyle
	if selected {
		style = common.SelectedStyle
	}
	return style.Width(m.boxWidth()).Render(content)
}

func (m Model) renderFooter() string {
	switch {
	case m.loadingMore:
		return fmt.Sprintf("  %s Loading older posts...", m.spinner.View())
	case !m.hasMore:
		return common.TimestampStyle.Render("  End of timeline.")
	default:
		return ""
	}
}

func (m Model) renderStatusBar() string {
	var parts []string
	if m.loading && len(m.posts) > 0 {
		parts = append(parts, m.spinner.View()+" Refreshing...")
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	if len(m.posts) > 0 {
		parts = append(parts, fmt.Sprintf("%d/%d", m.cursor+1, len(m.posts)))
	}

	help := make([]string, 0, len(m.keys.ShortHelp()))
	for _, b := range m.keys.ShortHelp() {
		help = append(help, helpText(b))
	}
	parts = append(parts, strings.Join(help, " · "))

	return common.StatusBarStyle.Render(common.FitLine(strings.Join(parts, "  "), m.width))
}

func helpText(b key.Binding) string {
	h := b.Help()
	return h.Key + " " + h.Desc
}
