package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/twiddle/domain"
	"github.com/CrestNiraj12/twiddle/timeline"
	"github.com/CrestNiraj12/twiddle/tui/common"
)

// Posts per rendered box: 3 content lines + 2 border lines.
const itemHeight = 5

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ensureCursorVisible()
		return m, nil

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ResultMsg:
		return m.handleResult(msg.Result)

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m, nil
}

func (m Model) handleResult(res timeline.FetchResult) (Model, tea.Cmd) {
	switch res.Op {
	case timeline.OpInitial:
		m.loading = false
	case timeline.OpRefresh:
		m.loading = false
	case timeline.OpMore:
		m.loadingMore = false
	case timeline.OpProfileImage:
		m.avatarBusy = false
		m.status = m.avatarStatus(res)
		return m, nil
	default:
		return m, nil
	}

	// A refresh that failed part way may still have added posts, so the
	// view always resyncs from the store before looking at the error.
	m.resync()

	switch {
	case res.Err == nil:
		m.err = nil
		m.status = resultStatus(res)
	case errors.Is(res.Err, domain.ErrStalePage), errors.Is(res.Err, context.Canceled):
		// Superseded by a newer initial fetch; nothing to show.
	case len(m.posts) == 0:
		m.err = res.Err
		m.status = ""
	default:
		m.status = common.ErrorStyle.Render("Error: " + res.Err.Error())
	}
	return m, nil
}

func resultStatus(res timeline.FetchResult) string {
	n := len(res.Posts)
	switch res.Op {
	case timeline.OpRefresh:
		if n == 0 {
			return "Up to date."
		}
		return common.SuccessStyle.Render(fmt.Sprintf("%d new %s", n, plural(n, "post")))
	case timeline.OpMore:
		if n == 0 {
			return "No older posts."
		}
		return fmt.Sprintf("Loaded %d older %s.", n, plural(n, "post"))
	default:
		return ""
	}
}

func (m Model) avatarStatus(res timeline.FetchResult) string {
	if res.Err != nil {
		return common.ErrorStyle.Render("Avatar: " + res.Err.Error())
	}
	who := res.Ref
	for _, p := range m.posts {
		if p.Author.ID == res.Ref {
			who = "@" + p.Author.Handle
			break
		}
	}
	return fmt.Sprintf("Avatar %s: %s %s", who, common.HumanBytes(len(res.Image)), http.DetectContentType(res.Image))
}

// resync copies the store's sequence and keeps the cursor on the same post.
func (m *Model) resync() {
	selectedID := ""
	if p, ok := m.Selected(); ok {
		selectedID = p.ID
	}

	m.posts = m.store.Snapshot()
	m.hasMore = m.store.HasMore()

	m.cursor = 0
	for i, p := range m.posts {
		if p.ID == selectedID {
			m.cursor = i
			break
		}
	}
	m.ensureCursorVisible()
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Refresh):
		if m.loading {
			return m, nil
		}
		m.loading = true
		m.status = ""
		if len(m.posts) == 0 {
			return m, tea.Batch(m.run(timeline.Request{Op: timeline.OpInitial}), m.spinner.Tick)
		}
		return m, tea.Batch(m.refresh(), m.spinner.Tick)

	case key.Matches(msg, m.keys.LoadMore):
		return m.requestMore()

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		m.ensureCursorVisible()
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.posts)-1 {
			m.cursor++
			m.ensureCursorVisible()
			return m, nil
		}
		// At the bottom of the list: pull the next page.
		return m.requestMore()

	case key.Matches(msg, m.keys.Top):
		m.cursor = 0
		m.ensureCursorVisible()
		return m, nil

	case key.Matches(msg, m.keys.Avatar):
		p, ok := m.Selected()
		if !ok || m.avatarBusy {
			return m, nil
		}
		m.avatarBusy = true
		m.status = "Fetching avatar for @" + p.Author.Handle + "..."
		return m, m.fetchAvatar(p.Author.ID)
	}
	return m, nil
}

func (m Model) requestMore() (Model, tea.Cmd) {
	if m.loadingMore || m.loading || !m.hasMore || len(m.posts) == 0 {
		return m, nil
	}
	m.loadingMore = true
	return m, tea.Batch(m.loadMore(), m.spinner.Tick)
}

func (m Model) visibleCount() int {
	// Header (~4 lines) and status bar (~3 lines).
	available := m.height - 7
	n := available / itemHeight
	if n < 1 {
		n = 1
	}
	return n
}

func (m *Model) ensureCursorVisible() {
	if len(m.posts) == 0 {
		m.cursor, m.startIndex = 0, 0
		return
	}
	if m.cursor >= len(m.posts) {
		m.cursor = len(m.posts) - 1
	}
	visible := m.visibleCount()
	if m.cursor < m.startIndex {
		m.startIndex = m.cursor
	}
	if m.cursor >= m.startIndex+visible {
		m.startIndex = m.cursor - visible + 1
	}
	if m.startIndex < 0 {
		m.startIndex = 0
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
