package feed

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/twiddle/timeline"
)

// run performs req off the UI goroutine and reports back as a ResultMsg.
func (m Model) run(req timeline.Request) tea.Cmd {
	ctx, store := m.ctx, m.store
	return func() tea.Msg {
		return ResultMsg{Result: store.Do(ctx, req)}
	}
}

func (m Model) refresh() tea.Cmd {
	return m.run(timeline.Request{Op: timeline.OpRefresh})
}

func (m Model) loadMore() tea.Cmd {
	return m.run(timeline.Request{Op: timeline.OpMore})
}

func (m Model) fetchAvatar(accountID string) tea.Cmd {
	return m.run(timeline.Request{Op: timeline.OpProfileImage, Ref: accountID})
}
