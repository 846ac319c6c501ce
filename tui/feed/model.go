package feed

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/CrestNiraj12/twiddle/domain"
	"github.com/CrestNiraj12/twiddle/timeline"
	"github.com/CrestNiraj12/twiddle/tui/common"
)

// Store is the part of timeline.Store the feed view needs.
type Store interface {
	Snapshot() []domain.Post
	HasMore() bool
	Do(ctx context.Context, req timeline.Request) timeline.FetchResult
}

// --- Messages ---

// ResultMsg carries a completed store operation, whether the view asked
// for it or a background refresh produced it.
type ResultMsg struct {
	Result timeline.FetchResult
}

// --- Model ---

// Model holds the state for the feed (timeline) view.
type Model struct {
	ctx    context.Context
	store  Store
	source string

	posts       []domain.Post
	hasMore     bool
	cursor      int
	startIndex  int
	loading     bool
	loadingMore bool
	avatarBusy  bool
	err         error
	status      string

	width   int
	height  int
	keys    common.KeyMap
	spinner spinner.Model
}

// New creates a feed model. ctx bounds every store call the view issues.
func New(ctx context.Context, store Store, source string) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#6364FF"))

	return Model{
		ctx:     ctx,
		store:   store,
		source:  source,
		hasMore: true,
		loading: true,
		keys:    common.DefaultKeyMap(),
		spinner: s,
	}
}

// Init starts the initial timeline fetch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.run(timeline.Request{Op: timeline.OpInitial}),
		m.spinner.Tick,
	)
}

// Update handles messages for the feed view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m.update(msg)
}

// Selected returns the post under the cursor.
func (m Model) Selected() (domain.Post, bool) {
	if m.cursor < 0 || m.cursor >= len(m.posts) {
		return domain.Post{}, false
	}
	return m.posts[m.cursor], true
}

// Busy reports whether a timeline request is in flight.
func (m Model) Busy() bool {
	return m.loading || m.loadingMore
}
