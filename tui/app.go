package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/twiddle/tui/common"
	"github.com/CrestNiraj12/twiddle/tui/feed"
)

// Deps holds all dependencies the TUI needs. Plain struct, not a DI container.
type Deps struct {
	Store  feed.Store
	Source string // Label shown next to the title.
}

// App is the root Bubble Tea model.
type App struct {
	feed   feed.Model
	keys   common.KeyMap
	cancel context.CancelFunc
}

// NewApp creates the root model with all dependencies wired. Store calls
// issued by the view are canceled when the app quits.
func NewApp(deps Deps) App {
	ctx, cancel := context.WithCancel(context.Background())
	return App{
		feed:   feed.New(ctx, deps.Store, deps.Source),
		keys:   common.DefaultKeyMap(),
		cancel: cancel,
	}
}

// Init delegates to the feed.
func (a App) Init() tea.Cmd {
	return a.feed.Init()
}

// Update handles global keys and routes everything else to the feed.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if key.Matches(msg, a.keys.Quit) || key.Matches(msg, a.keys.ForceQuit) {
			a.cancel()
			return a, tea.Quit
		}
	}

	updated, cmd := a.feed.Update(msg)
	a.feed = updated
	return a, cmd
}

// View renders the feed.
func (a App) View() string {
	return a.feed.View()
}
