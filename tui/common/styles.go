package common

import "github.com/charmbracelet/lipgloss"

var (
	// AppTitleStyle styles the application title. Rendered at call site with content.
	AppTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#6364FF")).
			Padding(1, 1, 0, 1)

	// SourceStyle styles the timeline source shown next to the title.
	SourceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A6DA95")).
			Bold(true)

	// AuthorStyle styles the post author name.
	AuthorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7DC4E4"))

	// HandleStyle styles the @handle after the display name.
	HandleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6E738D"))

	// TimestampStyle styles timestamps.
	TimestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6E738D"))

	// ContentStyle styles post text.
	ContentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CAD3F5"))

	// MetadataStyle styles counts and media badges.
	MetadataStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8087A2"))

	// TagStyle renders a hashtag badge.
	TagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A9A9A9")).
			Background(lipgloss.Color("#2F2F2F")).
			Padding(0, 1)

	// SelectedStyle highlights the currently selected post.
	SelectedStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#6364FF")).
			Padding(0, 1)

	// UnselectedStyle gives unselected posts a subtle greyed-out border.
	UnselectedStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#45475A")).
			Padding(0, 1)

	// StatusBarStyle styles the bottom status bar.
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6E738D")).
			Padding(1, 0, 0, 1)

	// ErrorStyle styles error messages.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ED8796")).
			Bold(true)

	// SuccessStyle styles success messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A6DA95")).
			Bold(true)
)
