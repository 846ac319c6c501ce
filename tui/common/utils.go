package common

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// TruncateLines wraps text to width and keeps at most n lines, appending
// an ellipsis when something was cut.
func TruncateLines(text string, width, n int) string {
	if width < 12 {
		width = 12
	}
	if n < 1 {
		n = 1
	}
	wrapped := lipgloss.NewStyle().Width(width).Render(text)
	lines := strings.Split(wrapped, "\n")
	if len(lines) <= n {
		return wrapped
	}
	return strings.Join(lines[:n], "\n") + "..."
}

// FitLine cuts a single, possibly styled, line to width cells.
func FitLine(s string, width int) string {
	if width <= 0 || ansi.StringWidth(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, "…")
}

// HumanBytes formats a byte count as B, KiB or MiB.
func HumanBytes(n int) string {
	switch {
	case n < 1<<10:
		return fmt.Sprintf("%d B", n)
	case n < 1<<20:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	}
}
