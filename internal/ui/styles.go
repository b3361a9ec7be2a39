// Package ui renders plans, run reports and the access summary for the terminal.
package ui

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Theme colors (Catppuccin Mocha inspired).
var (
	ColorPrimary   = lipgloss.AdaptiveColor{Light: "#1e66f5", Dark: "#89b4fa"} // Blue
	ColorSecondary = lipgloss.AdaptiveColor{Light: "#7c3aed", Dark: "#cba6f7"} // Mauve
	ColorSuccess   = lipgloss.AdaptiveColor{Light: "#40a02b", Dark: "#a6e3a1"} // Green
	ColorWarning   = lipgloss.AdaptiveColor{Light: "#df8e1d", Dark: "#f9e2af"} // Yellow
	ColorError     = lipgloss.AdaptiveColor{Light: "#d20f39", Dark: "#f38ba8"} // Red
	ColorMuted     = lipgloss.AdaptiveColor{Light: "#6c6f85", Dark: "#6c7086"} // Overlay0
)

// Styles contains the lipgloss styles used by the Printer.
type Styles struct {
	Title   lipgloss.Style
	Heading lipgloss.Style
	Muted   lipgloss.Style

	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style

	Panel      lipgloss.Style
	ErrorPanel lipgloss.Style
	Label      lipgloss.Style
}

// NewStyles returns styles bound to a renderer for w, so color support is
// detected for the writer the output goes to.
func NewStyles(w io.Writer) Styles {
	r := lipgloss.NewRenderer(w)
	return Styles{
		Title: r.NewStyle().
			Bold(true).
			Foreground(ColorPrimary),

		Heading: r.NewStyle().
			Bold(true).
			Foreground(ColorSecondary),

		Muted: r.NewStyle().
			Foreground(ColorMuted),

		Success: r.NewStyle().
			Foreground(ColorSuccess),

		Warning: r.NewStyle().
			Foreground(ColorWarning),

		Error: r.NewStyle().
			Foreground(ColorError),

		Info: r.NewStyle().
			Foreground(ColorPrimary),

		Panel: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorSuccess).
			Padding(0, 1),

		ErrorPanel: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorError).
			Padding(0, 1),

		Label: r.NewStyle().
			Bold(true).
			Width(12),
	}
}
