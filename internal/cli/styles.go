package cli

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// styles holds the Lip Gloss styles for one output stream. Colors are hex
// codes and degrade to plain text when the stream is not a terminal.
type styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		Title: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff5fd2")),

		Subtitle: r.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			MarginBottom(1),

		Error: r.NewStyle().
			Foreground(lipgloss.Color("#ff005f")).
			Bold(true),

		Success: r.NewStyle().
			Foreground(lipgloss.Color("#00ff5f")).
			Bold(true),

		Warning: r.NewStyle().
			Foreground(lipgloss.Color("#ffaf00")),
	}
}
