package main

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	primaryColor = lipgloss.Color("#7D56F4")
	successColor = lipgloss.Color("#04B575")
	warningColor = lipgloss.Color("#FFA500")
	mutedColor   = lipgloss.Color("#666666")
)

// styles renders command output for one writer. Non-terminal writers and
// --no-color get plain text.
type styles struct {
	heading lipgloss.Style
	label   lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	if noColor {
		r.SetColorProfile(termenv.Ascii)
	}
	return styles{
		heading: r.NewStyle().Bold(true).Foreground(primaryColor),
		label:   r.NewStyle().Foreground(mutedColor),
		success: r.NewStyle().Foreground(successColor),
		warning: r.NewStyle().Foreground(warningColor),
	}
}

// flag renders v as success when ok and as a warning otherwise.
func (s styles) flag(v string, ok bool) string {
	if ok {
		return s.success.Render(v)
	}
	return s.warning.Render(v)
}
