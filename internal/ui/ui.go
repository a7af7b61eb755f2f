// Package ui provides the terminal styling helpers used by the bizzy CLI.
//
// Output degrades to plain text when stdout is not a terminal or when the
// environment disables color (NO_COLOR, TERM=dumb).
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

var (
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

// enabled is detected once at startup. Tests flip it directly.
var enabled = detectStyling()

func detectStyling() bool {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return false
	}
	return termenv.EnvColorProfile() != termenv.Ascii
}

func render(style lipgloss.Style, s string) string {
	if !enabled {
		return s
	}
	return style.Render(s)
}

// RenderAccent styles s in the accent color (cyan).
func RenderAccent(s string) string {
	return render(accentStyle, s)
}

// RenderPass styles s as a success (green).
func RenderPass(s string) string {
	return render(passStyle, s)
}

// RenderWarn styles s as a warning (yellow).
func RenderWarn(s string) string {
	return render(warnStyle, s)
}

// RenderFail styles s as a failure (red).
func RenderFail(s string) string {
	return render(failStyle, s)
}

// RenderDim styles s faint, for secondary detail lines.
func RenderDim(s string) string {
	return render(dimStyle, s)
}
