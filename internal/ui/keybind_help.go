package ui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"
)

// renderLeaderHelp draws the hint bar shown while a leader sequence is
// pending: the prefix, then every key that may follow it in mode.
func renderLeaderHelp(l *Leader, mode AppMode) string {
	if l == nil || !l.Active() {
		return ""
	}
	bindings := l.hintBindings(mode)
	if len(bindings) == 0 {
		return ""
	}

	h := help.New()
	h.Styles.ShortKey = lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorHighlight)).
		Bold(true)
	h.Styles.ShortDesc = lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted))
	h.Styles.ShortSeparator = lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorAccent)).
		Padding(0, 1).
		MarginTop(1)
	prefix := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorMuted)).Render(l.Prefix())
	return box.Render(prefix + " " + h.ShortHelpView(bindings))
}
