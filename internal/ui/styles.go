package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme colors used throughout the UI
const (
	ColorAccent    = "86"  // Cyan/green - for titles, brand
	ColorHighlight = "205" // Magenta - for the selected nav entry, borders
	ColorDanger    = "196" // Red - for errors
	ColorMuted     = "241" // Gray - for captions, hints
	ColorText      = "252" // Light gray - for normal text
	ColorDim       = "243" // Darker gray - for separators
	ColorSuccess   = "78"  // Green - for successful runs
)

const (
	sidebarWidth = 22
	cardWidth    = 28
)

// Styles contains shared style definitions used across the shell and its pages.
var Styles = struct {
	Brand       lipgloss.Style // Sidebar brand line
	Sidebar     lipgloss.Style // Sidebar column with right border
	NavEntry    lipgloss.Style // Unselected navigation entry
	NavSelected lipgloss.Style // The one selected navigation entry
	Footer      lipgloss.Style // Version footer
	Title       lipgloss.Style // Page heading
	Subtitle    lipgloss.Style // Text under the heading
	Card        lipgloss.Style // Metric card box
	CardLabel   lipgloss.Style
	CardValue   lipgloss.Style
	CardCaption lipgloss.Style
	Muted       lipgloss.Style
	Hint        lipgloss.Style
	Error       lipgloss.Style
	Success     lipgloss.Style
	Section     lipgloss.Style // Sub-headings within a page
	Empty       lipgloss.Style // Empty state text (muted, italic)
}{
	Brand: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorAccent)),
	Sidebar: lipgloss.NewStyle().
		Width(sidebarWidth).
		Padding(1, 1).
		Border(lipgloss.NormalBorder(), false, true, false, false).
		BorderForeground(lipgloss.Color(ColorDim)),
	NavEntry: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted)),
	NavSelected: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorHighlight)).
		Bold(true),
	Footer: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted)),
	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorAccent)),
	Subtitle: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted)),
	Card: lipgloss.NewStyle().
		Width(cardWidth).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorHighlight)).
		Padding(0, 1).
		MarginRight(1),
	CardLabel: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorText)),
	CardValue: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorAccent)),
	CardCaption: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted)),
	Muted: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted)),
	Hint: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted)),
	Error: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorDanger)),
	Success: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorSuccess)),
	Section: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorHighlight)),
	Empty: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted)).
		Italic(true),
}
