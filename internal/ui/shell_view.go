package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	// Brand is shown at the top of the sidebar.
	Brand = "Discord Bridge"
	// Version is shown in the sidebar footer.
	Version = "v0.1.0"
	// Subtitle is shown under every page title.
	Subtitle = "Welcome to your Discord Summarizer control center."

	navMarker = "▸"

	defaultShellWidth  = 100
	defaultShellHeight = 30
)

// ShellView is the navigation shell: a sidebar with one entry per Section
// and a main area with the page title, metric cards and the active page.
type ShellView struct {
	active   Section
	cards    []MetricCard
	Settings *SettingsPage
	Logs     *LogsPage
	width    int
	height   int
}

// Ensure ShellView implements View.
var _ View = (*ShellView)(nil)

// NewShellView creates a shell on the Dashboard section with the default cards.
func NewShellView() *ShellView {
	s := &ShellView{
		active:   SectionDashboard,
		cards:    DefaultCards(),
		Settings: NewSettingsPage(nil, nil),
		Logs:     NewLogsPage(),
		width:    defaultShellWidth,
		height:   defaultShellHeight,
	}
	s.Logs.SetSize(s.mainWidth(), s.pageHeight())
	return s
}

// Active returns the active section.
func (s *ShellView) Active() Section { return s.active }

// SelectSection makes sec active. Values outside Sections are ignored.
func (s *ShellView) SelectSection(sec Section) {
	if !sec.Valid() {
		return
	}
	s.active = sec
}

// Title is the heading of the main area.
func (s *ShellView) Title() string { return s.active.Title() }

// Cards returns the metric cards currently displayed.
func (s *ShellView) Cards() []MetricCard { return s.cards }

// SetCards replaces the metric cards. An empty slice restores the defaults.
func (s *ShellView) SetCards(cards []MetricCard) {
	if len(cards) == 0 {
		cards = DefaultCards()
	}
	s.cards = cards
	s.Logs.SetSize(s.mainWidth(), s.pageHeight())
}

// Init implements View.
func (s *ShellView) Init() tea.Cmd {
	return nil
}

// Update implements View.
func (s *ShellView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case SelectSectionMsg:
		s.SelectSection(msg.Section)
		return s, nil
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
		s.Logs.SetSize(s.mainWidth(), s.pageHeight())
		return s, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "tab":
			s.SelectSection(s.active.Next())
			return s, nil
		case "shift+tab":
			s.SelectSection(s.active.Prev())
			return s, nil
		case "1", "2", "3":
			s.SelectSection(Sections[msg.String()[0]-'1'])
			return s, nil
		}
		// The Logs viewport owns the movement keys while it is shown.
		if s.active == SectionLogs {
			return s, s.Logs.Update(msg)
		}
		switch msg.String() {
		case "j", "down":
			s.SelectSection(s.active.Next())
		case "k", "up":
			s.SelectSection(s.active.Prev())
		}
		return s, nil
	case tea.MouseMsg:
		if s.active == SectionLogs {
			return s, s.Logs.Update(msg)
		}
		return s, nil
	}
	return s, s.Logs.Update(msg)
}

// View implements View.
func (s *ShellView) View() string {
	sidebar := Styles.Sidebar.Height(s.height - 2).Render(s.renderSidebar())
	return lipgloss.JoinHorizontal(lipgloss.Top, sidebar, s.renderMain())
}

func (s *ShellView) renderSidebar() string {
	var b strings.Builder
	b.WriteString(Styles.Brand.Render(Brand))
	b.WriteString("\n\n")
	for _, sec := range Sections {
		if sec == s.active {
			b.WriteString(Styles.NavSelected.Render(navMarker + " " + sec.Title()))
		} else {
			b.WriteString(Styles.NavEntry.Render("  " + sec.Title()))
		}
		b.WriteString("\n")
	}
	// Push the footer to the bottom of the column.
	used := 2 + len(Sections) + 1
	for i := used; i < s.height-4; i++ {
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(Styles.Footer.Render(Version))
	return b.String()
}

func (s *ShellView) renderMain() string {
	w := s.mainWidth()
	parts := []string{
		Styles.Title.Render(s.Title()),
		Styles.Subtitle.Render(Subtitle),
		"",
		renderCards(s.cards, w),
		"",
	}
	switch s.active {
	case SectionSettings:
		parts = append(parts, s.Settings.Render(w))
	case SectionLogs:
		parts = append(parts, s.Logs.Render(w))
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(strings.Join(parts, "\n"))
}

// pageHeight is the room left under the title, subtitle and cards.
func (s *ShellView) pageHeight() int {
	h := s.height - 2 - 4 - lipgloss.Height(renderCards(s.cards, s.mainWidth()))
	if h < 0 {
		return 0
	}
	return h
}

func (s *ShellView) mainWidth() int {
	w := s.width - sidebarWidth - 6
	if w < 20 {
		w = 20
	}
	return w
}
