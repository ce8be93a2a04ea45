package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"discordbridge/internal/hostcmd"
	"discordbridge/internal/progress"
	"discordbridge/internal/runlog"
	"discordbridge/internal/ui/textutil"
)

// maxLogLines bounds the scrollback kept in memory.
const maxLogLines = 1000

const (
	defaultLogsWidth  = 70
	defaultLogsHeight = 12
)

// LogsPage shows bridge output with scrollback and the most recent runs.
type LogsPage struct {
	lines    []string
	runs     []string
	running  bool
	width    int
	height   int
	viewport viewport.Model
	spinner  spinner.Model
}

// NewLogsPage creates an empty logs page.
func NewLogsPage() *LogsPage {
	vp := viewport.New(defaultLogsWidth, defaultLogsHeight)
	vp.Style = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorHighlight)).
		Padding(0, 1)
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccent))
	p := &LogsPage{viewport: vp, spinner: sp}
	p.refreshContent()
	return p
}

// AppendLine adds one output line and scrolls to the bottom.
func (p *LogsPage) AppendLine(line string) {
	p.lines = append(p.lines, line)
	if over := len(p.lines) - maxLogLines; over > 0 {
		p.lines = p.lines[over:]
	}
	p.refreshContent()
}

// AppendEvent adds a progress event as a timestamped line with its metadata.
func (p *LogsPage) AppendEvent(ev progress.Event) {
	p.AppendLine(fmt.Sprintf("[%s] %s %s", ev.Timestamp.Format("15:04:05"), statusIcon(ev.Status), ev.Message))
	keys := make([]string, 0, len(ev.Metadata))
	for k := range ev.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		p.AppendLine(fmt.Sprintf("      %s: %s", k, ev.Metadata[k]))
	}
}

// SetRuns replaces the recent-runs list; now anchors relative times.
func (p *LogsPage) SetRuns(runs []runlog.Run, now time.Time) {
	p.runs = p.runs[:0]
	for _, r := range runs {
		line := fmt.Sprintf("%s %s %s  %s", runIcon(r.Status), textutil.PadRightVisual(string(r.Status), 7), r.Input, humanize.RelTime(runTime(r), now, "ago", "from now"))
		if r.DryRun {
			line += "  (dry run)"
		}
		if r.Error != "" {
			line += "  " + r.Error
		}
		p.runs = append(p.runs, line)
	}
	p.fit()
}

// SetRunning toggles the spinner. The returned command drives the animation.
func (p *LogsPage) SetRunning(running bool) tea.Cmd {
	p.running = running
	if running {
		return p.spinner.Tick
	}
	return nil
}

// SetSize fits the page into width columns and height rows.
func (p *LogsPage) SetSize(width, height int) {
	p.width, p.height = width, height
	p.fit()
}

// fit sizes the viewport to the last known area, leaving room for the
// recent-runs list. It is a no-op until SetSize has been called.
func (p *LogsPage) fit() {
	if p.width == 0 {
		return
	}
	runRows := len(p.runs)
	if runRows == 0 {
		runRows = 1
	}
	// Output header, viewport border and the recent-runs header.
	w := p.width - 4
	h := p.height - 4 - runRows
	if w < 30 {
		w = 30
	}
	if h < 5 {
		h = 5
	}
	p.viewport.Width = w
	p.viewport.Height = h
	p.refreshContent()
}

// TerminalSize is the text area inside the viewport frame.
func (p *LogsPage) TerminalSize() hostcmd.Size {
	cols := p.viewport.Width - p.viewport.Style.GetHorizontalFrameSize()
	rows := p.viewport.Height - p.viewport.Style.GetVerticalFrameSize()
	return hostcmd.Size{Rows: uint16(max(rows, 1)), Cols: uint16(max(cols, 1))}
}

// Update forwards spinner ticks and scroll keys.
func (p *LogsPage) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !p.running {
			return nil
		}
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(msg)
		return cmd
	case tea.KeyMsg, tea.MouseMsg:
		var cmd tea.Cmd
		p.viewport, cmd = p.viewport.Update(msg)
		return cmd
	}
	return nil
}

// Render returns the page body.
func (p *LogsPage) Render(width int) string {
	var b strings.Builder
	header := Styles.Section.Render("Output")
	if p.running {
		header += " " + p.spinner.View() + Styles.Muted.Render(" running")
	}
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(p.viewport.View())
	b.WriteString("\n")
	b.WriteString(Styles.Section.Render("Recent runs"))
	b.WriteString("\n")
	if len(p.runs) == 0 {
		b.WriteString(Styles.Empty.Render("No runs recorded"))
	} else {
		for i, r := range p.runs {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(textutil.Truncate(r, width))
		}
	}
	return b.String()
}

func (p *LogsPage) refreshContent() {
	content := strings.Join(p.lines, "\n")
	if content == "" {
		content = Styles.Empty.Render("Waiting for bridge output... (SPC r r for a dry run)")
	}
	p.viewport.SetContent(content)
	p.viewport.GotoBottom()
}

func statusIcon(s progress.Status) string {
	switch s {
	case progress.StatusRunning:
		return "●"
	case progress.StatusDone:
		return "✓"
	case progress.StatusError:
		return "✗"
	case progress.StatusSkipped:
		return "-"
	default:
		return "•"
	}
}

func runIcon(s runlog.Status) string {
	switch s {
	case runlog.StatusRunning:
		return "●"
	case runlog.StatusOK:
		return "✓"
	case runlog.StatusFailed:
		return "✗"
	default:
		return "•"
	}
}
