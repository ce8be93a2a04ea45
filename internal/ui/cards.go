package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"discordbridge/internal/runlog"
	"discordbridge/internal/ui/textutil"
)

// MetricCard is a display-only label, value and caption.
type MetricCard struct {
	Label   string
	Value   string
	Caption string
}

// DefaultCards are the headline figures shown on every section.
func DefaultCards() []MetricCard {
	return []MetricCard{
		{Label: "Total Summaries", Value: "1,234", Caption: "+20.1% from last month"},
		{Label: "Active Channels", Value: "12", Caption: "Updates every hour"},
	}
}

// CardsFromStats appends run log figures to the default cards; now anchors
// relative times.
func CardsFromStats(st runlog.Stats, now time.Time) []MetricCard {
	cards := append(DefaultCards(), MetricCard{
		Label:   "Recorded Summaries",
		Value:   humanize.Comma(int64(st.TotalSummaries)),
		Caption: fmt.Sprintf("across %d %s", st.ActiveChannels, pluralize(st.ActiveChannels, "channel", "channels")),
	})
	if st.LastRun != nil {
		cards = append(cards, MetricCard{
			Label:   "Last Run",
			Value:   string(st.LastRun.Status),
			Caption: humanize.RelTime(runTime(*st.LastRun), now, "ago", "from now"),
		})
	}
	return cards
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// runTime is when a run finished, or when it started if still running.
func runTime(r runlog.Run) time.Time {
	if r.Finished.IsZero() {
		return r.Started
	}
	return r.Finished
}

// renderCards lays the cards out in rows no wider than width.
func renderCards(cards []MetricCard, width int) string {
	inner := cardWidth - 2
	perRow := width / (cardWidth + 3)
	if perRow < 1 {
		perRow = 1
	}
	var rows []string
	var boxes []string
	for i, c := range cards {
		body := strings.Join([]string{
			Styles.CardLabel.Render(textutil.Truncate(c.Label, inner)),
			"",
			Styles.CardValue.Render(textutil.Truncate(c.Value, inner)),
			Styles.CardCaption.Render(textutil.Truncate(c.Caption, inner)),
		}, "\n")
		boxes = append(boxes, Styles.Card.Render(body))
		if len(boxes) == perRow || i == len(cards)-1 {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
			boxes = nil
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
