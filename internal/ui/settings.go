package ui

import (
	"strings"

	"discordbridge/internal/config"
	"discordbridge/internal/ui/textutil"
)

// SettingsPage is a read-only view of the loaded configuration.
type SettingsPage struct {
	cfg *config.AppConfig
	err error
}

// NewSettingsPage shows cfg, or err when loading failed.
func NewSettingsPage(cfg *config.AppConfig, err error) *SettingsPage {
	return &SettingsPage{cfg: cfg, err: err}
}

// Render returns the page body clipped to width columns.
func (p *SettingsPage) Render(width int) string {
	var b strings.Builder
	b.WriteString(Styles.Section.Render("Configuration"))
	b.WriteString("\n")
	switch {
	case p.err != nil:
		for _, line := range strings.Split(p.err.Error(), "\n") {
			b.WriteString(Styles.Error.Render(textutil.Truncate(line, width)))
			b.WriteString("\n")
		}
	case p.cfg == nil:
		b.WriteString(Styles.Empty.Render("No configuration loaded"))
		b.WriteString("\n")
	default:
		if p.cfg.Source != "" {
			b.WriteString(Styles.Muted.Render(textutil.Truncate("from "+p.cfg.Source, width)))
			b.WriteString("\n")
		}
		out, err := p.cfg.YAML()
		if err != nil {
			b.WriteString(Styles.Error.Render(err.Error()))
			b.WriteString("\n")
			break
		}
		for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
			b.WriteString(textutil.Truncate(line, width))
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
