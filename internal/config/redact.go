package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

const mask = "********"

// Redacted returns a copy safe for display, with credentials masked.
func (c AppConfig) Redacted() AppConfig {
	out := c
	out.Discord.ClientSecret = maskValue(c.Discord.ClientSecret)
	out.Discord.BotToken = maskValue(c.Discord.BotToken)
	out.SMTP.Password = maskValue(c.SMTP.Password)
	out.LLM.APIKey = maskValue(c.LLM.APIKey)
	out.Discord.Servers = append([]DiscordServer(nil), c.Discord.Servers...)
	out.SMTP.ToEmails = append([]string(nil), c.SMTP.ToEmails...)
	return out
}

// YAML renders the redacted configuration.
func (c AppConfig) YAML() (string, error) {
	b, err := yaml.Marshal(c.Redacted())
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return string(b), nil
}

func maskValue(s string) string {
	if s == "" {
		return ""
	}
	return mask
}
