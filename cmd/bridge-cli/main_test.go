package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"discordbridge/internal/bridge"
	"discordbridge/internal/progress"
)

func TestConfigName(t *testing.T) {
	assert.Equal(t, "", configName(".env"))
	assert.Equal(t, "", configName("/etc/bridge/.env"))
	assert.Equal(t, "prod", configName("configs/prod.env"))
	assert.Equal(t, "settings", configName("settings"))
}

func TestRenderPreview(t *testing.T) {
	var buf bytes.Buffer
	err := renderPreview(&buf, []bridge.FileResult{
		{Input: "general.json", Markdown: "# general 2025-03-01\n\n## Summary\n\nRelease planning.\n"},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Release planning.")

	assert.Error(t, renderPreview(&buf, nil))
}

func TestShowConfig_RedactsSecrets(t *testing.T) {
	for _, k := range []string{
		"DISCORD_CLIENT_ID", "DISCORD_CLIENT_SECRET", "DISCORD_PUBLIC_KEY", "DISCORD_BOT_TOKEN",
		"LLM_PROVIDER", "LLM_MODEL", "LLM_API_KEY",
		"SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME", "SMTP_PASSWORD", "FROM_EMAIL", "TO_EMAILS",
		"INPUT_DIR", "OUTPUT_DIR", "SCHEDULE_CRON", "LANG", "TIMEZONE",
	} {
		t.Setenv(k, "")
	}
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "in"), 0o755))
	env := filepath.Join(root, ".env")
	body := strings.Join([]string{
		"DISCORD_CLIENT_ID=123",
		"DISCORD_CLIENT_SECRET=client-secret-value",
		"DISCORD_PUBLIC_KEY=pub",
		"DISCORD_BOT_TOKEN=bot-token-value",
		"INPUT_DIR=" + filepath.Join(root, "in"),
		"OUTPUT_DIR=" + filepath.Join(root, "out"),
		"LLM_PROVIDER=ollama",
		"LLM_MODEL=llama3",
		"SMTP_HOST=smtp.example.com",
		"SMTP_PORT=587",
		"SMTP_USERNAME=user@example.com",
		"SMTP_PASSWORD=smtp-password-value",
		"FROM_EMAIL=user@example.com",
		"TO_EMAILS=a@example.com",
		"SCHEDULE_CRON=0 9 * * *",
		"LANG=en",
		"TIMEZONE=UTC",
	}, "\n") + "\n"
	require.NoError(t, os.WriteFile(env, []byte(body), 0o644))

	var buf bytes.Buffer
	require.NoError(t, showConfig(&buf, env))
	out := buf.String()
	assert.Contains(t, out, "model: llama3")
	for _, secret := range []string{"client-secret-value", "bot-token-value", "smtp-password-value"} {
		assert.NotContains(t, out, secret)
	}

	require.Error(t, showConfig(&buf, filepath.Join(root, "missing.env")))
}

func TestProgressEmitter(t *testing.T) {
	logger = zap.NewNop()
	t.Cleanup(func() { verbose = false })

	e, err := progressEmitter("log", io.Discard)
	require.NoError(t, err)
	assert.IsType(t, progress.LogEmitter{}, e)

	var buf bytes.Buffer
	e, err = progressEmitter("json", &buf)
	require.NoError(t, err)
	e.Emit(progress.Event{Message: "Processed general.json", Status: progress.StatusDone})
	ev, ok := progress.ParseLine(strings.TrimSpace(buf.String()))
	require.True(t, ok, "stdout = %q", buf.String())
	assert.Equal(t, "Processed general.json", ev.Message)

	verbose = true
	e, err = progressEmitter("json", &buf)
	require.NoError(t, err)
	assert.IsType(t, progress.Multi{}, e)

	_, err = progressEmitter("xml", &buf)
	assert.ErrorContains(t, err, "unknown --progress format")
}
