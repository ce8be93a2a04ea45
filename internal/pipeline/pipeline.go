// Package pipeline runs one chat export through a provider and renders the result as Markdown.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"discordbridge/internal/chat"
	"discordbridge/internal/llm"
	"discordbridge/internal/trace"
)

// UnknownChannel is used in the heading when the export has no channel name.
const UnknownChannel = "Unknown"

// Run formats the export, asks provider for an analysis and renders Markdown.
// When outputPath is non-empty the Markdown is also written there, creating
// parent directories as needed. extra overrides metadata taken from the export.
func Run(ctx context.Context, export *chat.Export, provider llm.Provider, outputPath string, extra llm.Metadata) (string, error) {
	channel := export.ChannelName(UnknownChannel)

	ctx, span := trace.Tracer().Start(ctx, "pipeline.run", oteltrace.WithAttributes(
		trace.ChannelKey.String(channel),
		trace.DateKey.String(export.Date),
		trace.ProviderKey.String(provider.Name()),
	))
	defer span.End()

	meta := llm.Metadata{Channel: channel, Date: export.Date, Lang: extra.Lang}
	if extra.Channel != "" {
		meta.Channel = extra.Channel
	}
	if extra.Date != "" {
		meta.Date = extra.Date
	}

	transcript := chat.FormatTranscript(export.Messages, export.Users)
	analysis, err := provider.Analyze(ctx, transcript, meta)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "analyze failed")
		span.SetAttributes(trace.OutcomeKey.String("error"))
		return "", fmt.Errorf("analyze %s %s: %w", channel, export.Date, err)
	}

	markdown := AnalysisToMarkdown(analysis, channel, export.Date)

	if outputPath != "" {
		if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
			span.RecordError(err)
			return "", fmt.Errorf("create output dir: %w", err)
		}
		if err := os.WriteFile(outputPath, []byte(markdown), 0o644); err != nil {
			span.RecordError(err)
			return "", fmt.Errorf("write %s: %w", outputPath, err)
		}
	}
	span.SetAttributes(trace.OutcomeKey.String("ok"))
	return markdown, nil
}

// AnalysisToMarkdown renders an analysis as a report. Empty sections read "- None".
func AnalysisToMarkdown(a llm.Analysis, channel, date string) string {
	parts := []string{
		fmt.Sprintf("# %s %s", channel, date),
		"## Summary",
		a.Summary,
		"## FAQ",
	}

	if len(a.FAQ) == 0 {
		parts = append(parts, "- None")
	}
	for _, q := range a.FAQ {
		parts = append(parts, fmt.Sprintf("- %s (asked by %s)", q.Question, q.Asker))
	}

	parts = append(parts, "## Who Helped Who")
	if len(a.HelpInteractions) == 0 {
		parts = append(parts, "- None")
	}
	for _, h := range a.HelpInteractions {
		parts = append(parts, fmt.Sprintf("- %s helped %s with %s by providing %s", h.Helper, h.Recipient, h.Task, h.Assistance))
	}

	parts = append(parts, "## Action Items")
	if len(a.ActionItems) == 0 {
		parts = append(parts, "- None")
	}
	for _, ai := range a.ActionItems {
		parts = append(parts, fmt.Sprintf("- [%s] %s (by %s)", ai.Type, ai.Description, ai.MentionedBy))
	}

	return strings.Join(parts, "\n") + "\n"
}
