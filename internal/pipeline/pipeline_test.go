package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"discordbridge/internal/chat"
	"discordbridge/internal/llm"
)

type fakeProvider struct {
	transcript string
	meta       llm.Metadata
	err        error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Analyze(ctx context.Context, transcript string, meta llm.Metadata) (llm.Analysis, error) {
	f.transcript = transcript
	f.meta = meta
	if f.err != nil {
		return llm.Analysis{}, f.err
	}
	return llm.Analysis{
		Summary:          "Summary text",
		FAQ:              []llm.Question{{Question: "Q1?", Asker: "Alice"}},
		HelpInteractions: []llm.Help{{Helper: "Bob", Recipient: "Charlie", Task: "Setup", Assistance: "Shared steps"}},
		ActionItems:      []llm.ActionItem{{Description: "Do thing", MentionedBy: "Dana", Type: "Technical Tasks"}},
	}, nil
}

func sampleExport() *chat.Export {
	return &chat.Export{
		Channel: &chat.Channel{Name: "general"},
		Date:    "2024-11-13",
		Users: map[string]chat.User{
			"u1": {Name: "Alice"},
			"u2": {Name: "Bob"},
		},
		Messages: []chat.Message{
			{UID: "u1", TS: "2024-11-13T00:00:00Z", Content: "Hello"},
			{UID: "u2", TS: "2024-11-13T00:05:00Z", Content: "Reply"},
		},
	}
}

func TestRun_FormatsAndWrites(t *testing.T) {
	provider := &fakeProvider{}
	out := filepath.Join(t.TempDir(), "nested", "out.md")

	markdown, err := Run(context.Background(), sampleExport(), provider, out, llm.Metadata{})
	require.NoError(t, err)

	assert.Contains(t, markdown, "Summary text")
	assert.Contains(t, markdown, "- Q1? (asked by Alice)")
	assert.Contains(t, markdown, "- Bob helped Charlie with Setup by providing Shared steps")
	assert.Contains(t, markdown, "- [Technical Tasks] Do thing (by Dana)")

	saved, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, markdown, string(saved))
	assert.Contains(t, string(saved), "general 2024-11-13")

	assert.Equal(t, "general", provider.meta.Channel)
	assert.Equal(t, "2024-11-13", provider.meta.Date)
	assert.Equal(t, "Alice (00:00): Hello\nBob (00:05): Reply", provider.transcript)
}

func TestRun_ForwardsLang(t *testing.T) {
	provider := &fakeProvider{}
	_, err := Run(context.Background(), sampleExport(), provider, "", llm.Metadata{Lang: "ko"})
	require.NoError(t, err)
	assert.Equal(t, "ko", provider.meta.Lang)
}

func TestRun_NoOutputPathWritesNothing(t *testing.T) {
	dir := t.TempDir()
	_, err := Run(context.Background(), sampleExport(), &fakeProvider{}, "", llm.Metadata{})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_ProviderErrorIsWrappedAndTraced(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	export := sampleExport()
	export.Channel = nil
	_, err := Run(context.Background(), export, &fakeProvider{err: assert.AnError}, "", llm.Metadata{})
	require.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "analyze Unknown 2024-11-13")

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "pipeline.run", spans[0].Name())
	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "Unknown", attrs["discordbridge.channel"])
	assert.Equal(t, "fake", attrs["discordbridge.provider"])
	assert.Equal(t, "error", attrs["discordbridge.outcome"])
}

func TestAnalysisToMarkdown_Empty(t *testing.T) {
	got := AnalysisToMarkdown(llm.Analysis{Summary: "Quiet day"}, "general", "2024-11-13")
	want := "# general 2024-11-13\n" +
		"## Summary\n" +
		"Quiet day\n" +
		"## FAQ\n" +
		"- None\n" +
		"## Who Helped Who\n" +
		"- None\n" +
		"## Action Items\n" +
		"- None\n"
	assert.Equal(t, want, got)
}

func TestAnalysisToMarkdown_MultipleItems(t *testing.T) {
	a := llm.Analysis{
		Summary: "s",
		FAQ: []llm.Question{
			{Question: "a?", Asker: "x"},
			{Question: "b?", Asker: "y"},
		},
		ActionItems: []llm.ActionItem{
			{Description: "d1", MentionedBy: "m1", Type: "Feature Requests"},
			{Description: "d2", MentionedBy: "m2", Type: "Documentation Needs"},
		},
	}
	got := AnalysisToMarkdown(a, "dev", "2024-01-02")
	assert.Contains(t, got, "## FAQ\n- a? (asked by x)\n- b? (asked by y)\n## Who Helped Who\n- None\n")
	assert.Contains(t, got, "## Action Items\n- [Feature Requests] d1 (by m1)\n- [Documentation Needs] d2 (by m2)\n")
}
