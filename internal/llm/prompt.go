package llm

import (
	"fmt"
	"strings"
)

const systemPrompt = "You turn Discord transcripts into structured summaries."

// BuildPrompt asks the model for the JSON shape ParseStrict understands.
// jsonOnly adds an instruction for models that like to wrap answers in prose.
func BuildPrompt(transcript, lang string, jsonOnly bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are Discord Bridge, a focused assistant that synthesizes Discord chat transcripts into concise Markdown analyses in %s.\n", languageName(lang))
	b.WriteString("Produce JSON with keys: summary (string), faq (array of {question, asker}), ")
	b.WriteString("help_interactions (array of {helper, recipient, task, assistance}), ")
	b.WriteString("action_items (array of {description, mentioned_by, type}).\n")
	b.WriteString("Action item type is one of Technical Tasks, Documentation Needs, Feature Requests.\n")
	b.WriteString("Prioritize technical discussions, highlight decisions, and skip fluff.\n")
	if jsonOnly {
		b.WriteString("Respond with JSON only (no code fences or extra commentary).\n")
	}
	b.WriteString("\nTranscript:\n")
	b.WriteString(transcript)
	b.WriteString("\n")
	return b.String()
}

func languageName(lang string) string {
	switch strings.ToLower(lang) {
	case "ko":
		return "Korean"
	case "", "en":
		return "English"
	}
	return strings.ToUpper(lang[:1]) + lang[1:]
}
