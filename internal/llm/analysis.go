// Package llm turns chat transcripts into structured analyses using a language model.
package llm

import "context"

// DefaultActionType is used when the model omits an action item's type.
const DefaultActionType = "Technical Tasks"

// Question is a question raised in the channel.
type Question struct {
	Question string `json:"question"`
	Asker    string `json:"asker"`
}

// Help records one participant helping another.
type Help struct {
	Helper     string `json:"helper"`
	Recipient  string `json:"recipient"`
	Task       string `json:"task"`
	Assistance string `json:"assistance"`
}

// ActionItem is a follow-up mentioned in the conversation.
// Type is one of Technical Tasks, Documentation Needs or Feature Requests.
type ActionItem struct {
	Description string `json:"description"`
	MentionedBy string `json:"mentioned_by"`
	Type        string `json:"type"`
}

// Analysis is the structured result of summarizing one transcript.
type Analysis struct {
	Summary          string       `json:"summary"`
	FAQ              []Question   `json:"faq"`
	HelpInteractions []Help       `json:"help_interactions"`
	ActionItems      []ActionItem `json:"action_items"`
}

// Metadata travels with a transcript to the provider.
type Metadata struct {
	Channel string
	Date    string
	Lang    string
}

// Language returns the requested summary language, defaulting to English.
func (m Metadata) Language() string {
	if m.Lang == "" {
		return "en"
	}
	return m.Lang
}

// Provider analyzes a transcript.
type Provider interface {
	Analyze(ctx context.Context, transcript string, meta Metadata) (Analysis, error)
	Name() string
}
