package llm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// contentGenerator is the slice of *genai.Models the provider uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiProvider calls Google's Gemini API through the genai SDK.
type GeminiProvider struct {
	model  string
	models contentGenerator
}

var _ Provider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a provider backed by the Gemini API.
// An empty apiKey lets the SDK read GOOGLE_API_KEY / GEMINI_API_KEY.
func NewGeminiProvider(ctx context.Context, model, apiKey string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiProvider{model: model, models: client.Models}, nil
}

// Name implements Provider.
func (p *GeminiProvider) Name() string { return "gemini" }

// Analyze implements Provider.
func (p *GeminiProvider) Analyze(ctx context.Context, transcript string, meta Metadata) (Analysis, error) {
	prompt := BuildPrompt(transcript, meta.Language(), false)
	resp, err := p.models.GenerateContent(ctx, p.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.2),
	})
	if err != nil {
		return Analysis{}, fmt.Errorf("gemini generate: %w", err)
	}
	if resp == nil {
		return Analysis{}, errors.New("gemini returned no response")
	}
	return ParseStrict(resp.Text())
}
