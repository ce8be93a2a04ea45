package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// DefaultOllamaBaseURL is where a local Ollama listens by default.
const DefaultOllamaBaseURL = "http://127.0.0.1:11434"

// OllamaProvider talks to an Ollama server. It prefers /api/generate and
// falls back to /api/chat when generate answers with an error status.
type OllamaProvider struct {
	model       string
	apiKey      string
	baseURL     string
	temperature float64
	client      *http.Client
	logger      *zap.Logger
}

var _ Provider = (*OllamaProvider)(nil)

// NewOllamaProvider creates a provider. An empty baseURL uses DefaultOllamaBaseURL.
func NewOllamaProvider(model, apiKey, baseURL string, client *http.Client, logger *zap.Logger) *OllamaProvider {
	if baseURL == "" {
		baseURL = DefaultOllamaBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OllamaProvider{
		model:       model,
		apiKey:      apiKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		temperature: 0.2,
		client:      client,
		logger:      logger,
	}
}

// Name implements Provider.
func (p *OllamaProvider) Name() string { return "ollama" }

type ollamaOptions struct {
	NumPredict int `json:"num_predict"`
}

type ollamaGenerateRequest struct {
	Model       string        `json:"model"`
	Prompt      string        `json:"prompt"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
	Options     ollamaOptions `json:"options"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
	Options     ollamaOptions `json:"options"`
}

// ollamaChatResponse covers both the native and the OpenAI-compatible shape.
type ollamaChatResponse struct {
	Message *chatMessage `json:"message"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
}

// Analyze implements Provider.
func (p *OllamaProvider) Analyze(ctx context.Context, transcript string, meta Metadata) (Analysis, error) {
	prompt := BuildPrompt(transcript, meta.Language(), true)

	message, err := p.generate(ctx, prompt)
	if err != nil {
		var statusErr *HTTPStatusError
		if !errors.As(err, &statusErr) {
			p.logger.Error("failed to reach ollama", zap.String("base_url", p.baseURL), zap.Error(err))
			return Analysis{}, err
		}
		p.logger.Info("ollama /api/generate failed; falling back to /api/chat", zap.Int("status", statusErr.StatusCode))
		message, err = p.chat(ctx, prompt)
		if err != nil {
			return Analysis{}, err
		}
	}

	a, parsed := ParseLenient(message)
	if !parsed {
		p.logger.Warn("failed to parse ollama response as JSON; using raw text as summary")
	}
	return a, nil
}

func (p *OllamaProvider) generate(ctx context.Context, prompt string) (string, error) {
	req := ollamaGenerateRequest{
		Model:       p.model,
		Prompt:      prompt,
		Temperature: p.temperature,
		Options:     ollamaOptions{NumPredict: 512},
	}
	var resp ollamaGenerateResponse
	if err := postJSON(ctx, p.client, p.baseURL+"/api/generate", bearer(p.apiKey), req, &resp); err != nil {
		return "", err
	}
	if resp.Response == "" {
		return "", errors.New("ollama generate response did not include response text")
	}
	return resp.Response, nil
}

func (p *OllamaProvider) chat(ctx context.Context, prompt string) (string, error) {
	req := ollamaChatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You produce structured summaries from Discord transcripts"},
			{Role: "user", Content: prompt},
		},
		Temperature: p.temperature,
		Options:     ollamaOptions{NumPredict: 512},
	}
	var resp ollamaChatResponse
	if err := postJSON(ctx, p.client, p.baseURL+"/api/chat", bearer(p.apiKey), req, &resp); err != nil {
		return "", err
	}
	var content string
	if resp.Message != nil {
		content = resp.Message.Content
	}
	if content == "" && len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}
	if content == "" {
		return "", errors.New("ollama chat response did not include message content")
	}
	return content, nil
}
