package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultOpenAIBaseURL is the public API root; LLM_BASE_URL overrides it
// for compatible gateways.
const DefaultOpenAIBaseURL = "https://api.openai.com/v1/"

// openAIMaxRetries applies to 408, 409, 429 and 5xx answers.
const openAIMaxRetries = 2

// OpenAIProvider calls chat completions through openai-go.
type OpenAIProvider struct {
	model  string
	client openai.Client
}

var _ Provider = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates a provider. An empty baseURL uses
// DefaultOpenAIBaseURL; a nil client uses http.DefaultClient.
func NewOpenAIProvider(model, apiKey, baseURL string, client *http.Client) *OpenAIProvider {
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	opts := []option.RequestOption{
		option.WithBaseURL(strings.TrimRight(baseURL, "/") + "/"),
		option.WithHTTPClient(client),
		option.WithMaxRetries(openAIMaxRetries),
		option.WithRequestTimeout(requestTimeout),
	}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	return &OpenAIProvider{model: model, client: openai.NewClient(opts...)}
}

// Name implements Provider.
func (p *OpenAIProvider) Name() string { return "openai" }

// Analyze implements Provider.
func (p *OpenAIProvider) Analyze(ctx context.Context, transcript string, meta Metadata) (Analysis, error) {
	completion, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(BuildPrompt(transcript, meta.Language(), false)),
		},
		Temperature: openai.Float(0.2),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return Analysis{}, &HTTPStatusError{URL: "chat/completions", StatusCode: apiErr.StatusCode, Body: apiErr.Message}
		}
		return Analysis{}, err
	}
	if len(completion.Choices) == 0 {
		return Analysis{}, errors.New("openai response had no choices")
	}
	return ParseStrict(completion.Choices[0].Message.Content)
}
