package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"discordbridge/internal/config"
)

// New builds the provider named in cfg. Aliases: chatgpt for openai, google for gemini.
func New(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (Provider, error) {
	client := &http.Client{}
	switch strings.ToLower(cfg.Provider) {
	case "openai", "chatgpt":
		return NewOpenAIProvider(cfg.Model, cfg.APIKey, cfg.BaseURL, client), nil
	case "google", "gemini":
		p, err := NewGeminiProvider(ctx, cfg.Model, cfg.APIKey)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "ollama":
		return NewOllamaProvider(cfg.Model, cfg.APIKey, cfg.BaseURL, client, logger), nil
	}
	return nil, fmt.Errorf("unsupported provider '%s'", cfg.Provider)
}
