package suggest

import (
	"log/slog"
	"net/http"

	"suggestion-agent/internal/config"
	"suggestion-agent/internal/integrations/googleai"
	"suggestion-agent/internal/integrations/openai"
)

// NewFromConfig builds a Client over the OpenAI primary and the Google AI
// secondary, sharing one HTTP client.
func NewFromConfig(cfg config.Config, logger *slog.Logger) (*Client, error) {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	primary := openai.NewClient(cfg.Credentials.OpenAIKey,
		openai.WithBaseURL(cfg.OpenAIBaseURL),
		openai.WithModel(cfg.OpenAIModel),
		openai.WithMaxTokens(cfg.MaxTokens),
		openai.WithHTTPClient(httpClient),
	)
	secondary := googleai.NewClient(cfg.Credentials.GoogleAIKey,
		googleai.WithEndpoint(cfg.GoogleAIEndpoint),
		googleai.WithHTTPClient(httpClient),
	)
	return New(primary, secondary, logger)
}
