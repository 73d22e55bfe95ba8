package advisor

import (
	"context"
	"fmt"
	"os"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ClientConfig holds configuration for the reasoning-service client.
type ClientConfig struct {
	// BaseURL is the OpenAI-compatible base URL.
	// For Ollama: http://localhost:11434/v1
	BaseURL string `koanf:"base_url"`

	// Model is the reasoning model to use.
	Model string `koanf:"model"`

	// APIKey is the API key (optional for Ollama).
	APIKey string `koanf:"api_key"`
}

// ClientConfigFromEnv creates a ClientConfig from environment variables.
//
// Environment variables:
//   - ADVISOR_BASE_URL: Base URL (default: http://localhost:11434/v1)
//   - ADVISOR_MODEL: Model name (default: llama3)
//   - OPENAI_API_KEY: API key (optional)
func ClientConfigFromEnv() ClientConfig {
	baseURL := os.Getenv("ADVISOR_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:11434/v1"
	}

	model := os.Getenv("ADVISOR_MODEL")
	if model == "" {
		model = "llama3"
	}

	return ClientConfig{
		BaseURL: baseURL,
		Model:   model,
		APIKey:  os.Getenv("OPENAI_API_KEY"),
	}
}

// Validate validates the configuration.
func (c ClientConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base URL required", ErrInvalidConfig)
	}
	if c.Model == "" {
		return fmt.Errorf("%w: model required", ErrInvalidConfig)
	}
	return nil
}

// OpenAIClient reaches the reasoning service through langchaingo's
// OpenAI-compatible client. Ordering proposals want determinism, so every
// call runs with temperature 0.
type OpenAIClient struct {
	llm    *openai.LLM
	config ClientConfig
}

// NewOpenAIClient creates a client for the configured endpoint.
func NewOpenAIClient(config ClientConfig) (*OpenAIClient, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	apiKey := config.APIKey
	if apiKey == "" {
		// langchaingo requires a token even for keyless endpoints.
		apiKey = "placeholder"
	}

	llm, err := openai.New(
		openai.WithBaseURL(config.BaseURL),
		openai.WithModel(config.Model),
		openai.WithToken(apiKey),
	)
	if err != nil {
		return nil, fmt.Errorf("creating OpenAI-compatible client: %w", err)
	}

	return &OpenAIClient{llm: llm, config: config}, nil
}

// Complete sends the prompt and returns the raw completion text.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, c.llm, prompt, llms.WithTemperature(0))
}
