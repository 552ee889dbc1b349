package ai

import (
	"errors"

	"github.com/hrygo/notescopilot/ai/core/llm"
	"github.com/hrygo/notescopilot/internal/profile"
)

// Config represents AI configuration.
type Config struct {
	Embedding EmbeddingConfig
	LLM       LLMConfig

	// EmbeddingCacheSize enables the query embedding cache when positive.
	EmbeddingCacheSize int
	// MaxConcurrency bounds in-flight provider calls across requests.
	MaxConcurrency int
}

// EmbeddingConfig represents vector embedding configuration.
type EmbeddingConfig struct {
	Provider        string // openai, azure
	Model           string
	APIKey          string
	BaseURL         string
	AzureAPIVersion string
	Dimensions      int // 0 keeps the model's native size
	Timeout         int // seconds
}

// LLMConfig represents LLM configuration.
// Field layout mirrors llm.Config so the two convert directly.
type LLMConfig struct {
	Provider        string
	Model           string
	APIKey          string
	BaseURL         string
	AzureAPIVersion string
	MaxTokens       int
	Temperature     float32
	Timeout         int
}

// NewConfigFromProfile creates AI config from profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	provider := llm.ProviderOpenAI
	baseURL := p.OpenAIBaseURL
	if p.IsAzure() {
		provider = llm.ProviderAzure
		baseURL = p.AzureOpenAIEndpoint
	}

	return &Config{
		Embedding: EmbeddingConfig{
			Provider:        provider,
			Model:           p.OpenAIEmbedModel,
			APIKey:          p.OpenAIAPIKey,
			BaseURL:         baseURL,
			AzureAPIVersion: p.AzureOpenAIAPIVersion,
			Timeout:         p.AITimeout,
		},
		LLM: LLMConfig{
			Provider:        provider,
			Model:           p.OpenAIGenModel,
			APIKey:          p.OpenAIAPIKey,
			BaseURL:         baseURL,
			AzureAPIVersion: p.AzureOpenAIAPIVersion,
			Timeout:         p.AITimeout,
		},
		EmbeddingCacheSize: p.EmbeddingCacheSize,
		MaxConcurrency:     p.AIMaxConcurrency,
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Embedding.APIKey == "" {
		return errors.New("embedding API key is required")
	}
	if c.Embedding.Model == "" {
		return errors.New("embedding model is required")
	}
	if c.LLM.APIKey == "" {
		return errors.New("LLM API key is required")
	}
	if c.LLM.Model == "" {
		return errors.New("LLM model is required")
	}
	if c.LLM.Provider == llm.ProviderAzure && c.LLM.BaseURL == "" {
		return errors.New("azure endpoint is required")
	}
	return nil
}
