package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

const (
	ProviderOpenAI = "openai"
	ProviderAzure  = "azure"

	defaultTimeoutSeconds = 30
)

// Message represents a chat message.
type Message struct {
	Role    string // system, user, assistant
	Content string
}

// LLMCallStats carries token usage and timing for a single call.
type LLMCallStats struct {
	PromptTokens     int   `json:"prompt_tokens"`
	CompletionTokens int   `json:"completion_tokens"`
	TotalTokens      int   `json:"total_tokens"`
	TotalDurationMs  int64 `json:"total_duration_ms"`
}

// ResponseSchema asks the provider to constrain its output to a JSON schema.
type ResponseSchema struct {
	Name   string
	Schema *JSONSchema
	Strict bool
}

// Service is the LLM service interface.
type Service interface {
	// Chat performs a synchronous chat completion.
	Chat(ctx context.Context, messages []Message) (string, *LLMCallStats, error)

	// ChatWithSchema performs a chat completion whose content must follow schema.
	ChatWithSchema(ctx context.Context, messages []Message, schema *ResponseSchema) (string, *LLMCallStats, error)

	// Model returns the configured model name.
	Model() string
}

// Config represents LLM service configuration.
type Config struct {
	Provider        string // openai (or any OpenAI-compatible endpoint), azure
	Model           string // gpt-4o-mini, ...
	APIKey          string
	BaseURL         string // Azure resource endpoint when Provider is azure
	AzureAPIVersion string
	MaxTokens       int
	Temperature     float32
	Timeout         int // Request timeout in seconds (default: 30)
}

type service struct {
	client      *openai.Client
	model       string
	provider    string
	maxTokens   int
	temperature float32
	timeout     int
}

// NewClientConfig builds the go-openai client configuration shared by chat and embeddings.
func NewClientConfig(provider, apiKey, baseURL, azureAPIVersion string) (openai.ClientConfig, error) {
	var clientConfig openai.ClientConfig

	switch provider {
	case ProviderAzure:
		if baseURL == "" {
			return clientConfig, errors.New("azure endpoint is required")
		}
		clientConfig = openai.DefaultAzureConfig(apiKey, baseURL)
		if azureAPIVersion != "" {
			clientConfig.APIVersion = azureAPIVersion
		}
	case ProviderOpenAI, "":
		clientConfig = openai.DefaultConfig(apiKey)
		if baseURL != "" {
			clientConfig.BaseURL = baseURL
		}
	default:
		return clientConfig, fmt.Errorf("unsupported LLM provider: %s", provider)
	}

	clientConfig.HTTPClient = newHTTPClient()
	return clientConfig, nil
}

// NewService creates a new LLM Service.
func NewService(cfg *Config) (Service, error) {
	if cfg.Model == "" {
		return nil, errors.New("LLM model is required")
	}

	clientConfig, err := NewClientConfig(cfg.Provider, cfg.APIKey, cfg.BaseURL, cfg.AzureAPIVersion)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeoutSeconds
	}

	provider := cfg.Provider
	if provider == "" {
		provider = ProviderOpenAI
	}

	return &service{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		provider:    provider,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		timeout:     timeout,
	}, nil
}

func (s *service) Model() string {
	return s.model
}

func (s *service) Chat(ctx context.Context, messages []Message) (string, *LLMCallStats, error) {
	return s.complete(ctx, messages, nil)
}

func (s *service) ChatWithSchema(ctx context.Context, messages []Message, schema *ResponseSchema) (string, *LLMCallStats, error) {
	if schema == nil || schema.Schema == nil {
		return "", nil, errors.New("response schema is required")
	}

	format := &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
		JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
			Name:   schema.Name,
			Schema: schema.Schema,
			Strict: schema.Strict,
		},
	}
	return s.complete(ctx, messages, format)
}

func (s *service) complete(ctx context.Context, messages []Message, format *openai.ChatCompletionResponseFormat) (string, *LLMCallStats, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.timeout)*time.Second)
	defer cancel()

	slog.Debug("LLM: Chat request",
		"provider", s.provider,
		"model", s.model,
		"messages_count", len(messages),
		"structured", format != nil,
	)

	startTime := time.Now()

	req := openai.ChatCompletionRequest{
		Model:          s.model,
		MaxTokens:      s.maxTokens,
		Temperature:    s.temperature,
		Messages:       convertMessages(messages),
		ResponseFormat: format,
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		slog.Error("LLM: Chat request failed", "model", s.model, "error", err)
		return "", nil, fmt.Errorf("LLM chat failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		slog.Warn("LLM: Empty response from LLM", "model", s.model)
		return "", nil, errors.New("empty response from LLM")
	}

	totalDuration := time.Since(startTime)
	stats := &LLMCallStats{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
		TotalDurationMs:  totalDuration.Milliseconds(),
	}

	slog.Debug("LLM: Chat response received",
		"content_length", len(resp.Choices[0].Message.Content),
		"total_tokens", stats.TotalTokens,
		"duration_ms", stats.TotalDurationMs,
	)

	return resp.Choices[0].Message.Content, stats, nil
}

func convertMessages(messages []Message) []openai.ChatCompletionMessage {
	llmMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case "system":
			role = openai.ChatMessageRoleSystem
		case "assistant":
			role = openai.ChatMessageRoleAssistant
		}
		llmMessages[i] = openai.ChatCompletionMessage{Role: role, Content: m.Content}
	}
	return llmMessages
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 60 * time.Second,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// SystemPrompt is a helper for creating system prompts.
func SystemPrompt(content string) Message {
	return Message{Role: "system", Content: content}
}

// UserMessage is a helper for creating user messages.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}
