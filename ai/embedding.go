package ai

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/hrygo/notescopilot/ai/cache"
	"github.com/hrygo/notescopilot/ai/core/llm"
)

// EmbeddingService is the vector embedding service interface.
type EmbeddingService interface {
	// Embed generates the vector for a single text.
	// Inputs beyond MaxInputChars are truncated first; failures wrap ErrProvider.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the requested vector dimension, 0 for the model default.
	Dimensions() int
}

type embeddingService struct {
	client     *openai.Client
	model      string
	dimensions int
	timeout    time.Duration
}

// NewEmbeddingService creates a new EmbeddingService.
func NewEmbeddingService(cfg *EmbeddingConfig) (EmbeddingService, error) {
	if cfg.Model == "" {
		return nil, errors.New("embedding model is required")
	}

	clientConfig, err := llm.NewClientConfig(cfg.Provider, cfg.APIKey, cfg.BaseURL, cfg.AzureAPIVersion)
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &embeddingService{
		client:     openai.NewClientWithConfig(clientConfig),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		timeout:    timeout,
	}, nil
}

func (s *embeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	input := TruncateInput(text)
	if len(input) != len(text) {
		slog.Warn("embedding input truncated", "max_chars", MaxInputChars)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      []string{input},
		Model:      openai.EmbeddingModel(s.model),
		Dimensions: s.dimensions,
	})
	if err != nil {
		return nil, ProviderError("create embeddings failed", err)
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, ProviderError("create embeddings failed", errors.New("empty embedding response"))
	}

	slog.Debug("embedding generated", "model", s.model, "dimensions", len(resp.Data[0].Embedding))
	return resp.Data[0].Embedding, nil
}

func (s *embeddingService) Dimensions() int {
	return s.dimensions
}

// CacheRecorder receives cache hit/miss events.
type CacheRecorder interface {
	RecordCacheHit(cacheType string)
	RecordCacheMiss(cacheType string)
}

type cachedEmbeddingService struct {
	EmbeddingService
	cache    *cache.EmbeddingCache
	recorder CacheRecorder
}

// NewCachedEmbeddingService memoizes successful embeddings of identical (truncated) inputs.
// Failures are never cached. recorder may be nil.
func NewCachedEmbeddingService(inner EmbeddingService, size int, ttl time.Duration, recorder CacheRecorder) EmbeddingService {
	return &cachedEmbeddingService{
		EmbeddingService: inner,
		cache:            cache.NewEmbeddingCache(size, ttl),
		recorder:         recorder,
	}
}

func (s *cachedEmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	key := TruncateInput(text)
	if vec, ok := s.cache.Get(key); ok {
		if s.recorder != nil {
			s.recorder.RecordCacheHit("embedding")
		}
		return vec, nil
	}
	if s.recorder != nil {
		s.recorder.RecordCacheMiss("embedding")
	}

	vec, err := s.EmbeddingService.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, vec)
	return vec, nil
}
