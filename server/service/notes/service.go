package notes

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/hrygo/notescopilot/ai"
	"github.com/hrygo/notescopilot/ai/analysis"
	"github.com/hrygo/notescopilot/store"
)

const defaultMaxConcurrency = 8

type service struct {
	store         NoteStore
	embedder      ai.EmbeddingService
	queryEmbedder ai.EmbeddingService
	analyzer      analysis.Analyzer

	providerSlots *semaphore.Weighted
	recorder      Recorder
}

// Option configures the notes service.
type Option func(*service)

// WithQueryEmbedder embeds search queries with e instead of the note embedder,
// typically a cached decorator around it.
func WithQueryEmbedder(e ai.EmbeddingService) Option {
	return func(s *service) {
		s.queryEmbedder = e
	}
}

// WithMaxConcurrency bounds in-flight provider calls across all requests.
func WithMaxConcurrency(n int) Option {
	return func(s *service) {
		if n > 0 {
			s.providerSlots = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithRecorder reports provider and search metrics to r.
func WithRecorder(r Recorder) Option {
	return func(s *service) {
		s.recorder = r
	}
}

// NewService creates the notes Service.
func NewService(noteStore NoteStore, embedder ai.EmbeddingService, analyzer analysis.Analyzer, opts ...Option) Service {
	s := &service{
		store:         noteStore,
		embedder:      embedder,
		queryEmbedder: embedder,
		analyzer:      analyzer,
		providerSlots: semaphore.NewWeighted(defaultMaxConcurrency),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidateCreate checks title and body lengths in characters.
func ValidateCreate(create *CreateNoteRequest) error {
	if n := utf8.RuneCountInString(create.Title); n < 1 || n > MaxTitleChars {
		return errors.Wrapf(store.ErrInvalidArgument, "title must be between 1 and %d characters", MaxTitleChars)
	}
	if n := utf8.RuneCountInString(create.Body); n < 1 || n > MaxBodyChars {
		return errors.Wrapf(store.ErrInvalidArgument, "body must be between 1 and %d characters", MaxBodyChars)
	}
	return nil
}

func (s *service) CreateNote(ctx context.Context, create *CreateNoteRequest) (*store.Note, error) {
	if err := ValidateCreate(create); err != nil {
		return nil, err
	}

	var result *analysis.Analysis
	var embedding []float32

	// Either failure cancels the other call and nothing is written.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.callProvider(gctx, "analyze", func(ctx context.Context) error {
			var err error
			result, err = s.analyzer.Analyze(ctx, create.Title, create.Body)
			return err
		})
	})
	g.Go(func() error {
		return s.callProvider(gctx, "embed", func(ctx context.Context) error {
			var err error
			embedding, err = s.embedder.Embed(ctx, create.Body)
			return err
		})
	})
	if err := g.Wait(); err != nil {
		slog.Warn("note analysis failed", "error", err)
		return nil, err
	}

	note := &store.Note{
		Title:     create.Title,
		Body:      create.Body,
		Summary:   result.Summary,
		Tags:      result.Tags,
		Embedding: embedding,
		Tasks:     make([]*store.Task, 0, len(result.Followups)),
	}
	for _, followup := range result.Followups {
		note.Tasks = append(note.Tasks, &store.Task{Text: followup, Status: store.TaskOpen})
	}

	note, err := s.store.CreateNote(ctx, note)
	if err != nil {
		return nil, errors.Wrap(err, "failed to persist note")
	}

	slog.Info("note created", "id", note.ID, "tags", len(note.Tags), "tasks", len(note.Tasks))
	return note, nil
}

// callProvider runs fn while holding a provider slot and records its outcome.
func (s *service) callProvider(ctx context.Context, operation string, fn func(context.Context) error) error {
	if err := s.providerSlots.Acquire(ctx, 1); err != nil {
		return ai.ProviderError(operation, err)
	}
	defer s.providerSlots.Release(1)

	start := time.Now()
	err := fn(ctx)
	if s.recorder != nil {
		s.recorder.RecordProviderCall(operation, time.Since(start), err == nil)
	}
	return err
}

func (s *service) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	if err := store.ValidatePage(params.Limit, params.Offset); err != nil {
		return nil, err
	}

	mode := "semantic"
	query := strings.TrimSpace(params.Query)
	if query == "" {
		mode = "list"
	}

	start := time.Now()
	var result *SearchResult
	var err error
	if mode == "list" {
		result, err = s.list(ctx, params)
	} else {
		result, err = s.semanticSearch(ctx, query, params)
	}
	if s.recorder != nil {
		s.recorder.RecordSearch(mode, time.Since(start), err == nil)
	}
	return result, err
}

func (s *service) list(ctx context.Context, params SearchParams) (*SearchResult, error) {
	limit, offset := params.Limit, params.Offset
	list, total, err := s.store.ListNotes(ctx, &store.FindNote{Limit: &limit, Offset: &offset})
	if err != nil {
		return nil, err
	}

	hits := make([]*SearchHit, 0, len(list))
	for _, note := range list {
		hits = append(hits, &SearchHit{Note: note})
	}
	return &SearchResult{Hits: hits, Total: total, Limit: limit, Offset: offset}, nil
}
