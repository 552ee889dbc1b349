package notes

import (
	"context"
	"time"

	"github.com/hrygo/notescopilot/store"
)

const (
	MaxTitleChars = 500
	MaxBodyChars  = 10000
)

// Service defines the note pipeline: model-backed creation and semantic search.
// Plain reads, deletes and task updates go straight to the store.
type Service interface {
	// CreateNote analyzes and embeds the note, then persists it with one task per follow-up.
	// Nothing is written unless both provider calls succeed.
	CreateNote(ctx context.Context, create *CreateNoteRequest) (*store.Note, error)

	// Search lists notes newest first when the query is blank, otherwise ranks every
	// stored embedding against the query embedding and returns one page of hits.
	Search(ctx context.Context, params SearchParams) (*SearchResult, error)
}

// NoteStore is the persistence the pipeline needs. *store.Store satisfies it.
type NoteStore interface {
	CreateNote(ctx context.Context, create *store.Note) (*store.Note, error)
	ListNotes(ctx context.Context, find *store.FindNote) ([]*store.Note, int64, error)
	IterateNoteEmbeddings(ctx context.Context, fn func(*store.NoteEmbedding) error) error
	ResolveNotes(ctx context.Context, ids []int64) ([]*store.Note, error)
}

// Recorder receives pipeline metrics. *metrics.PrometheusExporter satisfies it.
type Recorder interface {
	RecordProviderCall(operation string, latency time.Duration, success bool)
	RecordSearch(mode string, latency time.Duration, success bool)
	ObserveCandidates(count int)
}

// CreateNoteRequest is the user-supplied part of a note.
type CreateNoteRequest struct {
	Title string
	Body  string
}

// SearchParams selects one page of notes. A blank Query means plain listing.
type SearchParams struct {
	Query  string
	Limit  int
	Offset int
}

// SearchHit is a note in a result page. Similarity is nil in plain listing mode.
type SearchHit struct {
	Note       *store.Note
	Similarity *float64
}

// SearchResult is one page of hits plus the size of the whole result set.
type SearchResult struct {
	Hits   []*SearchHit
	Total  int64
	Limit  int
	Offset int
}
