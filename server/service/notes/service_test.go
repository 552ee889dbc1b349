package notes

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/notescopilot/ai"
	"github.com/hrygo/notescopilot/ai/analysis"
	"github.com/hrygo/notescopilot/store"
	storetest "github.com/hrygo/notescopilot/store/test"
)

type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
	calls   atomic.Int32
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	if vec, ok := f.vectors[text]; ok {
		return vec, nil
	}
	return []float32{1, 0}, nil
}

func (*fakeEmbedder) Dimensions() int { return 2 }

type fakeAnalyzer struct {
	result *analysis.Analysis
	err    error
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, title, _ string) (*analysis.Analysis, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &analysis.Analysis{
		Summary:   "About " + title,
		Tags:      []string{"work", "planning", strings.ToLower(title)},
		Followups: []string{"Do one", "Do two", "Do three"},
	}, nil
}

type fakeRecorder struct {
	mu        sync.Mutex
	provider  map[string]int
	searches  map[string]int
	candidate []int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{provider: map[string]int{}, searches: map[string]int{}}
}

func (r *fakeRecorder) RecordProviderCall(op string, _ time.Duration, success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if success {
		r.provider[op]++
	}
}

func (r *fakeRecorder) RecordSearch(mode string, _ time.Duration, _ bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.searches[mode]++
}

func (r *fakeRecorder) ObserveCandidates(count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.candidate = append(r.candidate, count)
}

func TestCreateNote(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	embedder := &fakeEmbedder{vectors: map[string][]float32{"Discuss roadmap": {0.3, 0.4}}}
	recorder := newFakeRecorder()
	svc := NewService(ts, embedder, &fakeAnalyzer{}, WithRecorder(recorder))

	note, err := svc.CreateNote(ctx, &CreateNoteRequest{Title: "Q3", Body: "Discuss roadmap"})
	require.NoError(t, err)
	assert.Positive(t, note.ID)
	assert.Equal(t, "About Q3", note.Summary)
	assert.Equal(t, []string{"work", "planning", "q3"}, note.Tags)
	require.Len(t, note.Tasks, 3)
	for _, task := range note.Tasks {
		assert.Equal(t, store.TaskOpen, task.Status)
		assert.Equal(t, note.ID, task.NoteID)
	}

	stored, err := ts.GetNote(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, "Do two", stored.Tasks[1].Text)

	var vec []float32
	require.NoError(t, ts.IterateNoteEmbeddings(ctx, func(e *store.NoteEmbedding) error {
		vec = e.Embedding
		return nil
	}))
	assert.Equal(t, []float32{0.3, 0.4}, vec)

	assert.Equal(t, 1, recorder.provider["analyze"])
	assert.Equal(t, 1, recorder.provider["embed"])
}

func TestCreateNote_NothingPersistedOnProviderFailure(t *testing.T) {
	tests := []struct {
		name     string
		embedder *fakeEmbedder
		analyzer *fakeAnalyzer
		wantErr  error
	}{
		{
			name:     "malformed analysis",
			embedder: &fakeEmbedder{},
			analyzer: &fakeAnalyzer{err: ai.MalformedResponse("missing key %q", "followups")},
			wantErr:  ai.ErrMalformedResponse,
		},
		{
			name:     "analysis provider down",
			embedder: &fakeEmbedder{},
			analyzer: &fakeAnalyzer{err: ai.ProviderError("analyze note", errors.New("timeout"))},
			wantErr:  ai.ErrProvider,
		},
		{
			name:     "embedding provider down",
			embedder: &fakeEmbedder{err: ai.ProviderError("create embeddings failed", errors.New("401"))},
			analyzer: &fakeAnalyzer{},
			wantErr:  ai.ErrProvider,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			ts := storetest.NewTestingStore(ctx, t)
			svc := NewService(ts, tt.embedder, tt.analyzer)

			note, err := svc.CreateNote(ctx, &CreateNoteRequest{Title: "T", Body: "B"})
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, note)

			_, total, err := ts.ListNotes(ctx, &store.FindNote{})
			require.NoError(t, err)
			assert.Zero(t, total)
		})
	}
}

func TestCreateNote_Validation(t *testing.T) {
	svc := NewService(nil, &fakeEmbedder{}, &fakeAnalyzer{})

	tests := []struct {
		name  string
		title string
		body  string
	}{
		{name: "empty title", title: "", body: "b"},
		{name: "empty body", title: "t", body: ""},
		{name: "long title", title: strings.Repeat("t", MaxTitleChars+1), body: "b"},
		{name: "long body", title: "t", body: strings.Repeat("b", MaxBodyChars+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateNote(context.Background(), &CreateNoteRequest{Title: tt.title, Body: tt.body})
			require.ErrorIs(t, err, store.ErrInvalidArgument)
		})
	}

	// Limits count characters, not bytes.
	assert.NoError(t, ValidateCreate(&CreateNoteRequest{Title: strings.Repeat("é", MaxTitleChars), Body: "b"}))
}

// seedRanked stores five notes whose cosine scores against [1, 0] are
// 1, 0.707, 0, -0.707, -1 for titles r0..r4, inserted out of order.
func seedRanked(ctx context.Context, t *testing.T, ts *store.Store) map[string]int64 {
	t.Helper()
	vectors := map[string][]float32{
		"r0": {1, 0},
		"r1": {1, 1},
		"r2": {0, 1},
		"r3": {-1, 1},
		"r4": {-1, 0},
	}
	ids := map[string]int64{}
	for _, title := range []string{"r3", "r0", "r4", "r2", "r1"} {
		note, err := ts.CreateNote(ctx, storetest.NewTestingNote(title, vectors[title]))
		require.NoError(t, err)
		ids[title] = note.ID
	}
	return ids
}

func titles(hits []*SearchHit) []string {
	out := make([]string, 0, len(hits))
	for _, hit := range hits {
		out = append(out, hit.Note.Title)
	}
	return out
}

func TestSearch_Pagination(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	seedRanked(ctx, t, ts)

	embedder := &fakeEmbedder{vectors: map[string][]float32{"east": {1, 0}}}
	svc := NewService(ts, embedder, &fakeAnalyzer{})

	result, err := svc.Search(ctx, SearchParams{Query: "east", Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(5), result.Total)
	assert.Equal(t, 2, result.Limit)
	assert.Equal(t, 1, result.Offset)
	assert.Equal(t, []string{"r1", "r2"}, titles(result.Hits))
	require.NotNil(t, result.Hits[0].Similarity)
	assert.InDelta(t, 0.7071, *result.Hits[0].Similarity, 1e-4)
	assert.InDelta(t, 0, *result.Hits[1].Similarity, 1e-9)
	assert.Len(t, result.Hits[0].Note.Tasks, 3)

	result, err = svc.Search(ctx, SearchParams{Query: "east", Limit: 10, Offset: 0})
	require.NoError(t, err)
	assert.Equal(t, []string{"r0", "r1", "r2", "r3", "r4"}, titles(result.Hits))
	for i := 1; i < len(result.Hits); i++ {
		assert.GreaterOrEqual(t, *result.Hits[i-1].Similarity, *result.Hits[i].Similarity)
	}

	result, err = svc.Search(ctx, SearchParams{Query: "east", Limit: 10, Offset: 5})
	require.NoError(t, err)
	assert.Empty(t, result.Hits)
	assert.Equal(t, int64(5), result.Total)
}

func TestSearch_EmptyStoreStillEmbedsQuery(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	embedder := &fakeEmbedder{}
	svc := NewService(ts, embedder, &fakeAnalyzer{})

	result, err := svc.Search(ctx, SearchParams{Query: "anything", Limit: 10})
	require.NoError(t, err)
	assert.NotNil(t, result.Hits)
	assert.Empty(t, result.Hits)
	assert.Zero(t, result.Total)
	assert.Equal(t, int32(1), embedder.calls.Load())
}

func TestSearch_BlankQueryLists(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	ids := seedRanked(ctx, t, ts)
	embedder := &fakeEmbedder{}
	recorder := newFakeRecorder()
	svc := NewService(ts, embedder, &fakeAnalyzer{}, WithRecorder(recorder))

	result, err := svc.Search(ctx, SearchParams{Query: "   ", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), result.Total)
	require.Len(t, result.Hits, 2)
	// Newest first: r1 was inserted last.
	assert.Equal(t, ids["r1"], result.Hits[0].Note.ID)
	for _, hit := range result.Hits {
		assert.Nil(t, hit.Similarity)
	}
	assert.Zero(t, embedder.calls.Load())
	assert.Equal(t, 1, recorder.searches["list"])
}

func TestSearch_Errors(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	seedRanked(ctx, t, ts)

	t.Run("query embedding fails", func(t *testing.T) {
		embedder := &fakeEmbedder{err: ai.ProviderError("create embeddings failed", errors.New("down"))}
		svc := NewService(ts, embedder, &fakeAnalyzer{})
		_, err := svc.Search(ctx, SearchParams{Query: "q", Limit: 10})
		require.ErrorIs(t, err, ai.ErrProvider)
	})

	t.Run("invalid page in both modes", func(t *testing.T) {
		embedder := &fakeEmbedder{}
		svc := NewService(ts, embedder, &fakeAnalyzer{})
		for _, query := range []string{"", "q"} {
			_, err := svc.Search(ctx, SearchParams{Query: query, Limit: 0})
			require.ErrorIs(t, err, store.ErrInvalidArgument)
			_, err = svc.Search(ctx, SearchParams{Query: query, Limit: 101})
			require.ErrorIs(t, err, store.ErrInvalidArgument)
			_, err = svc.Search(ctx, SearchParams{Query: query, Limit: 10, Offset: -1})
			require.ErrorIs(t, err, store.ErrInvalidArgument)
		}
		assert.Zero(t, embedder.calls.Load())
	})
}

func TestSearch_SkipsMismatchedDimensions(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	seedRanked(ctx, t, ts)
	_, err := ts.CreateNote(ctx, storetest.NewTestingNote("odd", []float32{1, 0, 0}))
	require.NoError(t, err)

	recorder := newFakeRecorder()
	svc := NewService(ts, &fakeEmbedder{}, &fakeAnalyzer{}, WithRecorder(recorder))

	result, err := svc.Search(ctx, SearchParams{Query: "q", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(5), result.Total)
	assert.NotContains(t, titles(result.Hits), "odd")
	assert.Equal(t, []int{6}, recorder.candidate)
}

func TestCreateAndSearch(t *testing.T) {
	ctx := context.Background()
	ts := storetest.NewTestingStore(ctx, t)
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"Plan the quarterly roadmap":   {0.9, 0.1},
		"Buy groceries for the week":   {0.1, 0.9},
		"Review the engineering hires": {0.6, 0.4},
		"roadmap":                      {1, 0},
	}}
	svc := NewService(ts, embedder, &fakeAnalyzer{}, WithMaxConcurrency(2))

	for title, body := range map[string]string{
		"Roadmap":   "Plan the quarterly roadmap",
		"Groceries": "Buy groceries for the week",
		"Hiring":    "Review the engineering hires",
	} {
		_, err := svc.CreateNote(ctx, &CreateNoteRequest{Title: title, Body: body})
		require.NoError(t, err)
	}

	result, err := svc.Search(ctx, SearchParams{Query: "roadmap", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.Total)
	assert.Equal(t, []string{"Roadmap", "Hiring", "Groceries"}, titles(result.Hits))
	assert.Equal(t, "About Roadmap", result.Hits[0].Note.Summary)
}
