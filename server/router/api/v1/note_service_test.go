package v1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/notescopilot/ai"
	"github.com/hrygo/notescopilot/ai/analysis"
	"github.com/hrygo/notescopilot/internal/profile"
	"github.com/hrygo/notescopilot/server/middleware"
	"github.com/hrygo/notescopilot/server/service/notes"
	"github.com/hrygo/notescopilot/store"
	storetest "github.com/hrygo/notescopilot/store/test"
)

type stubEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	if vec, ok := s.vectors[text]; ok {
		return vec, nil
	}
	return []float32{0, 1}, nil
}

func (*stubEmbedder) Dimensions() int { return 2 }

type stubAnalyzer struct {
	err error
}

func (s *stubAnalyzer) Analyze(_ context.Context, title, _ string) (*analysis.Analysis, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &analysis.Analysis{
		Summary:   "Summary of " + title,
		Tags:      []string{"meeting", "budget", "planning"},
		Followups: []string{"Send notes", "Book room", "Update sheet"},
	}, nil
}

type testServer struct {
	echo     *echo.Echo
	store    *store.Store
	embedder *stubEmbedder
	analyzer *stubAnalyzer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := storetest.NewTestingStore(context.Background(), t)

	embedder := &stubEmbedder{vectors: map[string][]float32{}}
	analyzer := &stubAnalyzer{}
	prof := &profile.Profile{Mode: "dev", APIPrefix: "/api"}
	service := NewAPIV1Service(prof, ts, notes.NewService(ts, embedder, analyzer))

	e := echo.New()
	e.HTTPErrorHandler = middleware.HTTPErrorHandler
	service.RegisterRoutes(e.Group(prof.APIPrefix))

	return &testServer{echo: e, store: ts, embedder: embedder, analyzer: analyzer}
}

func (s *testServer) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) seed(t *testing.T, title string, embedding []float32) *store.Note {
	t.Helper()
	note, err := s.store.CreateNote(context.Background(), storetest.NewTestingNote(title, embedding))
	require.NoError(t, err)
	return note
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[middleware.ErrorResponse](t, rec).Detail
}

func TestCreateNote(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/notes/", `{"title":"Team sync","body":"Discussed the Q3 budget."}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	note := decode[Note](t, rec)
	assert.NotZero(t, note.ID)
	assert.Equal(t, "Team sync", note.Title)
	assert.Equal(t, "Summary of Team sync", note.Summary)
	assert.Equal(t, []string{"meeting", "budget", "planning"}, note.Tags)
	assert.False(t, note.CreatedAt.IsZero())
	assert.Nil(t, note.Similarity)
	require.Len(t, note.Tasks, 3)
	for _, task := range note.Tasks {
		assert.Equal(t, "open", task.Status)
	}

	raw := decode[map[string]any](t, rec)
	assert.NotContains(t, raw, "similarity")
}

func TestCreateNote_Validation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "empty title", body: `{"title":"","body":"x"}`, want: "title"},
		{name: "empty body", body: `{"title":"x","body":""}`, want: "body"},
		{name: "long title", body: `{"title":"` + strings.Repeat("a", notes.MaxTitleChars+1) + `","body":"x"}`, want: "title"},
		{name: "malformed json", body: `{"title":`, want: "invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/notes", tt.body)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Contains(t, detail(t, rec), tt.want)
		})
	}
}

func TestCreateNote_AIFailure(t *testing.T) {
	s := newTestServer(t)
	s.analyzer.err = ai.MalformedResponse("missing key %q", "tags")

	rec := s.do(t, http.MethodPost, "/api/notes", `{"title":"t","body":"b"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.True(t, strings.HasPrefix(detail(t, rec), "AI processing failed: "))

	rec = s.do(t, http.MethodGet, "/api/notes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, decode[ListNotesResponse](t, rec).Total)
}

func TestListNotes(t *testing.T) {
	s := newTestServer(t)
	for _, title := range []string{"one", "two", "three"} {
		s.seed(t, title, []float32{1, 0})
	}

	rec := s.do(t, http.MethodGet, "/api/notes?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	list := decode[ListNotesResponse](t, rec)
	assert.Equal(t, int64(3), list.Total)
	assert.Equal(t, 2, list.Limit)
	assert.Equal(t, 0, list.Offset)
	require.Len(t, list.Notes, 2)
	for _, note := range list.Notes {
		assert.Nil(t, note.Similarity)
		assert.Len(t, note.Tasks, 3)
	}

	rec = s.do(t, http.MethodGet, "/api/notes?limit=2&offset=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[ListNotesResponse](t, rec).Notes, 1)
}

func TestListNotes_InvalidPage(t *testing.T) {
	s := newTestServer(t)

	for _, query := range []string{"limit=0", "limit=101", "offset=-1", "limit=abc", "search=x&limit=0"} {
		t.Run(query, func(t *testing.T) {
			rec := s.do(t, http.MethodGet, "/api/notes?"+query, "")
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.NotEmpty(t, detail(t, rec))
		})
	}
}

func TestListNotes_Search(t *testing.T) {
	s := newTestServer(t)
	cats := s.seed(t, "cats", []float32{1, 0})
	s.seed(t, "dogs", []float32{0, 1})
	s.seed(t, "both", []float32{1, 1})
	s.embedder.vectors["cat"] = []float32{1, 0}

	rec := s.do(t, http.MethodGet, "/api/notes?search=cat&limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	list := decode[ListNotesResponse](t, rec)
	assert.Equal(t, int64(3), list.Total)
	require.Len(t, list.Notes, 2)
	assert.Equal(t, cats.ID, list.Notes[0].ID)
	require.NotNil(t, list.Notes[0].Similarity)
	assert.InDelta(t, 1.0, *list.Notes[0].Similarity, 1e-9)
	assert.Equal(t, "both", list.Notes[1].Title)
	assert.Greater(t, *list.Notes[0].Similarity, *list.Notes[1].Similarity)
}

func TestListNotes_SearchFailure(t *testing.T) {
	s := newTestServer(t)
	s.embedder.err = ai.ProviderError("embed", errors.New("connection refused"))

	rec := s.do(t, http.MethodGet, "/api/notes?search=anything", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.True(t, strings.HasPrefix(detail(t, rec), "Search failed: "))
}

func TestGetNote(t *testing.T) {
	s := newTestServer(t)
	seeded := s.seed(t, "kept", []float32{1, 0})

	rec := s.do(t, http.MethodGet, "/api/notes/"+itoa(seeded.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	note := decode[Note](t, rec)
	assert.Equal(t, seeded.ID, note.ID)
	assert.Len(t, note.Tasks, 3)

	rec = s.do(t, http.MethodGet, "/api/notes/9999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Note not found", detail(t, rec))

	rec = s.do(t, http.MethodGet, "/api/notes/abc", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestDeleteNote(t *testing.T) {
	s := newTestServer(t)
	seeded := s.seed(t, "doomed", []float32{1, 0})

	rec := s.do(t, http.MethodDelete, "/api/notes/"+itoa(seeded.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[DeleteNoteResponse](t, rec)
	assert.Equal(t, "Note deleted successfully", resp.Message)
	assert.Equal(t, seeded.ID, resp.ID)

	rec = s.do(t, http.MethodGet, "/api/notes/"+itoa(seeded.ID), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/tasks/"+itoa(seeded.Tasks[0].ID), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/notes/"+itoa(seeded.ID), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Note not found", detail(t, rec))
}
