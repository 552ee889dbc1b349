package notes

import (
	"context"
	"log/slog"
	"sort"

	"github.com/pkg/errors"

	"github.com/hrygo/notescopilot/ai/vector"
	"github.com/hrygo/notescopilot/store"
)

// semanticSearch ranks the whole collection against the query. The scan is exact:
// every stored embedding is scored, so total is the number of rankable notes.
func (s *service) semanticSearch(ctx context.Context, query string, params SearchParams) (*SearchResult, error) {
	var queryVector []float32
	err := s.callProvider(ctx, "embed_query", func(ctx context.Context) error {
		var err error
		queryVector, err = s.queryEmbedder.Embed(ctx, query)
		return err
	})
	if err != nil {
		return nil, err
	}

	candidates := []vector.Candidate{}
	err = s.store.IterateNoteEmbeddings(ctx, func(e *store.NoteEmbedding) error {
		candidates = append(candidates, vector.Candidate{ID: e.NoteID, Vector: e.Embedding})
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan note embeddings")
	}

	ranked := vector.Rank(queryVector, candidates)
	if s.recorder != nil {
		s.recorder.ObserveCandidates(len(candidates))
	}
	slog.Debug("semantic search ranked",
		"candidates", len(candidates),
		"ranked", len(ranked),
		"limit", params.Limit,
		"offset", params.Offset,
	)

	result := &SearchResult{
		Hits:   []*SearchHit{},
		Total:  int64(len(ranked)),
		Limit:  params.Limit,
		Offset: params.Offset,
	}
	page := pageOf(ranked, params.Offset, params.Limit)
	if len(page) == 0 {
		return result, nil
	}

	ids := make([]int64, len(page))
	position := make(map[int64]int, len(page))
	for i, scored := range page {
		ids[i] = scored.ID
		position[scored.ID] = i
	}

	resolved, err := s.store.ResolveNotes(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve ranked notes")
	}
	// Resolution order is arbitrary; restore the ranked order, which already breaks ties.
	sort.SliceStable(resolved, func(i, j int) bool {
		return position[resolved[i].ID] < position[resolved[j].ID]
	})

	for _, note := range resolved {
		score := page[position[note.ID]].Score
		result.Hits = append(result.Hits, &SearchHit{Note: note, Similarity: &score})
	}
	return result, nil
}

// pageOf returns ranked[offset : offset+limit], clipped to the slice bounds.
func pageOf(ranked []vector.Scored, offset, limit int) []vector.Scored {
	if offset >= len(ranked) {
		return nil
	}
	end := offset + limit
	if end > len(ranked) {
		end = len(ranked)
	}
	return ranked[offset:end]
}
