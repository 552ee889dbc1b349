package vector

import (
	"log/slog"
	"sort"
)

// Candidate is a stored embedding keyed by its owner id.
type Candidate struct {
	ID     int64
	Vector []float32
}

// Scored is a ranked candidate.
type Scored struct {
	ID    int64
	Score float64
}

// Rank scores every candidate against query and returns them by descending score.
// Candidates that cannot be compared with the query are logged and skipped.
// Equal scores keep their input order.
func Rank(query []float32, candidates []Candidate) []Scored {
	results := make([]Scored, 0, len(candidates))
	if len(query) == 0 || len(candidates) == 0 {
		return results
	}

	for _, c := range candidates {
		score, err := Similarity(query, c.Vector)
		if err != nil {
			slog.Warn("skipping candidate with unusable embedding",
				"id", c.ID,
				"dimensions", len(c.Vector),
				"query_dimensions", len(query),
				"error", err,
			)
			continue
		}
		results = append(results, Scored{ID: c.ID, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}
