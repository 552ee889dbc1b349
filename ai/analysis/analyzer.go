// Package analysis derives a summary, topical tags and follow-up tasks from a note.
package analysis

import (
	"context"
)

const (
	MinTags      = 3
	MaxTags      = 6
	NumFollowups = 3

	MaxSummaryChars  = 1000
	MaxFollowupChars = 500
)

// Analyzer turns a note into its structured analysis.
type Analyzer interface {
	// Analyze returns the analysis of title and body.
	// Provider failures wrap ai.ErrProvider; unusable payloads wrap ai.ErrMalformedResponse.
	Analyze(ctx context.Context, title, body string) (*Analysis, error)
}

// Analysis is the model-derived part of a note.
type Analysis struct {
	Summary   string   `json:"summary"`
	Tags      []string `json:"tags"`
	Followups []string `json:"followups"`
}

// TokenRecorder receives LLM token usage.
type TokenRecorder interface {
	RecordLLMTokens(model, tokenType string, count int)
}

// Option configures the LLM analyzer.
type Option func(*llmAnalyzer)

// WithTokenRecorder reports token usage of every analysis call to r.
func WithTokenRecorder(r TokenRecorder) Option {
	return func(a *llmAnalyzer) {
		a.recorder = r
	}
}
