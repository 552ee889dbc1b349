package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hrygo/notescopilot/ai"
	"github.com/hrygo/notescopilot/ai/core/llm"
	"github.com/hrygo/notescopilot/ai/internal/strutil"
)

const systemPrompt = `You turn raw notes into:
1) a 1–2 sentence, concrete summary,
2) 3–6 lowercase topical tags,
3) exactly three short, actionable follow-ups (imperative voice).
Be concise and practical. No boilerplate.`

// responseSchema is the strict structured-output contract sent with every request.
var responseSchema = &llm.ResponseSchema{
	Name:   "NoteAnalysis",
	Strict: true,
	Schema: llm.Object(map[string]*llm.JSONSchema{
		"summary":   llm.String(),
		"tags":      llm.ArrayOf(llm.String(), MinTags, MaxTags),
		"followups": llm.ArrayOf(llm.String(), NumFollowups, NumFollowups),
	}, "summary", "tags", "followups"),
}

type llmAnalyzer struct {
	llm      llm.Service
	recorder TokenRecorder
}

// NewAnalyzer creates an Analyzer backed by a chat completion service.
func NewAnalyzer(llmSvc llm.Service, opts ...Option) Analyzer {
	a := &llmAnalyzer{llm: llmSvc}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *llmAnalyzer) Analyze(ctx context.Context, title, body string) (*Analysis, error) {
	prompt := buildPrompt(title, body)

	messages := []llm.Message{
		llm.SystemPrompt(systemPrompt),
		llm.UserMessage(prompt),
	}

	content, stats, err := a.llm.ChatWithSchema(ctx, messages, responseSchema)
	if err != nil {
		return nil, ai.ProviderError("analyze note", err)
	}
	a.recordTokens(stats)

	result, err := parseAnalysis(content)
	if err != nil {
		slog.Warn("analysis response rejected", "error", err, "content_length", len(content))
		return nil, err
	}

	slog.Info("note analyzed", "tags", len(result.Tags), "followups", len(result.Followups))
	return result, nil
}

func (a *llmAnalyzer) recordTokens(stats *llm.LLMCallStats) {
	if a.recorder == nil || stats == nil {
		return
	}
	model := a.llm.Model()
	a.recorder.RecordLLMTokens(model, "prompt", stats.PromptTokens)
	a.recorder.RecordLLMTokens(model, "completion", stats.CompletionTokens)
}

// buildPrompt joins title and body into one prompt unit, then applies the shared input budget.
func buildPrompt(title, body string) string {
	prompt := fmt.Sprintf("Title: %s\n\nContent: %s", title, body)
	truncated := ai.TruncateInput(prompt)
	if len(truncated) != len(prompt) {
		slog.Warn("note text truncated for analysis", "max_chars", ai.MaxInputChars)
	}
	return truncated
}

// parseAnalysis validates the provider payload. Strict schema mode is not trusted.
func parseAnalysis(content string) (*Analysis, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ai.MalformedResponse("empty response")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &fields); err != nil {
		return nil, ai.MalformedResponse("invalid JSON: %v", err)
	}
	for _, key := range []string{"summary", "tags", "followups"} {
		if _, ok := fields[key]; !ok {
			return nil, ai.MalformedResponse("missing key %q", key)
		}
	}

	result := &Analysis{}
	if err := json.Unmarshal(fields["summary"], &result.Summary); err != nil {
		return nil, ai.MalformedResponse("summary is not a string")
	}
	var tags, followups []string
	if err := json.Unmarshal(fields["tags"], &tags); err != nil {
		return nil, ai.MalformedResponse("tags is not a list of strings")
	}
	if err := json.Unmarshal(fields["followups"], &followups); err != nil {
		return nil, ai.MalformedResponse("followups is not a list of strings")
	}

	result.Summary = strutil.Clip(strings.TrimSpace(result.Summary), MaxSummaryChars)

	for _, tag := range tags {
		if tag = strings.ToLower(strings.TrimSpace(tag)); tag != "" {
			result.Tags = append(result.Tags, tag)
		}
	}
	if len(result.Tags) < MinTags || len(result.Tags) > MaxTags {
		return nil, ai.MalformedResponse("expected %d-%d tags, got %d", MinTags, MaxTags, len(result.Tags))
	}

	for _, followup := range followups {
		if followup = strings.TrimSpace(followup); followup != "" {
			result.Followups = append(result.Followups, strutil.Clip(followup, MaxFollowupChars))
		}
	}
	if len(result.Followups) != NumFollowups {
		return nil, ai.MalformedResponse("expected %d followups, got %d", NumFollowups, len(result.Followups))
	}

	return result, nil
}
