package analysis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/notescopilot/ai"
	"github.com/hrygo/notescopilot/ai/core/llm"
)

type fakeLLM struct {
	content  string
	err      error
	messages []llm.Message
	schema   *llm.ResponseSchema
}

func (f *fakeLLM) Chat(ctx context.Context, messages []llm.Message) (string, *llm.LLMCallStats, error) {
	return f.ChatWithSchema(ctx, messages, nil)
}

func (f *fakeLLM) ChatWithSchema(_ context.Context, messages []llm.Message, schema *llm.ResponseSchema) (string, *llm.LLMCallStats, error) {
	f.messages = messages
	f.schema = schema
	if f.err != nil {
		return "", nil, f.err
	}
	return f.content, &llm.LLMCallStats{PromptTokens: 40, CompletionTokens: 12, TotalTokens: 52}, nil
}

func (f *fakeLLM) Model() string { return "gpt-test" }

type tokenCounter map[string]int

func (c tokenCounter) RecordLLMTokens(_ string, tokenType string, count int) {
	c[tokenType] += count
}

const validPayload = `{"summary":"Q3 planning notes.","tags":["Planning"," Q3 ","roadmap"],"followups":["Draft roadmap","Book review","Email team"]}`

func TestAnalyze(t *testing.T) {
	fake := &fakeLLM{content: validPayload}
	tokens := tokenCounter{}
	analyzer := NewAnalyzer(fake, WithTokenRecorder(tokens))

	result, err := analyzer.Analyze(context.Background(), "Planning", "Discuss roadmap")
	require.NoError(t, err)

	assert.Equal(t, "Q3 planning notes.", result.Summary)
	assert.Equal(t, []string{"planning", "q3", "roadmap"}, result.Tags)
	assert.Equal(t, []string{"Draft roadmap", "Book review", "Email team"}, result.Followups)

	require.Len(t, fake.messages, 2)
	assert.Equal(t, "system", fake.messages[0].Role)
	assert.Contains(t, fake.messages[0].Content, "exactly three short, actionable follow-ups")
	assert.Equal(t, "Title: Planning\n\nContent: Discuss roadmap", fake.messages[1].Content)

	require.NotNil(t, fake.schema)
	assert.Equal(t, "NoteAnalysis", fake.schema.Name)
	assert.True(t, fake.schema.Strict)
	assert.ElementsMatch(t, []string{"summary", "tags", "followups"}, fake.schema.Schema.Required)

	assert.Equal(t, 40, tokens["prompt"])
	assert.Equal(t, 12, tokens["completion"])
}

func TestAnalyze_TruncatesLongPrompt(t *testing.T) {
	fake := &fakeLLM{content: validPayload}
	analyzer := NewAnalyzer(fake)

	_, err := analyzer.Analyze(context.Background(), "T", strings.Repeat("z", 20000))
	require.NoError(t, err)

	prompt := fake.messages[1].Content
	assert.Equal(t, ai.MaxInputChars+3, utf8.RuneCountInString(prompt))
	assert.True(t, strings.HasPrefix(prompt, "Title: T\n\nContent: "))
	assert.True(t, strings.HasSuffix(prompt, "..."))
}

func TestAnalyze_ProviderFailure(t *testing.T) {
	fake := &fakeLLM{err: errors.New("connection refused")}
	analyzer := NewAnalyzer(fake)

	result, err := analyzer.Analyze(context.Background(), "T", "B")
	require.ErrorIs(t, err, ai.ErrProvider)
	assert.Nil(t, result)
}

func TestParseAnalysis(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantErr   bool
		wantTags  []string
		wantFirst string
	}{
		{
			name:      "plain json",
			content:   validPayload,
			wantTags:  []string{"planning", "q3", "roadmap"},
			wantFirst: "Draft roadmap",
		},
		{
			name:      "fenced json",
			content:   "```json\n" + validPayload + "\n```",
			wantTags:  []string{"planning", "q3", "roadmap"},
			wantFirst: "Draft roadmap",
		},
		{
			name:    "not json",
			content: "Sure! Here is your analysis.",
			wantErr: true,
		},
		{
			name:    "empty",
			content: "  ",
			wantErr: true,
		},
		{
			name:    "missing followups",
			content: `{"summary":"s","tags":["a","b","c"]}`,
			wantErr: true,
		},
		{
			name:    "missing summary",
			content: `{"tags":["a","b","c"],"followups":["x","y","z"]}`,
			wantErr: true,
		},
		{
			name:    "too few tags after dropping blanks",
			content: `{"summary":"s","tags":["a"," ","b"],"followups":["x","y","z"]}`,
			wantErr: true,
		},
		{
			name:    "too many tags",
			content: `{"summary":"s","tags":["a","b","c","d","e","f","g"],"followups":["x","y","z"]}`,
			wantErr: true,
		},
		{
			name:    "two followups",
			content: `{"summary":"s","tags":["a","b","c"],"followups":["x","y"]}`,
			wantErr: true,
		},
		{
			name:    "followups wrong type",
			content: `{"summary":"s","tags":["a","b","c"],"followups":"x"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAnalysis(tt.content)
			if tt.wantErr {
				require.ErrorIs(t, err, ai.ErrMalformedResponse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTags, got.Tags)
			assert.Equal(t, tt.wantFirst, got.Followups[0])
		})
	}
}

func TestParseAnalysis_ClipsLongFields(t *testing.T) {
	longSummary := strings.Repeat("s", MaxSummaryChars+50)
	longFollowup := strings.Repeat("f", MaxFollowupChars+50)
	content := `{"summary":"` + longSummary + `","tags":["a","b","c"],"followups":["` + longFollowup + `","y","z"]}`

	got, err := parseAnalysis(content)
	require.NoError(t, err)
	assert.Equal(t, MaxSummaryChars, utf8.RuneCountInString(got.Summary))
	assert.Equal(t, MaxFollowupChars, utf8.RuneCountInString(got.Followups[0]))
}
