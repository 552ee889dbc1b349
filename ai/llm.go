package ai

import (
	"github.com/hrygo/notescopilot/ai/core/llm"
)

// Message is a chat message.
type Message = llm.Message

// LLMCallStats is the token usage of one LLM call.
type LLMCallStats = llm.LLMCallStats

// LLMService is the chat completion service.
type LLMService = llm.Service

// NewLLMService creates a new LLMService.
func NewLLMService(cfg *LLMConfig) (LLMService, error) {
	return llm.NewService((*llm.Config)(cfg))
}
