package ai

import (
	"errors"
	"fmt"

	"github.com/hrygo/notescopilot/ai/internal/strutil"
)

var (
	// ErrProvider marks failures talking to the model provider:
	// transport, auth, timeout or an unusable embedding payload.
	ErrProvider = errors.New("provider error")
	// ErrMalformedResponse marks analysis output that does not match the expected structure.
	ErrMalformedResponse = errors.New("malformed provider response")
)

// MaxInputChars bounds the text sent to the provider for a single call.
const MaxInputChars = 8000

// TruncateInput cuts text to MaxInputChars runes and appends "..." when it was longer.
func TruncateInput(text string) string {
	return strutil.Truncate(text, MaxInputChars)
}

// ProviderError wraps err so that errors.Is(err, ErrProvider) holds.
func ProviderError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrProvider, err)
}

// MalformedResponse builds an error matching ErrMalformedResponse.
func MalformedResponse(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedResponse, fmt.Sprintf(format, args...))
}
