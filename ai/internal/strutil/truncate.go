// Package strutil provides rune-safe string helpers for the ai packages.
package strutil

// Truncate cuts s to maxLen runes and appends "..." when anything was cut.
// Returns empty string if maxLen <= 0.
func Truncate(s string, maxLen int) string {
	clipped := Clip(s, maxLen)
	if len(clipped) < len(s) && maxLen > 0 {
		return clipped + "..."
	}
	return clipped
}

// Clip cuts s to at most maxLen runes without marking the cut.
// Returns empty string if maxLen <= 0.
func Clip(s string, maxLen int) string {
	if s == "" || maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}
