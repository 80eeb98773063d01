// Package textx provides small text utilities used across the project.
package textx

import (
	"strings"
)

// Sanitize removes control characters except tab/newline/CR and trims spaces.
// Prompt inputs pass through here so user-supplied text cannot smuggle
// terminal control sequences into logs or provider requests.
func Sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r != 127) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// ClampLen truncates s to at most n bytes on a rune boundary, appending an
// ellipsis when anything was cut.
func ClampLen(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
