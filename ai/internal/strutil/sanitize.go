package strutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Sanitize normalizes a query string for downstream embedding and similarity
// search. Tamil/Hindi/mixed-script input is NFKC-normalized, and control
// characters (including NUL and zero-width joiners) are stripped.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}

	s = norm.NFKC.String(s)

	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if r == '‌' || r == '‍' {
			continue
		}
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sb.WriteRune(r)
	}

	return strings.TrimSpace(sb.String())
}
