package sanitizer

import (
	"strings"
	"unicode"
)

func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

func NormalizeName(name string) string {
	return TrimAndNormalize(name)
}

// NormalizeNameForComparison is the key two names must share to be considered
// the same room.
func NormalizeNameForComparison(name string) string {
	return strings.ToLower(TrimAndNormalize(name))
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeOptional trims the value in place and returns nil when nothing is left.
func NormalizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	normalized := strings.TrimSpace(*s)
	if normalized == "" {
		return nil
	}
	return &normalized
}
