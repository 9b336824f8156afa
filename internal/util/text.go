package util

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	ordinalRe    = regexp.MustCompile(`^\d+\.\s+`)
)

// Normalize collapses whitespace runs to single spaces and trims the ends.
// Idempotent, returns "" for empty input.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// NormalizeQuestionKey canonicalizes question text for cache lookups:
// whitespace like Normalize, plus leading "<n>. " ordinals stripped so the
// same question matches regardless of its position in the quiz.
func NormalizeQuestionKey(s string) string {
	key := Normalize(s)
	for {
		stripped := ordinalRe.ReplaceAllString(key, "")
		if stripped == key {
			return key
		}
		key = stripped
	}
}
