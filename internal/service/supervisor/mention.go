package supervisor

import (
	"strings"
	"unicode"

	"github.com/ggoncalves17/Digital-Twin-AI-ChatBot/internal/service/ai"
)

// tokenize lowercases s and splits it on anything that is not a letter or digit.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// containsRun reports whether needle occurs as a contiguous run of tokens in haystack.
func containsRun(haystack, needle []string) bool {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return false
	}
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j, tok := range needle {
			if haystack[i+j] != tok {
				continue outer
			}
		}
		return true
	}
	return false
}

// directMention returns the first persona, in catalog order, whose whole name
// appears in the question as complete words.
func directMention(question string, catalog []ai.Briefing) (ai.Briefing, bool) {
	words := tokenize(question)
	for _, b := range catalog {
		if containsRun(words, tokenize(b.Name)) {
			return b, true
		}
	}
	return ai.Briefing{}, false
}
