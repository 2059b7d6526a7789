package session

import (
	"strings"
	"unicode"
)

// DefaultEndIntentKeywords are phrases that mean the candidate wants to finish early. Each names
// the interview itself so ordinary answers ("I want to stop gambling") never match.
var DefaultEndIntentKeywords = []string{
	"end the interview",
	"end this interview",
	"stop the interview",
	"stop this interview",
	"finish the interview",
	"finish this interview",
	"quit the interview",
	"quit this interview",
	"terminate the interview",
	"i'm done with the interview",
	"i am done with the interview",
	"i don't want to continue the interview",
	"i do not want to continue the interview",
}

// negations that cancel a phrase when they appear in the few words before it
var negations = map[string]bool{
	"not":      true,
	"don't":    true,
	"dont":     true,
	"never":    true,
	"won't":    true,
	"wouldn't": true,
	"can't":    true,
	"cannot":   true,
	"no":       true,
}

const negationWindow = 3

// intentDetector matches whole keyword phrases in normalized candidate text
type intentDetector struct {
	phrases [][]string
}

func newIntentDetector(keywords []string) intentDetector {
	phrases := make([][]string, 0, len(keywords))
	for _, k := range keywords {
		if words := strings.Fields(normalizeText(k)); len(words) > 0 {
			phrases = append(phrases, words)
		}
	}
	return intentDetector{phrases: phrases}
}

func (d intentDetector) wantsToEnd(text string) bool {
	words := strings.Fields(normalizeText(text))
	for _, phrase := range d.phrases {
		for i := 0; i+len(phrase) <= len(words); i++ {
			if matchesAt(words, phrase, i) && !negated(words, i) {
				return true
			}
		}
	}
	return false
}

func matchesAt(words, phrase []string, at int) bool {
	for j, w := range phrase {
		if words[at+j] != w {
			return false
		}
	}
	return true
}

func negated(words []string, at int) bool {
	for i := max(0, at-negationWindow); i < at; i++ {
		if negations[words[i]] {
			return true
		}
	}
	return false
}

// normalizeText lowercases, unifies apostrophes and collapses punctuation and whitespace runs
func normalizeText(s string) string {
	s = strings.ToLower(strings.ReplaceAll(s, "’", "'"))
	var b strings.Builder
	space := true
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'':
			b.WriteRune(r)
			space = false
		case !space:
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}
