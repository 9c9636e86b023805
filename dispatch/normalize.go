package dispatch

import (
	"strings"
	"unicode"
)

// normalizedQuestion is a question lowercased, with punctuation replaced by spaces and
// apostrophes dropped ("what's" becomes "whats").
type normalizedQuestion struct {
	text   string
	tokens map[string]bool
}

func normalize(question string) normalizedQuestion {
	var builder strings.Builder
	for _, char := range strings.ToLower(question) {
		switch {
		case char == '\'' || char == '’':
			continue
		case unicode.IsLetter(char) || unicode.IsDigit(char):
			builder.WriteRune(char)
		default:
			builder.WriteRune(' ')
		}
	}

	words := strings.Fields(builder.String())
	tokens := make(map[string]bool, len(words))
	for _, word := range words {
		tokens[word] = true
	}

	return normalizedQuestion{text: strings.Join(words, " "), tokens: tokens}
}

func (question normalizedQuestion) hasAnyToken(tokens ...string) bool {
	for _, token := range tokens {
		if question.tokens[token] {
			return true
		}
	}
	return false
}

// hasPhrase matches whole words only, so "hourly" does not match "hour".
func (question normalizedQuestion) hasPhrase(phrase string) bool {
	return strings.Contains(" "+question.text+" ", " "+phrase+" ")
}

func (question normalizedQuestion) hasAnyPhrase(phrases ...string) bool {
	for _, phrase := range phrases {
		if question.hasPhrase(phrase) {
			return true
		}
	}
	return false
}
