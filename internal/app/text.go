package app

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minTokenLen  = 3
	maxSentences = 2
)

var tokenPattern = regexp.MustCompile(`[a-zA-Z0-9ąćęłńóśźżĄĆĘŁŃÓŚŹŻ]+`)

// Tokens returns the lowercased alphanumeric runs of s that are at least
// three characters long. Polish letters count as word characters.
func Tokens(s string) []string {
	var out []string
	for _, t := range tokenPattern.FindAllString(strings.ToLower(s), -1) {
		if utf8.RuneCountInString(t) >= minTokenLen {
			out = append(out, t)
		}
	}
	return out
}

// containsAnyToken reports whether lowered contains one of keys. No keys
// always matches.
func containsAnyToken(lowered string, keys []string) bool {
	if len(keys) == 0 {
		return true
	}
	for _, k := range keys {
		if strings.Contains(lowered, k) {
			return true
		}
	}
	return false
}

// SplitSentences cuts text at whitespace that directly follows '.', '!' or
// '?'. The punctuation stays with the preceding sentence. Blank input yields
// one empty sentence.
func SplitSentences(text string) []string {
	runes := []rune(strings.TrimSpace(text))
	var out []string
	start := 0
	for i := 1; i < len(runes); i++ {
		if !unicode.IsSpace(runes[i]) || !isSentenceEnd(runes[i-1]) {
			continue
		}
		j := i
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		out = append(out, string(runes[start:i]))
		start = j
		i = j - 1
	}
	return append(out, string(runes[start:]))
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// PickSentences returns up to two sentences of text mentioning a query token,
// in their original order, or the first sentence when none does.
func PickSentences(query, text string) string {
	keys := Tokens(query)
	sentences := SplitSentences(text)

	var hits []string
	for _, s := range sentences {
		if containsAnyToken(strings.ToLower(s), keys) {
			hits = append(hits, strings.TrimSpace(s))
		}
		if len(hits) >= maxSentences {
			break
		}
	}
	if len(hits) > 0 {
		return strings.Join(hits, " ")
	}
	return strings.TrimSpace(sentences[0])
}
