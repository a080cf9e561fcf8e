package app

import (
	"strings"
	"unicode/utf8"
)

const smallTalkMaxLen = 20

// SmallTalkTriggers are greeting and acknowledgement phrases matched as
// substrings of short queries.
var SmallTalkTriggers = []string{
	"hej", "hej!", "heja", "hejka", "elo", "siema", "siemka", "cześć", "czesc", "witam", "halo", "yo", "yo!",
	"co tam", "jak leci", "jak tam", "jak sie masz", "jak się masz",
	"dzień dobry", "dzien dobry", "dobry wieczór", "dobry wieczor", "ok", "okej", "okey", "thanks", "dzięki", "dzieki", "thx",
}

// SmallTalkReplies are the canned answers to small talk.
var SmallTalkReplies = []string{
	"Hej! Jak mogę pomóc? 😊",
	"Cześć! Wgraj plik i zapytaj o jego treść.",
	"Siema, spróbuję znaleźć odpowiedź w Twoich dokumentach.",
	"Yo! Jakie masz pytanie?",
	"Dzień dobry! O co chcesz zapytać?",
}

// IsSmallTalk reports whether q is a short query containing a trigger phrase.
func IsSmallTalk(q string) bool {
	t := strings.ToLower(strings.TrimSpace(q))
	if utf8.RuneCountInString(t) > smallTalkMaxLen {
		return false
	}
	for _, trigger := range SmallTalkTriggers {
		if strings.Contains(t, trigger) {
			return true
		}
	}
	return false
}

// SmallTalkReply picks a canned reply. pick returns an index in [0, n).
func SmallTalkReply(pick func(n int) int) string {
	return SmallTalkReplies[pick(len(SmallTalkReplies))]
}
