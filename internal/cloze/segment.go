package cloze

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SplitSentences splits text after '.', '!', '?' or ';' when followed by
// whitespace. The punctuation stays with the sentence it ends and the
// whitespace between sentences is dropped; nothing else is trimmed.
func SplitSentences(text string) []string {
	var sentences []string
	start := 0

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !unicode.IsSpace(r) || i == 0 || !endsSentence(text[:i]) {
			i += size
			continue
		}

		sentences = append(sentences, text[start:i])
		for i < len(text) {
			r, size = utf8.DecodeRuneInString(text[i:])
			if !unicode.IsSpace(r) {
				break
			}
			i += size
		}
		start = i
	}

	return append(sentences, text[start:])
}

func endsSentence(prefix string) bool {
	r, _ := utf8.DecodeLastRuneInString(prefix)
	return strings.ContainsRune(".!?;", r)
}

// Words splits a sentence on whitespace.
func Words(sentence string) []string {
	return strings.Fields(sentence)
}
