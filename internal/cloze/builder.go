// Package cloze splits highlight text into sentences and marks cloze
// deletions in it.
package cloze

import "strings"

const (
	// Words kept before and after the pivot word in a context window.
	contextBefore = 2
	contextAfter  = 3
)

// Span is the half-open word range [Start, End) of a sentence together
// with its text, the words joined by single spaces.
type Span struct {
	Start int
	End   int
	Text  string
}

// NewSpan builds the span covering words[start:end].
func NewSpan(words []string, start, end int) Span {
	return Span{Start: start, End: end, Text: strings.Join(words[start:end], " ")}
}

func (s Span) Len() int {
	return s.End - s.Start
}

// ContextWindow returns the span around words[center] reaching up to two
// words before and three words after it, clamped to the sentence.
func ContextWindow(words []string, center int) Span {
	start := max(0, center-contextBefore)
	end := min(len(words), center+contextAfter+1)
	return NewSpan(words, start, end)
}

// Builder marks spans in highlight text.
type Builder struct {
	policy MarkerPolicy
}

func NewBuilder(policy MarkerPolicy) *Builder {
	return &Builder{policy: policy}
}

// MarkInText wraps the span wherever the policy allows in text, which may
// already carry markers from earlier sentences of the same highlight.
func (b *Builder) MarkInText(text string, span Span) string {
	return b.policy.Apply(text, span.Text)
}

// BuildAI marks the context window around words[pivot] of a sentence in
// the cumulative highlight text.
func (b *Builder) BuildAI(text string, words []string, pivot int) string {
	if pivot < 0 || pivot >= len(words) {
		return text
	}
	return b.MarkInText(text, ContextWindow(words, pivot))
}

// BuildRandom wraps the span inside sentence only, then substitutes the
// marked sentence back into fullText.
func (b *Builder) BuildRandom(fullText, sentence string, span Span) string {
	marked := b.policy.Apply(sentence, span.Text)
	if marked == sentence {
		return fullText
	}
	return b.policy.Substitute(fullText, sentence, marked)
}
