package cloze

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextWindow(t *testing.T) {
	words := Words("one two three four five six seven eight")

	tests := []struct {
		name     string
		center   int
		expected string
	}{
		{name: "middle", center: 3, expected: "two three four five six seven"},
		{name: "clamped at start", center: 0, expected: "one two three four"},
		{name: "clamped at end", center: 7, expected: "six seven eight"},
		{name: "second word", center: 1, expected: "one two three four five"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			span := ContextWindow(words, tt.center)
			assert.Equal(t, tt.expected, span.Text)
			assert.LessOrEqual(t, span.Len(), 6)
			assert.GreaterOrEqual(t, span.Len(), 1)
		})
	}

	assert.Equal(t, "alone", ContextWindow([]string{"alone"}, 0).Text)
}

func TestBuilder_MarkInText_Accumulates(t *testing.T) {
	b := NewBuilder(ReplaceAll)
	text := "The cat sat. The dog ran quickly away."

	text = b.MarkInText(text, NewSpan(Words("The cat sat."), 0, 2))
	text = b.MarkInText(text, NewSpan(Words("The dog ran quickly away."), 2, 4))

	assert.Equal(t, "{{c1::The cat}} sat. The dog {{c1::ran quickly}} away.", text)
}

func TestBuilder_BuildRandom(t *testing.T) {
	b := NewBuilder(ReplaceAll)
	full := "The cat sat. The dog ran quickly away."
	sentence := "The dog ran quickly away."

	marked := b.BuildRandom(full, sentence, NewSpan(Words(sentence), 0, 2))

	assert.Equal(t, "The cat sat. {{c1::The dog}} ran quickly away.", marked, "only the chosen sentence is marked")
	assert.Equal(t, full, StripMarkers(marked))
}

func TestBuilder_BuildRandom_SpanNotFound(t *testing.T) {
	b := NewBuilder(ReplaceAll)
	sentence := "irregular  spacing here."
	full := "Intro. " + sentence

	// Joined words use single spaces and cannot be located.
	marked := b.BuildRandom(full, sentence, NewSpan(Words(sentence), 0, 2))

	assert.Equal(t, full, marked)
}

func TestBuilder_BuildAI(t *testing.T) {
	b := NewBuilder(ReplaceAll)
	text := "The cat sat. The dog ran quickly away from home."
	words := Words("The dog ran quickly away from home.")

	marked := b.BuildAI(text, words, 3)

	assert.Equal(t, "The cat sat. The {{c1::dog ran quickly away from home.}}", marked)
	assert.Equal(t, text, b.BuildAI(text, words, 42))
	assert.Equal(t, text, StripMarkers(marked))
}
