// Package importance ranks the words of a sentence by how much unique
// information they carry, and picks random cloze windows when no model is
// used.
package importance

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"unicode"

	"github.com/mrlokans/koreader-anki/internal/maskedlm"
	"github.com/mrlokans/koreader-anki/internal/stopwords"
)

// WordScore is the importance of the word at Index in its sentence.
type WordScore struct {
	Word  string
	Index int
	Score float64
}

// Scorer ranks the content words of a sentence, most important first.
type Scorer interface {
	Score(ctx context.Context, sentence, language string) ([]WordScore, error)
}

// StopwordSource yields the stopword set for a language.
type StopwordSource interface {
	For(ctx context.Context, language string) stopwords.Set
}

// ModelScorer scores a word as one minus the probability a masked
// language model assigns to it when it is hidden.
type ModelScorer struct {
	logger    *slog.Logger
	predictor maskedlm.Predictor
	stopwords StopwordSource
}

var (
	_ Scorer         = (*ModelScorer)(nil)
	_ StopwordSource = (*stopwords.Loader)(nil)
)

func NewModelScorer(logger *slog.Logger, predictor maskedlm.Predictor, stopwords StopwordSource) *ModelScorer {
	return &ModelScorer{
		logger:    logger,
		predictor: predictor,
		stopwords: stopwords,
	}
}

// Score returns the ranking of alphabetic non-stopword tokens, sorted by
// descending score with ties kept in sentence order.
func (s *ModelScorer) Score(ctx context.Context, sentence, language string) ([]WordScore, error) {
	s.logger.Debug("Scoring sentence", "sentence", sentence, "language", language)

	stop := s.stopwords.For(ctx, language)
	words := strings.Fields(sentence)

	var scores []WordScore
	for i, word := range words {
		if !IsAlphabetic(word) || stop.Contains(word) {
			continue
		}

		masked := make([]string, len(words))
		copy(masked, words)
		masked[i] = maskedlm.MaskToken

		p, err := s.predictor.Probability(ctx, strings.Join(masked, " "), word)
		if err != nil {
			return nil, fmt.Errorf("score %q: %w", word, err)
		}

		scores = append(scores, WordScore{
			Word:  word,
			Index: i,
			Score: 1 - clamp01(p),
		})
	}

	slices.SortStableFunc(scores, func(a, b WordScore) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})

	return scores, nil
}

// IsAlphabetic reports whether word is non-empty and made of letters only.
func IsAlphabetic(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func clamp01(p float64) float64 {
	return max(0, min(1, p))
}
