package importance

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/koreader-anki/internal/maskedlm"
	"github.com/mrlokans/koreader-anki/internal/stopwords"
)

type fakePredictor struct {
	probabilities map[string]float64
	calls         []string
	err           error
}

func (f *fakePredictor) Probability(_ context.Context, masked, word string) (float64, error) {
	f.calls = append(f.calls, masked)
	if f.err != nil {
		return 0, f.err
	}
	return f.probabilities[strings.ToLower(word)], nil
}

type fakeStopwords map[string]stopwords.Set

func (f fakeStopwords) For(_ context.Context, language string) stopwords.Set {
	if set, ok := f[stopwords.Normalize(language)]; ok {
		return set
	}
	return f["en"]
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func embeddedStopwords() StopwordSource {
	return stopwords.NewLoader(discardLogger(), "", "")
}

func TestModelScorer_RanksByUnpredictability(t *testing.T) {
	predictor := &fakePredictor{probabilities: map[string]float64{
		"cat": 0.6,
		"sat": 0.9,
		"mat": 0.2,
	}}
	scorer := NewModelScorer(discardLogger(), predictor, embeddedStopwords())

	scores, err := scorer.Score(context.Background(), "The cat sat on the mat", "en")

	require.NoError(t, err)
	require.Len(t, scores, 3)
	assert.Equal(t, "mat", scores[0].Word)
	assert.Equal(t, 5, scores[0].Index)
	assert.InDelta(t, 0.8, scores[0].Score, 1e-9)
	assert.Equal(t, "cat", scores[1].Word)
	assert.Equal(t, "sat", scores[2].Word)

	assert.Contains(t, predictor.calls, "The [MASK] sat on the mat")
	assert.Contains(t, predictor.calls, "The cat sat on the [MASK]")
}

func TestModelScorer_NeverScoresStopwordsOrNonAlphabetic(t *testing.T) {
	sets := fakeStopwords{
		"en": {"the": {}, "on": {}},
		"fr": {"le": {}, "sur": {}},
		"de": {"der": {}, "auf": {}},
	}

	tests := []struct {
		language string
		sentence string
	}{
		{"en-US", "The cat, sat on the 2nd mat. Really well"},
		{"en", "THE dog ran ON and on"},
		{"fr", "Le chat est sur le tapis 42 fois."},
		{"de", "Der Hund liegt auf der Matte!"},
		{"xx", "The unknown locale uses english on purpose"},
	}

	for _, tt := range tests {
		t.Run(tt.language, func(t *testing.T) {
			scorer := NewModelScorer(discardLogger(), &fakePredictor{}, sets)
			scores, err := scorer.Score(context.Background(), tt.sentence, tt.language)
			require.NoError(t, err)

			stop := sets.For(context.Background(), tt.language)
			for _, s := range scores {
				assert.True(t, IsAlphabetic(s.Word), "non-alphabetic %q", s.Word)
				assert.False(t, stop.Contains(s.Word), "stopword %q", s.Word)
				assert.Equal(t, s.Word, strings.Fields(tt.sentence)[s.Index])
			}
		})
	}
}

func TestModelScorer_StableTies(t *testing.T) {
	scorer := NewModelScorer(discardLogger(), &fakePredictor{}, fakeStopwords{"en": {}})

	scores, err := scorer.Score(context.Background(), "alpha beta gamma", "en")

	require.NoError(t, err)
	require.Len(t, scores, 3)
	for i, s := range scores {
		assert.Equal(t, i, s.Index)
		assert.InDelta(t, 1.0, s.Score, 1e-9)
	}
}

func TestModelScorer_AllFiltered(t *testing.T) {
	predictor := &fakePredictor{}
	scorer := NewModelScorer(discardLogger(), predictor, embeddedStopwords())

	scores, err := scorer.Score(context.Background(), "and the of 123 ...", "en")

	require.NoError(t, err)
	assert.Empty(t, scores)
	assert.Empty(t, predictor.calls)
}

func TestModelScorer_PropagatesModelErrors(t *testing.T) {
	scorer := NewModelScorer(discardLogger(), &fakePredictor{err: maskedlm.ErrRateLimited}, embeddedStopwords())

	_, err := scorer.Score(context.Background(), "Productivity matters", "en")

	assert.True(t, errors.Is(err, maskedlm.ErrRateLimited))
}

func TestIsAlphabetic(t *testing.T) {
	tests := []struct {
		word     string
		expected bool
	}{
		{"word", true},
		{"Élan", true},
		{"кошка", true},
		{"word.", false},
		{"don't", false},
		{"42", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsAlphabetic(tt.word))
		})
	}
}
