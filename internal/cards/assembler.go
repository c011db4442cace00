package cards

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mrlokans/koreader-anki/internal/cloze"
	"github.com/mrlokans/koreader-anki/internal/entities"
	"github.com/mrlokans/koreader-anki/internal/importance"
)

// Strategy names how notes are cut from a highlight.
type Strategy string

const (
	// RandomCloze produces one note per sentence with a random window.
	RandomCloze Strategy = "random"
	// AICloze produces one note per highlight, clozing the most important
	// window of every sentence.
	AICloze Strategy = "ai"
)

// Sentences shorter than this are never clozed.
const minSentenceWords = 2

// Assembler builds the notes for one highlight record.
type Assembler struct {
	logger   *slog.Logger
	strategy Strategy
	builder  *cloze.Builder
	scorer   importance.Scorer
	selector *importance.RandomSelector
}

// NewAIAssembler ranks words with scorer.
func NewAIAssembler(logger *slog.Logger, builder *cloze.Builder, scorer importance.Scorer) *Assembler {
	return &Assembler{
		logger:   logger,
		strategy: AICloze,
		builder:  builder,
		scorer:   scorer,
	}
}

// NewRandomAssembler picks windows with selector.
func NewRandomAssembler(logger *slog.Logger, builder *cloze.Builder, selector *importance.RandomSelector) *Assembler {
	return &Assembler{
		logger:   logger,
		strategy: RandomCloze,
		builder:  builder,
		selector: selector,
	}
}

func (a *Assembler) Strategy() Strategy {
	return a.strategy
}

// Assemble returns the notes for record. Scorer failures abort the record.
func (a *Assembler) Assemble(ctx context.Context, record entities.HighlightRecord, meta entities.BookMetadata) ([]Note, error) {
	header := Header(meta, record)
	back := Back(record)
	sentences := cloze.SplitSentences(record.Notes)

	if a.strategy == AICloze {
		text, err := a.clozeByImportance(ctx, record.Notes, sentences, meta.Language)
		if err != nil {
			return nil, err
		}
		return []Note{{Front: header + text, Back: back}}, nil
	}

	var notes []Note
	for _, sentence := range sentences {
		words := cloze.Words(sentence)
		if len(words) < minSentenceWords {
			continue
		}

		span, ok := a.selector.Select(words)
		if !ok {
			continue
		}
		text := a.builder.BuildRandom(record.Notes, sentence, span)
		notes = append(notes, Note{Front: header + text, Back: back})
	}

	return notes, nil
}

func (a *Assembler) clozeByImportance(ctx context.Context, text string, sentences []string, language string) (string, error) {
	a.logger.Debug("Processing highlight sentences", "count", len(sentences))

	clozed := text
	for _, sentence := range sentences {
		words := cloze.Words(sentence)
		if len(words) < minSentenceWords {
			continue
		}

		scores, err := a.scorer.Score(ctx, sentence, language)
		if err != nil {
			return "", fmt.Errorf("rank sentence words: %w", err)
		}
		if len(scores) == 0 {
			continue
		}

		clozed = a.builder.BuildAI(clozed, words, scores[0].Index)
	}

	return clozed, nil
}
