package cli

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/mrlokans/koreader-anki/internal/apkg"
	"github.com/mrlokans/koreader-anki/internal/cards"
	"github.com/mrlokans/koreader-anki/internal/cloze"
	"github.com/mrlokans/koreader-anki/internal/config"
	"github.com/mrlokans/koreader-anki/internal/importance"
	"github.com/mrlokans/koreader-anki/internal/koreader"
	"github.com/mrlokans/koreader-anki/internal/language"
	"github.com/mrlokans/koreader-anki/internal/maskedlm"
	"github.com/mrlokans/koreader-anki/internal/pipeline"
	"github.com/mrlokans/koreader-anki/internal/stopwords"
)

// newAssembler picks the card strategy for a run.
func newAssembler(cfg *config.Config, logger *slog.Logger, useAI bool) *cards.Assembler {
	builder := cloze.NewBuilder(cloze.ReplaceAll)

	if !useAI {
		return cards.NewRandomAssembler(logger, builder, importance.NewRandomSelector(nil))
	}

	client := maskedlm.NewClient(maskedlm.Config{
		BaseURL:     cfg.MaskedLM.URL,
		Model:       cfg.MaskedLM.Model,
		Token:       cfg.MaskedLM.Token,
		Timeout:     cfg.MaskedLM.Timeout,
		MinInterval: cfg.MaskedLM.MinInterval,
	})
	loader := stopwords.NewLoader(logger, cfg.Stopwords.URL, cfg.Stopwords.CacheDir)
	return cards.NewAIAssembler(logger, builder, importance.NewModelScorer(logger, client, loader))
}

// newPipeline wires one pipeline around assembler. The pipeline owns the
// language detector, so callers that run repeatedly keep it and reuse it.
func newPipeline(cfg *config.Config, logger *slog.Logger, opts pipeline.Options, assembler *cards.Assembler) *pipeline.Pipeline {
	return pipeline.New(
		logger,
		opts,
		koreader.NewExtractor(logger, cfg.Extractor.EvalTimeout),
		language.NewDetector(),
		assembler,
		apkg.NewWriter(logger),
	)
}

// ensureOutputFolder creates the output folder and returns its absolute path.
func ensureOutputFolder(folder string) (string, error) {
	abs, err := filepath.Abs(folder)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for output: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return "", fmt.Errorf("failed to create output folder: %w", err)
	}
	return abs, nil
}

func modeName(strategy cards.Strategy) string {
	switch strategy {
	case cards.AICloze:
		return "AI cloze (masked language model)"
	case cards.RandomCloze:
		return "random cloze"
	default:
		return string(strategy)
	}
}

func printReport(out io.Writer, report *pipeline.Report) {
	fmt.Fprintln(out, "\n📊 Conversion Summary")
	fmt.Fprintln(out, "=====================")
	fmt.Fprintf(out, "   Files processed: %d\n", report.Files)
	fmt.Fprintf(out, "   Packages written: %d\n", len(report.Converted))
	fmt.Fprintf(out, "   Notes created: %d\n", report.Notes())
	if len(report.Skipped) > 0 {
		fmt.Fprintf(out, "   Skipped (no highlights): %d\n", len(report.Skipped))
	}
	if len(report.Failed) > 0 {
		fmt.Fprintf(out, "   Failed: %d\n", len(report.Failed))
	}

	for _, result := range report.Converted {
		fmt.Fprintf(out, "   ✓ %s (%d notes) → %s\n", result.Deck, result.Notes, result.Package)
	}
	for _, path := range slices.Sorted(maps.Keys(report.Failed)) {
		fmt.Fprintf(out, "   ✗ %s: %v\n", path, report.Failed[path])
	}
}
