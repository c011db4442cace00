// Package pipeline converts sidecar files into Anki packages one file at a
// time.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mrlokans/koreader-anki/internal/apkg"
	"github.com/mrlokans/koreader-anki/internal/cards"
	"github.com/mrlokans/koreader-anki/internal/entities"
	"github.com/mrlokans/koreader-anki/internal/koreader"
	"github.com/mrlokans/koreader-anki/internal/language"
	"github.com/mrlokans/koreader-anki/internal/utils"
)

// ErrNoHighlights indicates a sidecar file holds nothing to convert
var ErrNoHighlights = errors.New("no highlights found")

// Options configure a batch run.
type Options struct {
	DeckName   string
	OutputPath string
}

// FileResult describes one converted file.
type FileResult struct {
	Source  string
	Package string
	Deck    string
	Notes   int
}

// Report summarizes a batch run.
type Report struct {
	Files     int
	Converted []FileResult
	Skipped   []string
	Failed    map[string]error
}

// Notes is the total number of notes written.
func (r *Report) Notes() int {
	total := 0
	for _, c := range r.Converted {
		total += c.Notes
	}
	return total
}

// Pipeline wires extraction, card assembly and package writing.
type Pipeline struct {
	logger    *slog.Logger
	opts      Options
	extractor *koreader.Extractor
	detector  *language.Detector
	assembler *cards.Assembler
	writer    *apkg.Writer
}

func New(
	logger *slog.Logger,
	opts Options,
	extractor *koreader.Extractor,
	detector *language.Detector,
	assembler *cards.Assembler,
	writer *apkg.Writer,
) *Pipeline {
	if opts.DeckName == "" {
		opts.DeckName = cards.DefaultDeckName
	}
	return &Pipeline{
		logger:    logger,
		opts:      opts,
		extractor: extractor,
		detector:  detector,
		assembler: assembler,
		writer:    writer,
	}
}

// Run processes every path in order. A failing file is logged and
// recorded; the batch continues unless ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context, paths []string) *Report {
	report := &Report{Files: len(paths), Failed: make(map[string]error)}

	for _, path := range paths {
		if ctx.Err() != nil {
			p.logger.Warn("Batch cancelled", "remaining", len(paths)-len(report.Converted)-len(report.Skipped)-len(report.Failed))
			break
		}

		result, err := p.ProcessFile(ctx, path)
		switch {
		case errors.Is(err, ErrNoHighlights):
			p.logger.Warn("No highlights found", "path", path)
			report.Skipped = append(report.Skipped, path)
		case err != nil:
			p.logger.Error("Failed to process file", "path", path, "error", err)
			report.Failed[path] = err
		default:
			report.Converted = append(report.Converted, *result)
		}
	}

	return report
}

// ProcessFile converts a single sidecar file into a package.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) (*FileResult, error) {
	p.logger.Info("Processing file", "path", path)

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sidecar: %w", err)
	}

	source := p.extractor.Extract(ctx, string(raw))
	if source == nil {
		return nil, ErrNoHighlights
	}

	source.Metadata = p.completeMetadata(path, source)
	p.logger.Debug("Extracted highlights",
		"path", path,
		"title", source.Metadata.Title,
		"language", source.Metadata.Language,
		"highlights", len(source.Entries))

	deck, err := cards.BuildDeck(ctx, p.opts.DeckName, source, p.assembler)
	if err != nil {
		return nil, fmt.Errorf("build deck: %w", err)
	}

	written, err := p.writer.Write(deck, p.opts.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("write package: %w", err)
	}

	return &FileResult{
		Source:  path,
		Package: written,
		Deck:    deck.Name,
		Notes:   len(deck.Notes),
	}, nil
}

// completeMetadata fills a missing title or author from the sidecar
// directory name and a missing language by detection.
func (p *Pipeline) completeMetadata(path string, source *entities.ParsedSource) entities.BookMetadata {
	meta := source.Metadata

	if bookName := utils.SidecarBookName(path); bookName != "" {
		if strings.TrimSpace(meta.Title) == "" {
			meta.Title = utils.SidecarTitle(bookName)
		}
		if strings.TrimSpace(meta.Authors) == "" {
			meta.Authors = utils.ExtractAuthorFromFilename(bookName, meta.Title)
		}
	}

	meta.Language = p.detector.Resolve(meta.Language, source.Texts())
	return meta
}
