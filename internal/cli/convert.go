package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mrlokans/koreader-anki/internal/config"
	"github.com/mrlokans/koreader-anki/internal/pipeline"
	"github.com/mrlokans/koreader-anki/internal/scanner"
)

// ConvertCommand turns KOReader sidecar files into Anki packages
type ConvertCommand struct {
	InputFolder  string
	OutputFolder string
	DeckName     string
	NoAI         bool
	Select       bool
	Verbose      bool

	cfg    *config.Config
	logger *slog.Logger
	level  *slog.LevelVar
	stdin  io.Reader
	stdout io.Writer
}

// NewConvertCommand creates a new ConvertCommand. level may be nil.
func NewConvertCommand(cfg *config.Config, logger *slog.Logger, level *slog.LevelVar) *ConvertCommand {
	return &ConvertCommand{
		cfg:    cfg,
		logger: logger,
		level:  level,
		stdin:  os.Stdin,
		stdout: os.Stdout,
	}
}

// ParseFlags parses command line flags
func (cmd *ConvertCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)

	fs.StringVar(&cmd.InputFolder, "input", cmd.cfg.Input.Folder, "Folder searched recursively for metadata.*.lua files")
	fs.StringVar(&cmd.InputFolder, "i", cmd.cfg.Input.Folder, "Shorthand for -input")
	fs.StringVar(&cmd.OutputFolder, "output", cmd.cfg.Output.Folder, "Folder for the generated .apkg files")
	fs.StringVar(&cmd.OutputFolder, "o", cmd.cfg.Output.Folder, "Shorthand for -output")
	fs.StringVar(&cmd.DeckName, "deck-name", cmd.cfg.Cards.DeckName, "Parent deck name")
	fs.StringVar(&cmd.DeckName, "n", cmd.cfg.Cards.DeckName, "Shorthand for -deck-name")
	fs.BoolVar(&cmd.NoAI, "no-ai", !cmd.cfg.Cards.UseAI, "Pick cloze words at random instead of asking the language model")
	fs.BoolVar(&cmd.Select, "select", false, "Choose which files to convert")
	fs.BoolVar(&cmd.Select, "s", false, "Shorthand for -select")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s convert [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Convert KOReader highlights into Anki cloze decks.\n\n")
		fmt.Fprintf(os.Stderr, "This command:\n")
		fmt.Fprintf(os.Stderr, "  1. Finds metadata.*.lua files under the input folder\n")
		fmt.Fprintf(os.Stderr, "  2. Turns every highlight into one or more cloze notes\n")
		fmt.Fprintf(os.Stderr, "  3. Writes one .apkg package per book to the output folder\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s convert -i ~/Books\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s convert -i ~/Books -o ~/Anki -no-ai\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s convert -i ~/Books -s -n \"Reading\"\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.InputFolder == "" {
		return errors.New("input folder is required (use -input or INPUT_FOLDER)")
	}
	if cmd.Verbose && cmd.level != nil {
		cmd.level.Set(slog.LevelDebug)
	}
	return nil
}

// Run executes the convert command
func (cmd *ConvertCommand) Run(ctx context.Context) error {
	fmt.Fprintln(cmd.stdout, "📖 KOReader → Anki")
	fmt.Fprintln(cmd.stdout, "==================")

	files, err := scanner.FindMetadataFiles(ctx, cmd.InputFolder)
	if err != nil {
		return err
	}

	outputFolder, err := ensureOutputFolder(cmd.OutputFolder)
	if err != nil {
		return err
	}

	assembler := newAssembler(cmd.cfg, cmd.logger, !cmd.NoAI)
	fmt.Fprintf(cmd.stdout, "📁 Input: %s\n", cmd.InputFolder)
	fmt.Fprintf(cmd.stdout, "📁 Output: %s\n", outputFolder)
	fmt.Fprintf(cmd.stdout, "🃏 Mode: %s\n", modeName(assembler.Strategy()))
	fmt.Fprintf(cmd.stdout, "🔍 Found %d metadata files\n", len(files))

	paths := scanner.Paths(files)
	if cmd.Select {
		paths, err = SelectFiles(cmd.stdin, cmd.stdout, paths)
		if err != nil {
			return err
		}
	}

	p := newPipeline(cmd.cfg, cmd.logger, pipeline.Options{
		DeckName:   cmd.DeckName,
		OutputPath: outputFolder,
	}, assembler)

	report := p.Run(ctx, paths)
	printReport(cmd.stdout, report)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("conversion interrupted: %w", err)
	}

	fmt.Fprintln(cmd.stdout, "\n✅ Conversion complete!")
	return nil
}
