package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/mrlokans/koreader-anki/internal/cards"
	"github.com/mrlokans/koreader-anki/internal/config"
	"github.com/mrlokans/koreader-anki/internal/pipeline"
	"github.com/mrlokans/koreader-anki/internal/scanner"
	"github.com/mrlokans/koreader-anki/internal/scheduler"
)

// WatchCommand re-runs the conversion on a cron schedule, picking up only
// sidecar files changed since the previous run.
type WatchCommand struct {
	InputFolder  string
	OutputFolder string
	DeckName     string
	Schedule     string
	NoAI         bool
	SkipFirstRun bool
	Verbose      bool

	cfg    *config.Config
	logger *slog.Logger
	level  *slog.LevelVar
	stdout io.Writer

	mu        sync.Mutex
	lastRun   time.Time
	assembler *cards.Assembler
	converter *pipeline.Pipeline
}

// NewWatchCommand creates a new WatchCommand. level may be nil.
func NewWatchCommand(cfg *config.Config, logger *slog.Logger, level *slog.LevelVar) *WatchCommand {
	return &WatchCommand{
		cfg:    cfg,
		logger: logger,
		level:  level,
		stdout: os.Stdout,
	}
}

// ParseFlags parses command line flags
func (cmd *WatchCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)

	fs.StringVar(&cmd.InputFolder, "input", cmd.cfg.Input.Folder, "Folder searched recursively for metadata.*.lua files")
	fs.StringVar(&cmd.InputFolder, "i", cmd.cfg.Input.Folder, "Shorthand for -input")
	fs.StringVar(&cmd.OutputFolder, "output", cmd.cfg.Output.Folder, "Folder for the generated .apkg files")
	fs.StringVar(&cmd.OutputFolder, "o", cmd.cfg.Output.Folder, "Shorthand for -output")
	fs.StringVar(&cmd.DeckName, "deck-name", cmd.cfg.Cards.DeckName, "Parent deck name")
	fs.StringVar(&cmd.DeckName, "n", cmd.cfg.Cards.DeckName, "Shorthand for -deck-name")
	fs.StringVar(&cmd.Schedule, "schedule", cmd.cfg.Watch.Schedule, "Cron schedule (5 fields)")
	fs.BoolVar(&cmd.NoAI, "no-ai", !cmd.cfg.Cards.UseAI, "Pick cloze words at random instead of asking the language model")
	fs.BoolVar(&cmd.SkipFirstRun, "skip-first-run", false, "Wait for the first scheduled run instead of converting immediately")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s watch [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Convert changed KOReader sidecar files on a schedule until interrupted.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s watch -i ~/Books\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s watch -i ~/Books -schedule \"*/15 * * * *\"\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.InputFolder == "" {
		return errors.New("input folder is required (use -input or INPUT_FOLDER)")
	}
	if err := scheduler.ValidateCronSchedule(cmd.Schedule); err != nil {
		return err
	}
	if cmd.Verbose && cmd.level != nil {
		cmd.level.Set(slog.LevelDebug)
	}
	return nil
}

// Run starts the scheduler and blocks until ctx is cancelled.
func (cmd *WatchCommand) Run(ctx context.Context) error {
	fmt.Fprintln(cmd.stdout, "👀 KOReader → Anki (watch)")
	fmt.Fprintln(cmd.stdout, "==========================")

	outputFolder, err := ensureOutputFolder(cmd.OutputFolder)
	if err != nil {
		return err
	}
	cmd.OutputFolder = outputFolder

	fmt.Fprintf(cmd.stdout, "📁 Input: %s\n", cmd.InputFolder)
	fmt.Fprintf(cmd.stdout, "📁 Output: %s\n", cmd.OutputFolder)
	cmd.sharedPipeline()
	fmt.Fprintf(cmd.stdout, "🃏 Mode: %s\n", modeName(cmd.assembler.Strategy()))
	fmt.Fprintf(cmd.stdout, "⏰ Schedule: %s (%s)\n", cmd.Schedule, scheduler.GetCronDescription(cmd.Schedule))

	s := scheduler.NewConvertScheduler(cmd.logger, cmd.Schedule, cmd.convertChanged)

	if !cmd.SkipFirstRun {
		status := s.RunNow(ctx)
		cmd.printStatus(status)
	}

	if err := s.Start(ctx); err != nil {
		return err
	}
	if next := s.GetNextRunTime(); next != nil {
		fmt.Fprintf(cmd.stdout, "⏭️  Next run: %s\n", next.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintln(cmd.stdout, "Press Ctrl+C to stop.")

	<-ctx.Done()
	s.Stop()

	fmt.Fprintln(cmd.stdout, "\n👋 Watch stopped")
	return nil
}

// convertChanged is the scheduled job: it converts the sidecar files
// modified since the previous successful scan.
func (cmd *WatchCommand) convertChanged(ctx context.Context) (string, error) {
	started := time.Now()

	files, err := scanner.FindMetadataFiles(ctx, cmd.InputFolder)
	if errors.Is(err, scanner.ErrNoMetadataFiles) {
		return "no metadata files found", nil
	}
	if err != nil {
		return "", err
	}

	cmd.mu.Lock()
	since := cmd.lastRun
	cmd.mu.Unlock()

	changed := scanner.ModifiedSince(files, since)
	if len(changed) == 0 {
		return "no changed files", nil
	}

	report := cmd.sharedPipeline().Run(ctx, scanner.Paths(changed))

	cmd.mu.Lock()
	cmd.lastRun = started
	cmd.mu.Unlock()

	msg := fmt.Sprintf("converted %d of %d changed files, %d notes", len(report.Converted), len(changed), report.Notes())
	if len(report.Failed) > 0 {
		return msg, fmt.Errorf("%d files failed", len(report.Failed))
	}
	return msg, nil
}

// sharedPipeline builds the conversion pipeline on first use and reuses it on
// every later run, so the stopword corpus and language models load once
// per watch session.
func (cmd *WatchCommand) sharedPipeline() *pipeline.Pipeline {
	cmd.mu.Lock()
	defer cmd.mu.Unlock()

	if cmd.converter == nil {
		cmd.assembler = newAssembler(cmd.cfg, cmd.logger, !cmd.NoAI)
		cmd.converter = newPipeline(cmd.cfg, cmd.logger, pipeline.Options{
			DeckName:   cmd.DeckName,
			OutputPath: cmd.OutputFolder,
		}, cmd.assembler)
	}
	return cmd.converter
}

func (cmd *WatchCommand) printStatus(status scheduler.Status) {
	if status.Success {
		fmt.Fprintf(cmd.stdout, "✅ %s (%s)\n", status.Message, status.Duration.Round(time.Millisecond))
		return
	}
	fmt.Fprintf(cmd.stdout, "❌ %s\n", status.Message)
}
