package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mrlokans/koreader-anki/internal/cli"
	"github.com/mrlokans/koreader-anki/internal/config"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

type flagParser interface {
	ParseFlags(args []string) error
}

func main() {
	// A missing .env file is fine; the environment still applies.
	_ = godotenv.Load()

	cfg := config.NewConfig()

	level := new(slog.LevelVar)
	level.Set(cfg.Logging.SlogLevel())
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// No command or bare flags means "convert".
	command := "convert"
	args := os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		command, args = args[0], args[1:]
	}

	var err error
	switch command {
	case "convert":
		cmd := cli.NewConvertCommand(cfg, logger, level)
		if err = parse(cmd, args); err == nil {
			err = cmd.Run(ctx)
		}

	case "watch":
		cmd := cli.NewWatchCommand(cfg, logger, level)
		if err = parse(cmd, args); err == nil {
			err = cmd.Run(ctx)
		}

	case "inspect":
		cmd := cli.NewInspectCommand()
		if err = parse(cmd, args); err == nil {
			err = cmd.Run()
		}

	case "version":
		fmt.Printf("koreader-anki %s (%s)\n", Version, Commit)

	case "help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// parse treats -h as a successful exit.
func parse(cmd flagParser, args []string) error {
	err := cmd.ParseFlags(args)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	return err
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [command] [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  convert   Convert KOReader metadata.*.lua files into .apkg packages (default)\n")
	fmt.Fprintf(os.Stderr, "  watch     Convert changed files on a cron schedule until interrupted\n")
	fmt.Fprintf(os.Stderr, "  inspect   Print the decks and notes of an .apkg file\n")
	fmt.Fprintf(os.Stderr, "  version   Show version information\n")
	fmt.Fprintf(os.Stderr, "\nSettings are read from the environment and an optional .env file:\n")
	fmt.Fprintf(os.Stderr, "  INPUT_FOLDER, OUTPUT_FOLDER, DECK_NAME, USE_AI, MASKED_LM_URL, MASKED_LM_MODEL,\n")
	fmt.Fprintf(os.Stderr, "  MASKED_LM_TOKEN, STOPWORDS_URL, STOPWORDS_CACHE_DIR, WATCH_SCHEDULE, LOG_LEVEL\n")
	fmt.Fprintf(os.Stderr, "\nUse '%s <command> -h' for help on a specific command.\n", os.Args[0])
}
