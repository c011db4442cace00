package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mrlokans/koreader-anki/internal/apkg"
)

// InspectCommand prints the decks and notes of an .apkg file as YAML
type InspectCommand struct {
	PackagePath string
	Limit       int

	stdout io.Writer
}

// NewInspectCommand creates a new InspectCommand
func NewInspectCommand() *InspectCommand {
	return &InspectCommand{stdout: os.Stdout}
}

// ParseFlags parses command line flags. The package path may be given
// with -file or as the first positional argument.
func (cmd *InspectCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)

	fs.StringVar(&cmd.PackagePath, "file", "", "Path to the .apkg file")
	fs.IntVar(&cmd.Limit, "limit", 0, "Show at most this many notes (0 = all)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s inspect [options] <package.apkg>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Print the decks and notes stored in an Anki package.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s inspect anki/Dune_Frank_Herbert.apkg\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s inspect -limit 5 -file anki/Dune_Frank_Herbert.apkg\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.PackagePath == "" && fs.NArg() > 0 {
		cmd.PackagePath = fs.Arg(0)
	}
	if cmd.PackagePath == "" {
		return errors.New("package path is required")
	}
	if cmd.Limit < 0 {
		return errors.New("limit must not be negative")
	}
	return nil
}

// Run executes the inspect command
func (cmd *InspectCommand) Run() error {
	pkg, err := apkg.Read(cmd.PackagePath)
	if err != nil {
		return err
	}

	if cmd.Limit > 0 && len(pkg.Notes) > cmd.Limit {
		pkg.Notes = pkg.Notes[:cmd.Limit]
	}

	enc := yaml.NewEncoder(cmd.stdout)
	enc.SetIndent(2)
	if err := enc.Encode(pkg); err != nil {
		return fmt.Errorf("failed to encode package: %w", err)
	}
	return enc.Close()
}
