package cli

import (
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the eventchain CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "eventchain",
		Short: "eventchain - store a filtered transaction stream in SQLite",
		Long: `Persist a stream of transaction events into a local SQLite database.

The tables follow the "project" clause of the project's config file: every
projected field becomes a column, and columns are added as the config grows.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewStartCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))

	return cmd
}

// setupLogging installs the process-wide slog handler on stderr.
func setupLogging(opts *RootOptions) {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

// projectDir returns the directory argument, defaulting to the working
// directory.
func projectDir(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}
