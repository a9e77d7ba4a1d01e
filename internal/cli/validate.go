package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/eventchain/internal/config"
)

// ValidationResult is the JSON payload of a successful validate.
type ValidationResult struct {
	Path    string   `json:"path"`
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [dir]",
		Short: "Check the config file without opening the database",
		Long: `Find the config file in dir (default: the working directory) and report
every problem with it. Nothing is created on disk.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, projectDir(args), cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format: opts.Format,
		Writer: cmd.OutOrStdout(),
	}

	cfg, err := config.Load(dir)
	if err != nil {
		code, details := classifyConfigError(err)
		if outErr := formatter.Error(code, "invalid eventchain config", details); outErr != nil {
			return outErr
		}
		exit := ExitFailure
		if code == ErrCodeNotFound {
			exit = ExitCommandError
		}
		return WrapExitError(exit, "validation failed", err)
	}

	columns := cfg.Projection().Keys()
	return formatter.Success(
		fmt.Sprintf("✓ %s is valid (%d projected fields)", cfg.Path, len(columns)),
		ValidationResult{Path: cfg.Path, Name: cfg.Name, Columns: columns},
	)
}

// classifyConfigError maps a config.Load error to an error code and the
// lines to print.
func classifyConfigError(err error) (string, []string) {
	var verrs config.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		details := make([]string, len(verrs))
		for i, e := range verrs {
			details[i] = e.Error()
		}
		return ErrCodeInvalidConfig, details
	case errors.Is(err, config.ErrNoConfig):
		return ErrCodeNoConfig, []string{err.Error()}
	case errors.Is(err, config.ErrMultipleConfigs):
		return ErrCodeMultipleConfigs, []string{err.Error()}
	case errors.Is(err, os.ErrNotExist):
		return ErrCodeNotFound, []string{err.Error()}
	default:
		return ErrCodeGeneric, []string{err.Error()}
	}
}
