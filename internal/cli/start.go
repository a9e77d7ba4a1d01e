package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/eventchain/internal/chainlog"
	"github.com/roach88/eventchain/internal/config"
	"github.com/roach88/eventchain/internal/engine"
	"github.com/roach88/eventchain/internal/source"
	"github.com/roach88/eventchain/internal/store"
)

// DataDir is the directory, inside the project directory, holding the
// database and the chain log.
const DataDir = "eventchain"

// DatabaseFile is the database file name inside DataDir.
const DatabaseFile = "chain.sqlite"

// StartOptions holds flags for the start command.
type StartOptions struct {
	*RootOptions
	Driver  string
	Input   string
	NATSURL string
	Subject string

	// BatchIDs allows overriding the batch id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	BatchIDs engine.BatchIDGenerator
}

// StartSummary is the JSON payload printed when the source ends.
type StartSummary struct {
	Database  string `json:"database"`
	Delivered int64  `json:"delivered"`
	Failed    int64  `json:"failed"`
}

// NewStartCommand creates the start command.
func NewStartCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StartOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "start [dir]",
		Short: "Store the event stream in the project database",
		Long: `Load the config file in dir (default: the working directory), bring
dir/eventchain/chain.sqlite up to date with its projection, and store every
delivery from the event source until the source ends or the process is
interrupted. Raw deliveries are also appended to dir/eventchain/chain.txt.

Deliveries are JSON envelopes, one per line on --input or one per message on
the NATS subject:

  {"type":"ONMEMPOOL","tx":{...}}
  {"type":"ONBLOCK","tx":[{...},{...}]}

Example:
  eventchain start ./bitcom --input events.jsonl
  eventchain start --nats-url nats://127.0.0.1:4222 --subject bitcom.events`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(opts, projectDir(args), cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Driver, "driver", store.DriverCGO, "SQLite driver (sqlite3|sqlite)")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "-", `JSON-lines delivery file ("-" for stdin)`)
	cmd.Flags().StringVar(&opts.NATSURL, "nats-url", "", "read deliveries from this NATS server instead of --input")
	cmd.Flags().StringVar(&opts.Subject, "subject", "", `NATS subject (default "eventchain.<name>")`)

	return cmd
}

func runStart(opts *StartOptions, dir string, cmd *cobra.Command) error {
	setupLogging(opts.RootOptions)

	if err := store.ValidateDriver(opts.Driver); err != nil {
		return WrapExitError(ExitCommandError, "invalid --driver", err)
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to load config", err)
	}
	slog.Info("config loaded", "path", cfg.Path, "name", cfg.Name)

	dbPath := filepath.Join(dir, DataDir, DatabaseFile)
	slog.Info("opening database", "path", dbPath, "driver", opts.Driver)
	st, err := store.Open(dbPath, cfg.Projection(), store.WithDriver(opts.Driver))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	chain, err := chainlog.Open(filepath.Join(dir, DataDir, chainlog.FileName))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open chain log", err)
	}
	defer chain.Close()

	src, closeSrc, err := openSource(opts, cfg, cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open event source", err)
	}
	defer closeSrc()

	engineOpts := []engine.EngineOption{engine.WithChainLog(chain)}
	if opts.BatchIDs != nil {
		engineOpts = append(engineOpts, engine.WithBatchIDs(opts.BatchIDs))
	}
	eng := engine.New(st, engineOpts...)

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	engineDone := make(chan error, 1)
	go func() {
		engineDone <- eng.Run(ctx)
	}()

	srcErr := src.Run(ctx, eng.Handle)

	// Queued deliveries are still written after the source ends.
	eng.Stop()
	engErr := <-engineDone

	stats := eng.Stats()
	slog.Info("engine stopped", "delivered", stats.Delivered, "failed", stats.Failed)

	if srcErr != nil && !isShutdown(srcErr) {
		return WrapExitError(ExitFailure, "event source error", srcErr)
	}
	if engErr != nil && !isShutdown(engErr) {
		return WrapExitError(ExitFailure, "engine error", engErr)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return formatter.Success(
		fmt.Sprintf("Stored %d deliveries in %s (%d failed)", stats.Delivered, dbPath, stats.Failed),
		StartSummary{Database: dbPath, Delivered: stats.Delivered, Failed: stats.Failed},
	)
}

// openSource builds the configured event source and its cleanup function.
func openSource(opts *StartOptions, cfg *config.Config, stdin io.Reader) (source.Source, func(), error) {
	if opts.NATSURL != "" {
		subject := opts.Subject
		if subject == "" {
			subject = "eventchain." + cfg.Name
		}
		conn, err := source.DialNATS(source.NATSConfig{
			URL:           opts.NATSURL,
			Subject:       subject,
			MaxReconnect:  -1,
			ReconnectWait: 2 * time.Second,
		})
		if err != nil {
			return nil, nil, err
		}
		return source.NewNATS(conn, subject), conn.Close, nil
	}

	if opts.Input == "" || opts.Input == "-" {
		return source.NewLines(stdin, "stdin"), func() {}, nil
	}

	f, err := os.Open(opts.Input)
	if err != nil {
		return nil, nil, err
	}
	return source.NewLines(f, opts.Input), func() { f.Close() }, nil
}

func isShutdown(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, engine.ErrStopped)
}
