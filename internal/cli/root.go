// Package cli is the qascraper command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"QASchemaScraper/internal/app"
	"QASchemaScraper/internal/config"
	"QASchemaScraper/internal/logging"
)

// session holds what the pre-run hook builds for a command.
type session struct {
	configPath string
	envFile    string

	app      *app.Application
	logger   *slog.Logger
	closeLog func() error
}

// NewRootCommand builds the command tree. Tables and reports are written to the command's output.
func NewRootCommand() *cobra.Command {
	s := &session{}

	root := &cobra.Command{
		Use:           "qascraper",
		Short:         "qascraper scrapes certification Q&A pages into answer schemas for the exam helper extension.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return s.open(cmd.Context())
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return s.close()
		},
	}

	root.PersistentFlags().StringVar(&s.configPath, "config", "", "path to a YAML config file (default $QA_SCRAPER_CONFIG)")
	root.PersistentFlags().StringVar(&s.envFile, "env-file", ".env", "dotenv file loaded before the config")

	root.AddCommand(
		newScrapeCommand(s),
		newScrapeBatchCommand(s),
		newListCommand(s),
		newMergeCommand(s),
		newRegistryCommand(s),
		newLookupCommand(s),
		newHistoryCommand(s),
	)
	return root
}

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (s *session) open(ctx context.Context) error {
	if s.envFile != "" {
		if err := godotenv.Load(s.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "warning: cannot load %s: %v\n", s.envFile, err)
		}
	}

	cfg := config.Load(s.configPath)

	out, closeLog, err := logging.Output(cfg.Logging.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v, logging to stdout only\n", err)
		out, closeLog = os.Stdout, func() error { return nil }
	}
	s.logger = logging.New(cfg.Logging.Level, cfg.Logging.Format, out)
	s.closeLog = closeLog

	application, err := app.New(ctx, cfg, s.logger)
	if err != nil {
		_ = closeLog()
		return err
	}
	s.app = application
	return nil
}

func (s *session) close() error {
	var errs []error
	if s.app != nil {
		errs = append(errs, s.app.Close())
	}
	if s.closeLog != nil {
		errs = append(errs, s.closeLog())
	}
	return errors.Join(errs...)
}

// writerOf returns where command results go.
func writerOf(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
