package cli

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rootsploit/arecon/internal/config"
	"github.com/rootsploit/arecon/internal/logging"
	"github.com/rootsploit/arecon/internal/runner"
	"github.com/rootsploit/arecon/internal/storage"
)

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd.Flags(), configPath(cmd))
	if err != nil {
		return err
	}
	if len(args) == 1 {
		cfg.Target = args[0]
	}
	if err := cfg.Validate(); err != nil {
		if errors.Is(err, config.ErrNoTarget) {
			return fmt.Errorf("%w (see 'arecon --help')", err)
		}
		return err
	}

	out := cmd.OutOrStdout()
	printBanner(out)

	logger, closer, err := logging.New(cfg)
	if err != nil {
		// Directory problems are reported per target; the run still goes ahead.
		color.New(color.FgYellow).Fprintf(out, "⚠ Run log unavailable, logging to stderr: %v\n", err)
		logger = logging.Stderr(logrus.WarnLevel)
	} else {
		defer closer.Close()
	}

	opts := []runner.Option{
		runner.WithOutput(out),
		runner.WithLogger(logger),
	}

	if !cfg.NoHistory && !cfg.DryRun {
		h, err := storage.Open(cfg.HistoryPath())
		if err != nil {
			logger.WithError(err).Warn("open history")
			color.New(color.FgYellow).Fprintf(out, "⚠ Run history unavailable: %v\n", err)
		} else {
			defer h.Close()
			opts = append(opts, runner.WithHistory(h, storage.NewRunID()))
		}
	}

	_, err = runner.New(cfg, opts...).Run(cmd.Context())
	return err
}
