package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rootsploit/arecon/internal/config"
	"github.com/rootsploit/arecon/internal/storage"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Long: `List runs recorded in <output-dir>/arecon.db.

With --run, show every tool outcome of that run.`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}
	cmd.Flags().StringP("output-dir", "o", config.DefaultConfig().OutputDir, "Output directory holding arecon.db")
	cmd.Flags().String("run", "", "Show outcomes for this run id")
	cmd.Flags().Int("limit", 20, "Number of runs to list")
	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd.Flags(), configPath(cmd))
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()

	path := cfg.HistoryPath()
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(w, "No runs recorded in %s\n", path)
		return nil
	}

	h, err := storage.Open(path)
	if err != nil {
		return err
	}
	defer h.Close()

	runID, _ := cmd.Flags().GetString("run")
	if runID != "" {
		return printRun(cmd, h, runID)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := h.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintf(w, "No runs recorded in %s\n", path)
		return nil
	}

	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Fprintf(w, "\n[+] Recent runs (%s)\n\n", path)
	fmt.Fprintf(w, "  %-8s  %-19s  %-11s  %-24s %7s %4s %6s %6s\n", "ID", "STARTED", "STATUS", "INPUT", "TARGETS", "OK", "FAILED", "ABSENT")
	for _, r := range runs {
		fmt.Fprintf(w, "  %-8s  %-19s  %-11s  %-24s %7d %4d %6d %6d\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Status, clip(r.Input, 24),
			r.Targets, r.OK, r.Failed, r.Absent)
	}
	return nil
}

func printRun(cmd *cobra.Command, h *storage.History, id string) error {
	w := cmd.OutOrStdout()
	run, err := h.GetRun(cmd.Context(), id)
	if err != nil {
		return err
	}
	outcomes, err := h.GetOutcomes(cmd.Context(), id)
	if err != nil {
		return err
	}
	targets, err := h.GetTargets(cmd.Context(), id)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan, color.Bold)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)
	gray := color.New(color.FgHiBlack)

	cyan.Fprintf(w, "\n[+] Run %s (%s, arecon %s)\n", run.ID, run.Status, run.Version)
	elapsed := "-"
	if !run.FinishedAt.IsZero() {
		elapsed = run.FinishedAt.Sub(run.StartedAt).Round(time.Second).String()
	}
	gray.Fprintf(w, "    input %s | started %s | took %s\n\n", run.Input, run.StartedAt.Local().Format(time.RFC1123), elapsed)

	for _, t := range targets {
		if t.Error != "" {
			red.Fprintf(w, "  %s aborted: %s\n", t.Target, t.Error)
		}
	}

	fmt.Fprintf(w, "  %-24s %-13s %-11s %-9s %5s %9s\n", "TARGET", "TOOL", "BINARY", "STATUS", "EXIT", "DURATION")
	for _, o := range outcomes {
		status := o.Status
		if o.BestEffort && status == "failed" {
			status = "failed*"
		}
		line := fmt.Sprintf("  %-24s %-13s %-11s %-9s %5d %9s\n",
			clip(o.Target, 24), o.Tool, o.Binary, status, o.ExitCode, o.Duration.Round(time.Millisecond))
		switch {
		case o.Status == "failed" && !o.BestEffort:
			red.Fprint(w, line)
		case o.Status == "failed", o.Status == "absent":
			yellow.Fprint(w, line)
		default:
			fmt.Fprint(w, line)
		}
	}
	return nil
}

func clip(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
