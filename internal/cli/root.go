package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rootsploit/arecon/internal/config"
	"github.com/rootsploit/arecon/internal/version"
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "arecon [flags] <target|file>",
		Short: "Active reconnaissance orchestrator",
		Long: `arecon - runs a fixed pipeline of scanning tools against one or many targets.

Roster per target: nmap, nikto, whatweb, gobuster/ffuf, testssl.sh/sslscan (--aggressive)
and curl header fetches. Results land in <output-dir>/<target>/.

The argument is a hostname, IP or range, or a file with one target per line
('#' starts a comment).`,
		Example: `  arecon scanme.example
  arecon --fast --only nmap,whatweb 10.0.0.5
  arecon -c 4 --aggressive --dir-args "-x php,txt" targets.txt
  arecon --dry-run targets.txt`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runScan,
	}

	cmd.PersistentFlags().String("config", "", "Config file (default ~/.arecon/config.yaml)")
	config.RegisterFlags(cmd.Flags())

	cmd.AddCommand(newCheckCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// ExitInterrupted is the exit status of a run stopped by a signal.
const ExitInterrupted = 130

// Execute runs the root command. Cancelling ctx stops admitting targets.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// ExitCode maps an Execute error to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	default:
		return 1
	}
}

func configPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	return path
}

func printBanner(w io.Writer) {
	red := color.New(color.FgRed, color.Bold)
	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)

	red.Fprint(w, `
    ___                              
   /   |  ________  _________  ____  
  / /| | / ___/ _ \/ ___/ __ \/ __ \ 
 / ___ |/ /  /  __/ /__/ /_/ / / / / 
/_/  |_/_/   \___/\___/\____/_/ /_/  
`)
	fmt.Fprintln(w)
	cyan.Fprint(w, "  Active Reconnaissance Orchestrator")
	gray.Fprintf(w, "  v%s\n", version.Version)
	fmt.Fprintln(w)
}
