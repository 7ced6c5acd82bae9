package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rootsploit/arecon/internal/config"
	"github.com/rootsploit/arecon/internal/sysinfo"
	"github.com/rootsploit/arecon/internal/tools"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check installed tools",
		Long: `Check which roster tools are installed and available.

Shows the binary each tool resolves to, its detected version, minimum-version
warnings and whether the configured wordlist exists.`,
		RunE: runCheck,
	}
	cmd.Flags().StringP("wordlist", "w", tools.DefaultWordlist, "Wordlist to check")
	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd.Flags(), configPath(cmd))
	if err != nil {
		return err
	}
	return printCheck(cmd, tools.NewChecker(), tools.DetectPlatform(), sysinfo.Detect(), cfg)
}

func printCheck(cmd *cobra.Command, checker *tools.Checker, platform *tools.Platform, host *sysinfo.Host, cfg *config.Config) error {
	wordlist := cfg.Wordlist
	w := cmd.OutOrStdout()
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan, color.Bold)
	gray := color.New(color.FgHiBlack)

	cyan.Fprintln(w, "\n[+] arecon Tool Status")
	fmt.Fprintln(w)

	roster := tools.Roster()
	statuses := checker.CheckAll()

	fmt.Fprintln(w, "Roster:")
	fmt.Fprintln(w, "─────────────────────────────────────────────────────")
	installed := 0
	var missing []tools.Tool
	for i, s := range statuses {
		t := roster[i]
		fmt.Fprintf(w, "  %-13s %-11s ", s.Name, s.Binary)
		if !s.Installed {
			missing = append(missing, t)
			if t.AggressiveOnly {
				yellow.Fprintln(w, "○ not found (--aggressive only)")
			} else {
				red.Fprintln(w, "✗ not found")
			}
			continue
		}
		installed++
		green.Fprint(w, "✓ installed")
		if s.Version != "" {
			fmt.Fprintf(w, " (%s)", s.Version)
		}
		if s.Outdated {
			yellow.Fprintf(w, " ⚠ wants %s", s.MinVersion)
		}
		fmt.Fprintln(w)
		gray.Fprintf(w, "  %-13s %s\n", "", s.Path)
	}

	fmt.Fprintln(w, "\nWordlist:")
	fmt.Fprintln(w, "─────────────────────────────────────────────────────")
	active := tools.FindWordlist(wordlist)
	fmt.Fprintf(w, "  %-30s ", wordlist)
	wordlistOK := fileExists(wordlist)
	if wordlistOK {
		green.Fprintln(w, "✓ found")
	} else {
		red.Fprintln(w, "✗ not found")
		if active != wordlist {
			fmt.Fprintf(w, "  Fallback wordlist: %s\n", active)
			wordlistOK = true
		}
	}

	fmt.Fprintln(w, "\nHost:")
	fmt.Fprintln(w, "─────────────────────────────────────────────────────")
	mem := fmt.Sprintf("%d MB RAM", host.TotalMemoryMB)
	if host.MemoryAssumed {
		mem += " (assumed)"
	}
	fmt.Fprintf(w, "  %s, %d cores, %s (profile %s)\n", platform, host.NumCPU, mem, host.Profile)
	fmt.Fprintf(w, "  Suggested --concurrency: %d", host.SuggestedConcurrency())
	gray.Fprintf(w, " (configured %d)\n", cfg.Concurrency)

	fmt.Fprintln(w, "\n─────────────────────────────────────────────────────")
	fmt.Fprintf(w, "Tools: %d/%d installed\n", installed, len(roster))

	if len(missing) == 0 && wordlistOK {
		fmt.Fprintln(w)
		green.Fprintln(w, "✓ All roster tools and a wordlist are available!")
		return nil
	}

	fmt.Fprintln(w)
	yellow.Fprintln(w, "⚠ Missing tools are skipped at scan time.")
	for _, t := range missing {
		if hint := platform.InstallHint(t.Package); hint != "" {
			gray.Fprintf(w, "  %-13s %s\n", t.Name, hint)
		}
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
