package config

import (
	"time"

	"github.com/spf13/pflag"
)

// RegisterFlags adds the scan flags to fs with DefaultConfig values. Flag
// names double as viper keys.
func RegisterFlags(fs *pflag.FlagSet) {
	d := DefaultConfig()

	fs.StringP("output-dir", "o", d.OutputDir, "Output directory (one subdirectory per target)")
	fs.StringP("port-range", "p", d.PortRange, "Port range for the port scanner")
	fs.Bool("fast", d.Fast, "Fast port scan (-T3, no service/OS detection)")
	fs.Bool("aggressive", d.Aggressive, "Add vuln scripts, thread boost and TLS audit")
	fs.Bool("dry-run", d.DryRun, "Print commands without running them")
	fs.Bool("show-commands", d.ShowCommands, "Print each command before running it")
	fs.StringP("wordlist", "w", d.Wordlist, "Wordlist for directory discovery")
	fs.String("nmap-args", d.NmapArgs, "Extra arguments appended to the port scanner")
	fs.String("dir-args", d.DirArgs, "Extra arguments appended to the directory brute-forcer")
	fs.IntP("concurrency", "c", d.Concurrency, "Max targets processed at once")
	fs.StringSlice("only", d.Only, "Only run these tools (logical or binary names); header fetches always run")
	fs.Duration("tool-timeout", time.Duration(0), "Per-tool timeout, e.g. 30m (0 = none)")
	fs.String("log-file", d.LogFile, "Structured log path (default <output-dir>/arecon.log)")
	fs.Bool("no-history", d.NoHistory, "Do not record this run in the history database")
	fs.Bool("debug", d.Debug, "Show per-tool timing and debug log entries")
}
