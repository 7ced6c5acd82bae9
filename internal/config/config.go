package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/rootsploit/arecon/internal/tools"
)

// Usage errors. The CLI turns any of these into a non-zero exit.
var (
	ErrNoTarget       = errors.New("no target given")
	ErrUnknownTool    = errors.New("unknown tool name")
	ErrBadConcurrency = errors.New("concurrency must be at least 1")
	ErrBadArgs        = errors.New("malformed extra arguments")
	ErrBadTimeout     = errors.New("tool timeout must not be negative")
)

// Config holds all configuration options for arecon. It is built once at
// startup and shared read-only by every pipeline.
type Config struct {
	// Target is the positional argument: a host, IP, range, or target file.
	Target string `mapstructure:"-" yaml:"-"`

	// Output
	OutputDir string `mapstructure:"output-dir" yaml:"output-dir"`
	LogFile   string `mapstructure:"log-file" yaml:"log-file"`
	NoHistory bool   `mapstructure:"no-history" yaml:"no-history"`

	// Scan modes
	PortRange    string `mapstructure:"port-range" yaml:"port-range"`
	Fast         bool   `mapstructure:"fast" yaml:"fast"`
	Aggressive   bool   `mapstructure:"aggressive" yaml:"aggressive"`
	DryRun       bool   `mapstructure:"dry-run" yaml:"dry-run"`
	ShowCommands bool   `mapstructure:"show-commands" yaml:"show-commands"`

	// Tool options
	Wordlist string   `mapstructure:"wordlist" yaml:"wordlist"`
	NmapArgs string   `mapstructure:"nmap-args" yaml:"nmap-args"`
	DirArgs  string   `mapstructure:"dir-args" yaml:"dir-args"`
	Only     []string `mapstructure:"only" yaml:"only"` // empty = every tool

	// Performance
	Concurrency int           `mapstructure:"concurrency" yaml:"concurrency"`
	ToolTimeout time.Duration `mapstructure:"tool-timeout" yaml:"tool-timeout"` // 0 = no limit

	// Debug
	Debug bool `mapstructure:"debug" yaml:"debug"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		OutputDir:   "recon_output",
		PortRange:   "1-65535",
		Wordlist:    tools.DefaultWordlist,
		Concurrency: 10,
	}
}

// Validate checks the usage rules. Every returned error wraps one of the
// package sentinels.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Target) == "" {
		return ErrNoTarget
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("%w (got %d)", ErrBadConcurrency, c.Concurrency)
	}
	if c.ToolTimeout < 0 {
		return fmt.Errorf("%w (got %s)", ErrBadTimeout, c.ToolTimeout)
	}
	for _, name := range c.Only {
		if _, ok := tools.Lookup(name); !ok {
			return fmt.Errorf("%w %q (known: %s)", ErrUnknownTool, name, strings.Join(tools.KnownNames(), ", "))
		}
	}
	if _, err := shellquote.Split(c.NmapArgs); err != nil {
		return fmt.Errorf("%w in --nmap-args: %v", ErrBadArgs, err)
	}
	if _, err := shellquote.Split(c.DirArgs); err != nil {
		return fmt.Errorf("%w in --dir-args: %v", ErrBadArgs, err)
	}
	return nil
}

// ToolAllowed reports whether the allow-list admits t. Tools that are not
// filterable always pass.
func (c *Config) ToolAllowed(t tools.Tool) bool {
	if !t.Filterable || len(c.Only) == 0 {
		return true
	}
	for _, name := range c.Only {
		if t.Matches(name) {
			return true
		}
	}
	return false
}

// LogPath returns where the structured run log is written.
func (c *Config) LogPath() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return filepath.Join(c.OutputDir, "arecon.log")
}

// HistoryPath returns the run history database location.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.OutputDir, "arecon.db")
}

// normalizeOnly drops blank entries and trims names, so "nmap, ,nikto"
// behaves like "nmap,nikto".
func (c *Config) normalizeOnly() {
	var out []string
	for _, name := range c.Only {
		for _, part := range strings.Split(name, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	c.Only = out
}
