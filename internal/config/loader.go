package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. ARECON_PORT_RANGE.
const EnvPrefix = "ARECON"

// DefaultPath returns ~/.arecon/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".arecon", "config.yaml")
	}
	return filepath.Join(home, ".arecon", "config.yaml")
}

// Load layers flags over ARECON_* environment variables over the YAML config
// file over defaults. An explicit path must exist; the default path is
// optional.
func Load(flags *pflag.FlagSet, path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	setDefaults(v, DefaultConfig())

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	if err := readConfigFile(v, path); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.normalizeOnly()
	return cfg, nil
}

func readConfigFile(v *viper.Viper, path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !explicit && (errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("output-dir", d.OutputDir)
	v.SetDefault("log-file", d.LogFile)
	v.SetDefault("no-history", d.NoHistory)
	v.SetDefault("port-range", d.PortRange)
	v.SetDefault("fast", d.Fast)
	v.SetDefault("aggressive", d.Aggressive)
	v.SetDefault("dry-run", d.DryRun)
	v.SetDefault("show-commands", d.ShowCommands)
	v.SetDefault("wordlist", d.Wordlist)
	v.SetDefault("nmap-args", d.NmapArgs)
	v.SetDefault("dir-args", d.DirArgs)
	v.SetDefault("only", d.Only)
	v.SetDefault("concurrency", d.Concurrency)
	v.SetDefault("tool-timeout", d.ToolTimeout)
	v.SetDefault("debug", d.Debug)
}
