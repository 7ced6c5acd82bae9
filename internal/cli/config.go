package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rootsploit/arecon/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the configuration file",
		Long: `Manage the arecon configuration file (~/.arecon/config.yaml).

Values are layered: command-line flags, then ARECON_* environment variables
(e.g. ARECON_PORT_RANGE), then the config file, then built-in defaults.

Commands:
  show  - Display the effective configuration
  init  - Create a template config file`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Display the effective configuration",
		RunE:  runConfigShow,
	}
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a template config file",
		RunE:  runConfigInit,
	}
	initCmd.Flags().Bool("force", false, "Overwrite an existing file")

	cmd.AddCommand(showCmd, initCmd)
	return cmd
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(nil, configPath(cmd))
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	color.New(color.FgCyan, color.Bold).Fprintln(w, "# effective arecon configuration")
	fmt.Fprint(w, string(data))

	path := configPath(cmd)
	if path == "" {
		path = config.DefaultPath()
	}
	color.New(color.FgHiBlack).Fprintf(w, "\n# config file: %s\n", path)
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configPath(cmd)
	if path == "" {
		path = config.DefaultPath()
	}
	force, _ := cmd.Flags().GetBool("force")

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	data, err := configTemplate()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ Created %s\n", path)
	return nil
}

func configTemplate() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("# arecon configuration\n")
	buf.WriteString("# Flags override ARECON_* environment variables, which override this file.\n\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(config.DefaultConfig()); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
