package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hasegama/simple-global-logging/configs"
	"github.com/hasegama/simple-global-logging/internal/config"
	lerrors "github.com/hasegama/simple-global-logging/internal/errors"
	"github.com/hasegama/simple-global-logging/internal/output"
)

func newConfigCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage sglog configuration.

Configuration precedence (lowest to highest):
  1. Built-in defaults
  2. User config (~/.config/sglog/config.yaml)
  3. Project config (.sglog.yaml in the working directory)
  4. Environment variables (SGLOG_*)
  5. Flags`,
		Example: `  # Create the user config from the template
  sglog config init

  # Show the effective configuration
  sglog config show`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd(root))
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var (
		force   bool
		project bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file from the template",
		Example: `  sglog config init             # ~/.config/sglog/config.yaml
  sglog config init --project   # ./.sglog.yaml
  sglog config init --force     # overwrite, keeping a backup`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := config.GetUserConfigPath()
			if project {
				cwd, err := os.Getwd()
				if err != nil {
					return lerrors.IOError("get working directory", err)
				}
				path = filepath.Join(cwd, config.ProjectConfigName)
			}
			return runConfigInit(cmd, path, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file (a backup is kept)")
	cmd.Flags().BoolVar(&project, "project", false, "Write .sglog.yaml in the working directory instead")

	return cmd
}

func runConfigInit(cmd *cobra.Command, path string, force bool) error {
	out := output.New(cmd.OutOrStdout())

	if _, err := os.Stat(path); err == nil {
		if !force {
			out.Warning("Configuration already exists")
			out.KeyValue("file", path)
			out.Status("", "Use --force to replace it with the template")
			return nil
		}
		backup, err := config.Backup(path)
		if err != nil {
			return err
		}
		out.KeyValue("backup", backup)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return lerrors.New(lerrors.ErrCodeDirCreate, "create config directory", err).
			WithDetail("dir", filepath.Dir(path))
	}
	if err := os.WriteFile(path, []byte(configs.ConfigTemplate), 0o644); err != nil {
		return lerrors.IOError("write config file", err).WithDetail("path", path)
	}

	out.Success("Created configuration")
	out.KeyValue("file", path)
	return nil
}

func newConfigShowCmd(root *rootOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, root)
			if err != nil {
				return err
			}
			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(cfg)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), cfg.String())
			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the user config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), config.GetUserConfigPath())
			return err
		},
	}
}
