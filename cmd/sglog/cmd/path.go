package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newPathCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the path of the current log file",
		Long: `Print the absolute path of the log file sglog tail would read: the
configured --filename inside --dir, or the newest *.log file in --dir.`,
		Example: `  less "$(sglog path)"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, root)
			if err != nil {
				return err
			}
			path, err := resolveLogFile(cfg, "")
			if err != nil {
				return err
			}
			if abs, err := filepath.Abs(path); err == nil {
				path = abs
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	}
}
