// Package cmd provides the CLI commands for sglog.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hasegama/simple-global-logging/internal/config"
	lerrors "github.com/hasegama/simple-global-logging/internal/errors"
	"github.com/hasegama/simple-global-logging/pkg/version"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	verbose  bool
	dir      string
	filename string
	tz       string
	keepANSI bool
	console  bool
}

// exitError carries a process exit code without an error message, e.g. the
// exit status of a command run under `sglog run`.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// NewRootCmd creates the root command for the sglog CLI.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "sglog",
		Short: "Log a program's output to timestamped files",
		Long: `sglog writes log records as plain text lines to a file under a base
directory, one file per run or one named file shared by all runs.

'sglog run' records everything a command prints, 'sglog tail' reads the
records back.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("sglog version {{.Version}}\n")

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log DEBUG records too")
	flags.StringVar(&opts.dir, "dir", "", "Log directory (default \"out\")")
	flags.StringVar(&opts.filename, "filename", "", "Fixed log file name inside --dir (appends across runs)")
	flags.StringVar(&opts.tz, "tz", "", "Timezone offset or name (default \"+09:00\")")
	flags.BoolVar(&opts.keepANSI, "keep-ansi", false, "Keep ANSI escape codes in captured output")
	flags.BoolVar(&opts.console, "console", false, "Also print log records on stderr")

	cmd.AddCommand(newRunCmd(opts))
	cmd.AddCommand(newTailCmd(opts))
	cmd.AddCommand(newPathCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	return execute(NewRootCmd(), os.Stderr)
}

func execute(root *cobra.Command, stderr io.Writer) int {
	err := root.Execute()
	if err == nil {
		return 0
	}
	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	_, _ = fmt.Fprint(stderr, lerrors.FormatForCLI(err))
	return 1
}

// loadConfig merges files, environment and the flags set on cmd.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, lerrors.IOError("get working directory", err)
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("verbose") {
		cfg.Logging.Verbose = opts.verbose
	}
	if flags.Changed("dir") {
		cfg.Logging.BaseDir = opts.dir
	}
	if flags.Changed("filename") {
		cfg.Logging.Filename = opts.filename
	}
	if flags.Changed("tz") {
		cfg.Logging.Timezone = opts.tz
	}
	if flags.Changed("keep-ansi") {
		cfg.Logging.KeepANSI = opts.keepANSI
	}
	if flags.Changed("console") {
		cfg.Logging.Console = opts.console
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
