package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hasegama/simple-global-logging/internal/config"
	lerrors "github.com/hasegama/simple-global-logging/internal/errors"
	"github.com/hasegama/simple-global-logging/internal/logging"
)

type tailOptions struct {
	follow  bool
	lines   int
	level   string
	filter  string
	noColor bool
	file    string
}

func newTailCmd(root *rootOptions) *cobra.Command {
	opts := &tailOptions{}

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Show the newest log records",
		Long: `Show the last records of a log file.

Without --file the file is --dir/--filename when a filename is configured,
otherwise the most recently modified *.log file in --dir.`,
		Example: `  sglog tail                   # last 50 records of the newest file
  sglog tail -n 200 --level warn
  sglog tail -f --filter "request failed"
  sglog tail --file out/app.log`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, root)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("lines") {
				opts.lines = cfg.Tail.Lines
			}
			return runTail(cmd, cfg, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.follow, "follow", "f", false, "Keep printing records as they are written")
	cmd.Flags().IntVarP(&opts.lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().StringVar(&opts.level, "level", "", "Minimum level (debug|info|warn|error)")
	cmd.Flags().StringVar(&opts.filter, "filter", "", "Only lines matching this regular expression")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	cmd.Flags().StringVar(&opts.file, "file", "", "Log file to read")

	return cmd
}

func runTail(cmd *cobra.Command, cfg *config.Config, opts *tailOptions) error {
	path, err := resolveLogFile(cfg, opts.file)
	if err != nil {
		return err
	}

	var pattern *regexp.Regexp
	if opts.filter != "" {
		pattern, err = regexp.Compile(opts.filter)
		if err != nil {
			return lerrors.ValidationError("invalid filter pattern", err).
				WithDetail("filter", opts.filter)
		}
	}
	if opts.level != "" {
		switch strings.ToLower(opts.level) {
		case "debug", "info", "warn", "warning", "error":
		default:
			return lerrors.New(lerrors.ErrCodeInvalidLevel, "unknown level", nil).
				WithDetail("level", opts.level).
				WithSuggestion("Use one of debug, info, warn, error")
		}
	}

	out := cmd.OutOrStdout()
	viewer := logging.NewViewer(logging.ViewerConfig{
		Level:   opts.level,
		Pattern: pattern,
		NoColor: !useColor(cfg.Tail.Color, opts.noColor, out),
	}, out)

	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Log file: %s\n", path)

	entries, err := viewer.Tail(path, opts.lines)
	if err != nil {
		return err
	}
	viewer.Print(entries)

	if !opts.follow {
		return nil
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Following... (Ctrl+C to stop)")

	followed := make(chan logging.LogEntry, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for entry := range followed {
			viewer.Print([]logging.LogEntry{entry})
		}
	}()

	err = viewer.Follow(ctx, path, followed)
	close(followed)
	<-done
	return err
}

// resolveLogFile picks the file tail and path operate on.
func resolveLogFile(cfg *config.Config, explicit string) (string, error) {
	if explicit == "" && cfg.Logging.Filename != "" {
		explicit = filepath.Join(cfg.Logging.BaseDir, cfg.Logging.Filename)
	}
	return logging.FindLogFile(explicit, cfg.Logging.BaseDir)
}

// useColor decides whether tail output is coloured.
func useColor(mode string, noColor bool, out any) bool {
	if noColor {
		return false
	}
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	w, ok := out.(*os.File)
	return ok && logging.IsTerminal(w)
}
