package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	lerrors "github.com/hasegama/simple-global-logging/internal/errors"
	"github.com/hasegama/simple-global-logging/internal/logging"
)

// childWaitDelay bounds how long a child gets to exit after an interrupt.
const childWaitDelay = 5 * time.Second

func newRunCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [flags] -- <command> [args...]",
		Short: "Run a command and log everything it prints",
		Long: `Run a command with its output logged.

Standard output is shown as usual and also written to the log file as INFO
records with location "stdout". Standard error is shown as usual and logged
as WARN records with location "stderr". sglog exits with the command's exit
code.`,
		Example: `  # New timestamped file under ./out
  sglog run -- make test

  # Append to out/build.log, timestamps in UTC
  sglog run --filename build.log --tz UTC -- ./build.sh`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			console := cmd.OutOrStdout()
			lc := logging.NewContext(
				logging.WithDefaultLogger(),
				logging.WithStdout(&console),
				logging.WithConsole(cmd.ErrOrStderr()),
			)
			return runCommand(cmd.Context(), lc, cfg.LogConfig(), args, cmd.ErrOrStderr())
		},
	}

	// Everything after the command name belongs to the command.
	cmd.Flags().SetInterspersed(false)

	return cmd
}

func runCommand(ctx context.Context, lc *logging.Context, cfg logging.Config, args []string, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := lc.SetupWithStdoutCapture(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = lc.Close() }()

	stderrLines := lc.StreamWriter(slog.LevelWarn, "stderr")

	child := exec.CommandContext(ctx, args[0], args[1:]...)
	child.Stdin = os.Stdin
	child.Stdout = lc.Stdout()
	child.Stderr = io.MultiWriter(stderr, stderrLines)
	child.Cancel = func() error { return child.Process.Signal(os.Interrupt) }
	child.WaitDelay = childWaitDelay

	command := strings.Join(args, " ")
	start := time.Now()
	if err := child.Start(); err != nil {
		startErr := lerrors.New(lerrors.ErrCodeInvalidInput, "start command", err).
			WithDetail("command", args[0])
		logger.Error("command failed to start", errorAttrs(startErr)...)
		return startErr
	}
	logger.Info("command started", "command", command, "pid", child.Process.Pid, "log_file", lc.CurrentLogFile())

	waitErr := child.Wait()
	_ = stderrLines.Flush()

	code := exitCode(waitErr)
	logger.Info("command exited", "command", command, "exit_code", code, "duration", time.Since(start).Round(time.Millisecond))

	if code != 0 {
		return &exitError{code: code}
	}
	if waitErr != nil {
		return lerrors.IOError("wait for command", waitErr)
	}
	return nil
}

// exitCode maps a Wait error onto a shell-style exit code.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exit *exec.ExitError
	if errors.As(err, &exit) {
		if code := exit.ExitCode(); code >= 0 {
			return code
		}
		// Killed by a signal.
		if status, ok := exit.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			return 128 + int(status.Signal())
		}
	}
	return 1
}

// errorAttrs renders an error as sorted slog key/value pairs.
func errorAttrs(err error) []any {
	fields := lerrors.FormatForLog(err)
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]any, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, fields[k]))
	}
	return attrs
}
