// Package globallog sets up process-wide logging to a file with one call.
//
//	logger, err := globallog.Setup(globallog.Config{BaseDir: "out", Filename: "app.log"})
//	if err != nil {
//		return err
//	}
//	logger.Info("hello")
//
// Setup installs the logger with slog.SetDefault, so plain slog.Info calls
// anywhere in the process reach the same file. SetupWithStdoutCapture also
// mirrors everything printed to Stdout() into the log; RestoreStdout undoes
// that. Writes through Stdout() are synchronous, so a process may exit
// without restoring.
//
// Setting Config.CaptureFile captures the os.Stdout file itself, including
// fmt.Println and child processes. That mode goes through a pipe and needs
// RestoreStdout or Close before exit; Main does this for test binaries.
//
// All functions operate on one process-wide state and are safe for
// concurrent use.
package globallog

import (
	"io"
	"log/slog"
	"sync"
	"time"

	lerrors "github.com/hasegama/simple-global-logging/internal/errors"
	"github.com/hasegama/simple-global-logging/internal/logging"
)

// Config controls where and how records are written. The zero value is
// usable; empty fields take the defaults listed on DefaultConfig.
type Config = logging.Config

// DefaultConfig returns the configuration Logger applies when nothing was
// set up: INFO level, directory "out", a timestamped file name, +09:00.
func DefaultConfig() Config {
	return logging.DefaultConfig()
}

var process = sync.OnceValue(func() *logging.Context {
	return logging.NewContext(logging.WithDefaultLogger())
})

// Setup configures the process logger and returns it. Calling it again
// replaces the previous configuration and closes the previous file.
func Setup(cfg Config) (*slog.Logger, error) {
	return process().Setup(cfg)
}

// SetupWithStdoutCapture is Setup plus mirroring of standard output into the
// log. Console output is unchanged; the log copy has ANSI escape sequences
// removed unless cfg.KeepANSI is set.
func SetupWithStdoutCapture(cfg Config) (*slog.Logger, error) {
	return process().SetupWithStdoutCapture(cfg)
}

// Logger returns the process logger, applying DefaultConfig on first use.
// It never returns nil: when no file can be opened it logs to stderr.
func Logger() *slog.Logger {
	return process().Logger()
}

// Stdout returns the writer to print to. While capture is active it mirrors
// into the log; otherwise it is os.Stdout.
func Stdout() io.Writer {
	return process().Stdout()
}

// RestoreStdout puts the original standard output back. It does nothing
// when stdout is not being captured.
func RestoreStdout() {
	process().RestoreStdout()
}

// CurrentLogFile returns the absolute path of the active log file, or "".
func CurrentLogFile() string {
	return process().CurrentLogFile()
}

// CurrentTimezone returns the timezone of the active configuration, or nil.
func CurrentTimezone() *time.Location {
	return process().CurrentTimezone()
}

// Close restores stdout, puts back the slog default that Setup replaced and
// closes the log file. A later Setup or Logger call starts over.
func Close() error {
	return process().Close()
}

// ParseTimezone resolves an offset such as "+09:00" or a zone name such as
// "Asia/Tokyo".
func ParseTimezone(value string) (*time.Location, error) {
	return logging.ParseTimezone(value)
}

// IsConfigError reports whether err was caused by an invalid Config.
func IsConfigError(err error) bool {
	return lerrors.IsConfig(err)
}

// IsIOError reports whether err was caused by the filesystem, e.g. a log
// directory that cannot be created.
func IsIOError(err error) bool {
	return lerrors.IsIO(err)
}
