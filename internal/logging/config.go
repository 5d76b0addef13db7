package logging

import (
	"log/slog"
	"strings"
)

const (
	// DefaultBaseDir is where log files go when Config.BaseDir is empty.
	DefaultBaseDir = "out"
	// DefaultTimezone is the offset used when Config.Timezone is empty.
	DefaultTimezone = "+09:00"
	// DefaultMaxFiles is the number of rotated files kept when rotation is on.
	DefaultMaxFiles = 5
)

// Config contains logging configuration. A Config is applied as a whole;
// later Setup calls replace it rather than merge into it.
type Config struct {
	// Verbose selects DEBUG instead of INFO as the minimum level.
	Verbose bool
	// BaseDir is the directory that holds log files. Created if missing.
	BaseDir string
	// Filename is an explicit file name inside BaseDir. When set the file is
	// appended to across runs; when empty a timestamped name is generated.
	Filename string
	// Timezone is a UTC offset ("+09:00", "-0500", "Z") or an IANA zone
	// name used for record timestamps and generated file names.
	Timezone string
	// KeepANSI disables escape-sequence stripping of captured stdout.
	KeepANSI bool
	// CaptureFile makes stdout capture replace the os.Stdout file with a
	// pipe instead of capturing the Context's Stdout writer. Output written
	// with fmt.Println or by child processes is then captured too, but
	// RestoreStdout or Close must run before exit.
	CaptureFile bool
	// Console also mirrors records to stderr.
	Console bool
	// MaxSizeMB rotates the file once it grows past this size. 0 disables.
	MaxSizeMB int
	// MaxFiles is the number of rotated files to keep (default: 5).
	MaxFiles int
}

// DefaultConfig returns the configuration used when nothing was set up.
func DefaultConfig() Config {
	return Config{
		BaseDir:  DefaultBaseDir,
		Timezone: DefaultTimezone,
		MaxFiles: DefaultMaxFiles,
	}
}

// DebugConfig returns DefaultConfig with verbose output.
func DebugConfig() Config {
	cfg := DefaultConfig()
	cfg.Verbose = true
	return cfg
}

// Level maps Verbose onto a slog level.
func (c Config) Level() slog.Level {
	if c.Verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// withDefaults fills empty fields.
func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.BaseDir) == "" {
		c.BaseDir = DefaultBaseDir
	}
	if strings.TrimSpace(c.Timezone) == "" {
		c.Timezone = DefaultTimezone
	}
	if c.MaxFiles <= 0 {
		c.MaxFiles = DefaultMaxFiles
	}
	return c
}

// parseLevel converts string level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LevelFromString converts string level to slog.Level (exported for use by log viewer).
func LevelFromString(level string) slog.Level {
	return parseLevel(level)
}

// levelLabel renders a level the way it appears in log lines.
func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
