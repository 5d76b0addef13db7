package logging

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	lerrors "github.com/hasegama/simple-global-logging/internal/errors"
)

// timestampLayout names generated log files, e.g. 20261018_210405.log.
const timestampLayout = "20060102_150405"

// logExt is the extension of generated log files.
const logExt = ".log"

// maxNameAttempts bounds the collision suffixes tried for one timestamp.
const maxNameAttempts = 1000

// TimestampName returns the generated file name for t.
func TimestampName(t time.Time) string {
	return t.Format(timestampLayout) + logExt
}

// ValidateFilename checks that name is usable as a single path segment.
func ValidateFilename(name string) error {
	trimmed := strings.TrimSpace(name)
	var reason string
	switch {
	case trimmed == "":
		reason = "filename is empty"
	case trimmed == "." || trimmed == "..":
		reason = "filename must name a file"
	case strings.ContainsAny(name, `/\`):
		reason = "filename must not contain path separators"
	case strings.ContainsRune(name, 0):
		reason = "filename must not contain NUL"
	case trimmed != name:
		reason = "filename has leading or trailing spaces"
	}
	if reason == "" {
		return nil
	}
	return lerrors.New(lerrors.ErrCodeFilenameInvalid, reason, nil).
		WithDetail("filename", name).
		WithSuggestion("Pass a bare file name such as \"app.log\" and put directories in BaseDir")
}

// EnsureLogDir creates dir (and parents) if it doesn't exist.
func EnsureLogDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return lerrors.New(lerrors.ErrCodeDirCreate, "create log directory", err).
			WithDetail("dir", dir)
	}
	return nil
}

// openSink opens the file a Config points at. An explicit filename is opened
// for append; otherwise a new timestamped file is created, adding _1, _2, ...
// when a file with that name already exists.
func openSink(cfg Config, now time.Time) (*FileWriter, error) {
	if err := EnsureLogDir(cfg.BaseDir); err != nil {
		return nil, err
	}

	if cfg.Filename != "" {
		path := filepath.Join(cfg.BaseDir, cfg.Filename)
		w, err := NewFileWriter(path, cfg.MaxSizeMB, cfg.MaxFiles)
		if err != nil {
			return nil, openError(path, err)
		}
		return w, nil
	}

	stamp := now.Format(timestampLayout)
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name := stamp + logExt
		if attempt > 0 {
			name = fmt.Sprintf("%s_%d%s", stamp, attempt, logExt)
		}
		path := filepath.Join(cfg.BaseDir, name)
		w, err := createFileWriter(path, cfg.MaxSizeMB, cfg.MaxFiles)
		if err == nil {
			return w, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, openError(path, err)
		}
	}
	return nil, lerrors.New(lerrors.ErrCodeFileOpen, "no free log file name", nil).
		WithDetail("dir", cfg.BaseDir).
		WithDetail("prefix", stamp)
}

func openError(path string, err error) error {
	return lerrors.New(lerrors.ErrCodeFileOpen, "open log file", err).
		WithDetail("path", path)
}

// FindLogFile resolves the log file to view.
// Priority:
// 1. Explicit path (if provided)
// 2. Newest *.log file in dir
//
// Returns an error if no log file is found.
func FindLogFile(explicit, dir string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit, nil
		}
		return "", lerrors.New(lerrors.ErrCodeFileNotFound, "log file not found", nil).
			WithDetail("path", explicit)
	}

	if dir == "" {
		dir = DefaultBaseDir
	}
	latest, err := LatestLogFile(dir)
	if err != nil {
		return "", err
	}
	return latest, nil
}

// LatestLogFile returns the most recently modified *.log file in dir.
func LatestLogFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", lerrors.New(lerrors.ErrCodeFileNotFound, "read log directory", err).
			WithDetail("dir", dir)
	}

	var (
		best    string
		bestMod time.Time
	)
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != logExt {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		// Ties on mtime go to the lexically later name, which for generated
		// names is the later timestamp or suffix.
		if best == "" || info.ModTime().After(bestMod) ||
			(info.ModTime().Equal(bestMod) && e.Name() > filepath.Base(best)) {
			best = filepath.Join(dir, e.Name())
			bestMod = info.ModTime()
		}
	}

	if best == "" {
		return "", lerrors.New(lerrors.ErrCodeFileNotFound, "no log files found", nil).
			WithDetail("dir", dir).
			WithSuggestion("Run a program that calls globallog.Setup, or 'sglog run -- <command>'")
	}
	return best, nil
}
