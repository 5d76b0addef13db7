package logging

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	lerrors "github.com/hasegama/simple-global-logging/internal/errors"
)

// LogEntry is one parsed log line.
type LogEntry struct {
	Time     time.Time
	Level    string
	Location string
	Msg      string // message plus any key=value pairs
	Raw      string
	IsValid  bool // false for lines not written by this package's handler
}

// ViewerConfig configures the log viewer.
type ViewerConfig struct {
	Level   string         // minimum level (debug, info, warn, error)
	Pattern *regexp.Regexp // only lines matching this
	NoColor bool
}

// Viewer reads, filters and prints log files.
type Viewer struct {
	config ViewerConfig
	out    io.Writer
	styles LevelStyles
}

// NewViewer creates a viewer printing to out.
func NewViewer(cfg ViewerConfig, out io.Writer) *Viewer {
	return &Viewer{
		config: cfg,
		out:    out,
		styles: NewLevelStyles(out),
	}
}

// ParseLine splits a log line into its fields. Lines that don't match the
// handler's format come back with IsValid false and only Raw set.
func ParseLine(line string) LogEntry {
	entry := LogEntry{Raw: line}

	fields := strings.SplitN(line, " ", 4)
	if len(fields) < 3 {
		return entry
	}
	ts, err := time.Parse(TimestampLayout, fields[0])
	if err != nil {
		return entry
	}
	switch fields[1] {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		return entry
	}

	entry.Time = ts
	entry.Level = fields[1]
	entry.Location = fields[2]
	if len(fields) == 4 {
		entry.Msg = fields[3]
	}
	entry.IsValid = true
	return entry
}

// Tail returns the matching entries among the last n lines of path.
func (v *Viewer) Tail(path string, n int) ([]LogEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, lerrors.New(lerrors.ErrCodeFileNotFound, "open log file", err).
			WithDetail("path", path)
	}
	defer func() { _ = file.Close() }()

	var lines []string
	scanner := bufio.NewScanner(file)
	const maxCapacity = 1024 * 1024
	scanner.Buffer(make([]byte, 0, 64*1024), maxCapacity)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, lerrors.IOError("read log file", err).WithDetail("path", path)
	}

	if n >= 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}

	var entries []LogEntry
	for _, line := range lines {
		entry := ParseLine(line)
		if v.matchesFilter(entry) {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// Follow sends entries appended to path after the call. It blocks until ctx
// is cancelled or the watcher fails.
func (v *Viewer) Follow(ctx context.Context, path string, entries chan<- LogEntry) error {
	file, err := os.Open(path)
	if err != nil {
		return lerrors.New(lerrors.ErrCodeFileNotFound, "open log file", err).
			WithDetail("path", path)
	}
	defer func() { _ = file.Close() }()

	offset, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return lerrors.IOError("seek log file", err).WithDetail("path", path)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return lerrors.IOError("create file watcher", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(path); err != nil {
		return lerrors.IOError("watch log file", err).WithDetail("path", path)
	}

	f := &follower{viewer: v, file: file, offset: offset, entries: entries}
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			switch {
			case event.Op&fsnotify.Write != 0:
				if err := f.drain(ctx); err != nil {
					return err
				}
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				// Rotated away; whatever was written before the rename is
				// still readable through the open descriptor.
				return f.drain(ctx)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return lerrors.IOError("watch log file", err).WithDetail("path", path)
		}
	}
}

// follower reads complete lines past offset, keeping a trailing partial line
// until its newline is written.
type follower struct {
	viewer  *Viewer
	file    *os.File
	offset  int64
	partial []byte
	entries chan<- LogEntry
}

func (f *follower) drain(ctx context.Context) error {
	info, err := f.file.Stat()
	if err != nil {
		return lerrors.IOError("stat log file", err)
	}
	if info.Size() < f.offset {
		// Truncated: start over from the top.
		f.offset = 0
		f.partial = f.partial[:0]
	}

	buf := make([]byte, 32*1024)
	for {
		n, err := f.file.ReadAt(buf, f.offset)
		if n > 0 {
			f.offset += int64(n)
			f.partial = append(f.partial, buf[:n]...)
			if !f.emitLines(ctx) {
				return nil
			}
		}
		if err == io.EOF || n == 0 {
			return nil
		}
		if err != nil {
			return lerrors.IOError("read log file", err)
		}
	}
}

func (f *follower) emitLines(ctx context.Context) bool {
	for {
		i := bytes.IndexByte(f.partial, '\n')
		if i < 0 {
			return true
		}
		line := strings.TrimSuffix(string(f.partial[:i]), "\r")
		f.partial = f.partial[i+1:]
		if line == "" {
			continue
		}
		entry := ParseLine(line)
		if !f.viewer.matchesFilter(entry) {
			continue
		}
		select {
		case f.entries <- entry:
		case <-ctx.Done():
			return false
		}
	}
}

// FormatEntry formats an entry for display.
func (v *Viewer) FormatEntry(entry LogEntry) string {
	if !entry.IsValid {
		return entry.Raw
	}

	level := fmt.Sprintf("%-5s", entry.Level)
	if !v.config.NoColor {
		level = v.styles.Render(LevelFromString(entry.Level), level)
	}

	timestamp := entry.Time.Format("15:04:05.000")
	if entry.Msg == "" {
		return fmt.Sprintf("%s %s %s", timestamp, level, entry.Location)
	}
	return fmt.Sprintf("%s %s %s %s", timestamp, level, entry.Location, entry.Msg)
}

// Print writes entries to the output.
func (v *Viewer) Print(entries []LogEntry) {
	for _, entry := range entries {
		_, _ = fmt.Fprintln(v.out, v.FormatEntry(entry))
	}
}

// matchesFilter checks an entry against the level and pattern filters.
// Unparsed lines pass the level filter so continuation output stays visible.
func (v *Viewer) matchesFilter(entry LogEntry) bool {
	if v.config.Level != "" && entry.IsValid {
		if LevelFromString(entry.Level) < LevelFromString(v.config.Level) {
			return false
		}
	}
	if v.config.Pattern != nil && !v.config.Pattern.MatchString(entry.Raw) {
		return false
	}
	return true
}

