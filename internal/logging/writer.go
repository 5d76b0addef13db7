package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// FileWriter is the io.Writer behind a log file. It serialises writes, syncs
// after each one so followers see lines immediately, and optionally rotates
// by size.
type FileWriter struct {
	path     string
	maxSize  int64
	maxFiles int

	mu      sync.Mutex
	file    *os.File
	written int64
	closed  bool
}

// NewFileWriter opens path for append, creating it if needed.
// maxSizeMB <= 0 disables rotation.
func NewFileWriter(path string, maxSizeMB, maxFiles int) (*FileWriter, error) {
	return newFileWriter(path, maxSizeMB, maxFiles, os.O_CREATE|os.O_APPEND|os.O_WRONLY)
}

// createFileWriter is NewFileWriter for a file that must not exist yet.
func createFileWriter(path string, maxSizeMB, maxFiles int) (*FileWriter, error) {
	return newFileWriter(path, maxSizeMB, maxFiles, os.O_CREATE|os.O_EXCL|os.O_APPEND|os.O_WRONLY)
}

func newFileWriter(path string, maxSizeMB, maxFiles, flag int) (*FileWriter, error) {
	w := &FileWriter{
		path:     path,
		maxSize:  int64(maxSizeMB) * 1024 * 1024,
		maxFiles: maxFiles,
	}

	if err := w.openFile(flag); err != nil {
		return nil, err
	}
	return w, nil
}

// Path returns the file the writer was opened on.
func (w *FileWriter) Path() string {
	return w.path
}

// Write implements io.Writer with automatic rotation.
func (w *FileWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, os.ErrClosed
	}

	if w.maxSize > 0 && w.written > 0 && w.written+int64(len(p)) > w.maxSize {
		if err := w.rotate(); err != nil {
			// Continue writing to current file if rotation fails
			_, _ = fmt.Fprintf(os.Stderr, "log rotation failed: %v\n", err)
		}
	}
	if w.file == nil {
		return 0, os.ErrClosed
	}

	n, err = w.file.Write(p)
	w.written += int64(n)

	if err == nil {
		_ = w.file.Sync()
	}

	return
}

// Close closes the underlying file. Later writes fail with os.ErrClosed.
func (w *FileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	if w.file != nil {
		return w.file.Close()
	}
	return nil
}

// Sync flushes the file to disk.
func (w *FileWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file != nil && !w.closed {
		return w.file.Sync()
	}
	return nil
}

// openFile opens the log file with flag and records its current size.
func (w *FileWriter) openFile(flag int) error {
	f, err := os.OpenFile(w.path, flag, 0o644)
	if err != nil {
		return err
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}

	w.file = f
	w.written = info.Size()
	return nil
}

// rotate performs log rotation.
// app.log -> app.log.1 -> app.log.2 -> ... -> delete oldest
func (w *FileWriter) rotate() error {
	if w.file != nil {
		if err := w.file.Close(); err != nil {
			return fmt.Errorf("close log file: %w", err)
		}
		w.file = nil
	}

	dir := filepath.Dir(w.path)
	base := filepath.Base(w.path)

	matches, err := filepath.Glob(filepath.Join(dir, base+".*"))
	if err != nil {
		return fmt.Errorf("find rotated files: %w", err)
	}

	type rotatedFile struct {
		path string
		num  int
	}
	var files []rotatedFile
	for _, m := range matches {
		suffix := strings.TrimPrefix(filepath.Base(m), base+".")
		num, err := strconv.Atoi(suffix)
		if err != nil {
			continue
		}
		files = append(files, rotatedFile{path: m, num: num})
	}

	// Highest first so renames never overwrite.
	sort.Slice(files, func(i, j int) bool {
		return files[i].num > files[j].num
	})

	for _, f := range files {
		if f.num >= w.maxFiles {
			_ = os.Remove(f.path)
		}
	}
	for _, f := range files {
		if f.num < w.maxFiles {
			_ = os.Rename(f.path, fmt.Sprintf("%s.%d", w.path, f.num+1))
		}
	}

	if _, err := os.Stat(w.path); err == nil {
		if err := os.Rename(w.path, w.path+".1"); err != nil {
			return fmt.Errorf("rotate log file: %w", err)
		}
	}

	w.written = 0
	return w.openFile(os.O_CREATE | os.O_APPEND | os.O_WRONLY)
}
