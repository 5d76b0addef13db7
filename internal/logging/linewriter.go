package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// StdoutSource labels records that came from captured standard output.
const StdoutSource = "stdout"

// maxLineBytes forces out a record when a writer never sends a newline.
const maxLineBytes = 64 * 1024

// LineWriter turns a byte stream into one log record per line.
//
// Partial lines are held until their newline arrives or Flush is called.
// Blank lines are dropped. Records go to whatever logger the resolver
// returns at emit time, so a re-setup redirects the stream to the new file.
type LineWriter struct {
	mu      sync.Mutex
	resolve func() *slog.Logger
	guard   sync.Locker // held around resolve and Handle when set
	level   slog.Level
	source  string
	now     func() time.Time
	buf     []byte
}

// NewLineWriter returns a LineWriter logging at level. Its records show
// source in place of the caller location.
func NewLineWriter(resolve func() *slog.Logger, level slog.Level, source string) *LineWriter {
	return &LineWriter{
		resolve: resolve,
		level:   level,
		source:  source,
		now:     time.Now,
	}
}

// Write buffers p and emits every complete line. It never fails.
func (w *LineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	start := 0
	for {
		i := bytes.IndexByte(w.buf[start:], '\n')
		if i < 0 {
			break
		}
		w.emit(string(w.buf[start : start+i]))
		start += i + 1
	}
	if len(w.buf)-start > maxLineBytes {
		w.emit(string(w.buf[start:]))
		start = len(w.buf)
	}
	w.buf = w.buf[:copy(w.buf, w.buf[start:])]
	return len(p), nil
}

// Flush emits a trailing partial line, if any.
func (w *LineWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.buf) > 0 {
		w.emit(string(w.buf))
		w.buf = w.buf[:0]
	}
	return nil
}

func (w *LineWriter) emit(line string) {
	line = strings.TrimSuffix(line, "\r")
	if strings.TrimSpace(line) == "" {
		return
	}
	if w.guard != nil {
		w.guard.Lock()
		defer w.guard.Unlock()
	}
	logger := w.resolve()
	if logger == nil {
		return
	}
	ctx := withStream(context.Background(), w.source)
	handler := logger.Handler()
	if !handler.Enabled(ctx, w.level) {
		return
	}
	_ = handler.Handle(ctx, slog.NewRecord(w.now(), w.level, line, 0))
}
