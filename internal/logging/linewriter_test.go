package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLineWriter(buf *bytes.Buffer, level slog.Level) *LineWriter {
	logger := slog.New(NewLineHandler(buf, HandlerOptions{Level: slog.LevelDebug}))
	w := NewLineWriter(func() *slog.Logger { return logger }, level, StdoutSource)
	w.now = func() time.Time { return fixedInstant }
	return w
}

func TestLineWriter_OneRecordPerLine(t *testing.T) {
	var buf bytes.Buffer
	w := newTestLineWriter(&buf, slog.LevelInfo)

	n, err := w.Write([]byte("first\nsecond\r\n"))
	require.NoError(t, err)
	assert.Equal(t, 14, n)

	assert.Equal(t,
		"2026-01-02T03:04:05.678+00:00 INFO stdout first\n"+
			"2026-01-02T03:04:05.678+00:00 INFO stdout second\n",
		buf.String())
}

func TestLineWriter_HoldsPartialLine(t *testing.T) {
	var buf bytes.Buffer
	w := newTestLineWriter(&buf, slog.LevelInfo)

	_, _ = w.Write([]byte("hel"))
	assert.Empty(t, buf.String())

	_, _ = w.Write([]byte("lo\nwor"))
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
	assert.Contains(t, buf.String(), " stdout hello\n")

	require.NoError(t, w.Flush())
	assert.Contains(t, buf.String(), " stdout wor\n")

	// Nothing left to flush.
	before := buf.Len()
	require.NoError(t, w.Flush())
	assert.Equal(t, before, buf.Len())
}

func TestLineWriter_SkipsBlankLines(t *testing.T) {
	var buf bytes.Buffer
	w := newTestLineWriter(&buf, slog.LevelInfo)

	_, _ = w.Write([]byte("\n  \n\r\nreal\n\n"))

	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
	assert.Contains(t, buf.String(), " real\n")
}

func TestLineWriter_Level(t *testing.T) {
	var buf bytes.Buffer
	w := newTestLineWriter(&buf, slog.LevelWarn)

	_, _ = w.Write([]byte("careful\n"))

	assert.Contains(t, buf.String(), " WARN stdout careful\n")
}

func TestLineWriter_RespectsLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewLineHandler(&buf, HandlerOptions{Level: slog.LevelWarn}))
	w := NewLineWriter(func() *slog.Logger { return logger }, slog.LevelInfo, StdoutSource)

	_, _ = w.Write([]byte("dropped\n"))

	assert.Empty(t, buf.String())
}

func TestLineWriter_FollowsResolver(t *testing.T) {
	var first, second bytes.Buffer
	current := slog.New(NewLineHandler(&first, HandlerOptions{}))
	w := NewLineWriter(func() *slog.Logger { return current }, slog.LevelInfo, StdoutSource)

	_, _ = w.Write([]byte("a\n"))
	current = slog.New(NewLineHandler(&second, HandlerOptions{}))
	_, _ = w.Write([]byte("b\n"))

	assert.Contains(t, first.String(), " a\n")
	assert.NotContains(t, first.String(), " b\n")
	assert.Contains(t, second.String(), " b\n")
}

func TestLineWriter_NilLogger(t *testing.T) {
	w := NewLineWriter(func() *slog.Logger { return nil }, slog.LevelInfo, StdoutSource)

	n, err := w.Write([]byte("nowhere\n"))

	require.NoError(t, err)
	assert.Equal(t, 8, n)
}

func TestLineWriter_LongLineForcedOut(t *testing.T) {
	var buf bytes.Buffer
	w := newTestLineWriter(&buf, slog.LevelInfo)

	_, _ = w.Write(bytes.Repeat([]byte("x"), maxLineBytes+10))

	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
	assert.Empty(t, w.buf)
}
