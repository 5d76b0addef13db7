package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// TimestampLayout is the record timestamp format. The offset is always
// numeric so every line states its zone.
const TimestampLayout = "2006-01-02T15:04:05.000-07:00"

// noSource is printed when a record has neither a caller nor a stream label.
const noSource = "-"

// streamKey carries the label of a captured stream ("stdout", "stderr") in
// the context passed to Handle. It replaces the caller location.
type streamKey struct{}

func withStream(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, streamKey{}, name)
}

func streamFrom(ctx context.Context) string {
	name, _ := ctx.Value(streamKey{}).(string)
	return name
}

// HandlerOptions configures NewLineHandler.
type HandlerOptions struct {
	// Level is the minimum level; nil means INFO.
	Level slog.Leveler
	// Location is the zone timestamps are rendered in; nil means UTC.
	Location *time.Location
	// LevelStyle decorates the level label, e.g. with colour. nil leaves it
	// plain.
	LevelStyle func(slog.Level, string) string
}

// lineHandler writes one text line per record.
type lineHandler struct {
	mu     *sync.Mutex
	writer io.Writer
	opts   HandlerOptions
	attrs  []kv // flattened under the groups open when they were added
	groups []string
}

// NewLineHandler returns a handler writing
// "<timestamp> <LEVEL> <file:line> <message> [key=value...]" lines to w.
func NewLineHandler(w io.Writer, opts HandlerOptions) slog.Handler {
	if opts.Level == nil {
		opts.Level = slog.LevelInfo
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &lineHandler{mu: &sync.Mutex{}, writer: w, opts: opts}
}

func (h *lineHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *lineHandler) Handle(ctx context.Context, record slog.Record) error {
	timestamp := record.Time
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	kvs := make([]kv, 0, record.NumAttrs()+len(h.attrs))
	kvs = append(kvs, h.attrs...)
	record.Attrs(func(attr slog.Attr) bool {
		flattenAttr(&kvs, h.groups, attr)
		return true
	})

	location := streamFrom(ctx)
	if location == "" {
		location = noSource
		if src := record.Source(); src != nil && src.File != "" {
			location = filepath.Base(src.File) + ":" + strconv.Itoa(src.Line)
		}
	}

	label := levelLabel(record.Level)
	if h.opts.LevelStyle != nil {
		label = h.opts.LevelStyle(record.Level, label)
	}

	var buf bytes.Buffer
	buf.Grow(64 + len(record.Message) + len(kvs)*24)

	buf.WriteString(timestamp.In(h.opts.Location).Format(TimestampLayout))
	buf.WriteByte(' ')
	buf.WriteString(label)
	buf.WriteByte(' ')
	buf.WriteString(location)
	buf.WriteByte(' ')
	buf.WriteString(record.Message)

	for _, kv := range kvs {
		if kv.key == "" {
			continue
		}
		buf.WriteByte(' ')
		buf.WriteString(kv.key)
		buf.WriteByte('=')
		buf.WriteString(h.formatValue(kv.value))
	}

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.writer.Write(buf.Bytes())
	return err
}

func (h *lineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	clone := h.clone()
	flattenAttrs(&clone.attrs, clone.groups, attrs)
	return clone
}

func (h *lineHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := h.clone()
	clone.groups = append(clone.groups, name)
	return clone
}

// clone shares the writer mutex so derived loggers never interleave lines.
func (h *lineHandler) clone() *lineHandler {
	return &lineHandler{
		mu:     h.mu,
		writer: h.writer,
		opts:   h.opts,
		attrs:  append([]kv(nil), h.attrs...),
		groups: append([]string(nil), h.groups...),
	}
}

type kv struct {
	key   string
	value slog.Value
}

func flattenAttrs(dst *[]kv, prefix []string, attrs []slog.Attr) {
	for _, attr := range attrs {
		flattenAttr(dst, prefix, attr)
	}
}

func flattenAttr(dst *[]kv, prefix []string, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	attr.Value = attr.Value.Resolve()
	if attr.Value.Kind() == slog.KindGroup {
		next := prefix
		if attr.Key != "" {
			next = append(append([]string(nil), prefix...), attr.Key)
		}
		flattenAttrs(dst, next, attr.Value.Group())
		return
	}
	key := attr.Key
	if len(prefix) > 0 {
		key = strings.Join(append(append([]string(nil), prefix...), key), ".")
	}
	*dst = append(*dst, kv{key: key, value: attr.Value})
}

func attrString(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	default:
		return v.String()
	}
}

func (h *lineHandler) formatValue(v slog.Value) string {
	v = v.Resolve()
	var s string
	switch v.Kind() {
	case slog.KindTime:
		return v.Time().In(h.opts.Location).Format(TimestampLayout)
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindBool, slog.KindInt64, slog.KindUint64, slog.KindFloat64:
		return v.String()
	default:
		s = attrString(v)
	}
	if needsQuotes(s) {
		return strconv.Quote(s)
	}
	return s
}

func needsQuotes(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if r <= ' ' || r == '=' || r == '"' {
			return true
		}
	}
	return false
}
