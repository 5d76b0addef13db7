package logging

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hasegama/simple-global-logging/internal/capture"
)

// Context holds the active log sink and the stdout capture state.
//
// All mutation (Setup, capture install and restore) is serialised by one
// mutex. Logging itself does not take that mutex.
type Context struct {
	mu sync.Mutex

	setDefault bool
	console    io.Writer
	now        func() time.Time

	cfg    Config
	path   string
	loc    *time.Location
	writer *FileWriter

	logger   atomic.Pointer[slog.Logger]
	fallback atomic.Pointer[slog.Logger]

	// prevDefault, prevLogOutput and prevLogFlags are what slog.SetDefault
	// replaced; Close puts them back.
	prevDefault   *slog.Logger
	prevLogOutput io.Writer
	prevLogFlags  int

	// emitting is held for reading while a LineWriter hands a record to a
	// logger, so a replaced file is closed only after in-flight records.
	emitting sync.RWMutex

	stdout   io.Writer
	capturer *capture.Capturer
	files    *capture.FileCapturer
	lines    *LineWriter
}

// Option configures a Context.
type Option func(*Context)

// WithDefaultLogger makes every Setup also install the logger with
// slog.SetDefault. The process-wide context uses this.
func WithDefaultLogger() Option {
	return func(c *Context) { c.setDefault = true }
}

// WithStdout captures the given writer slot instead of a private one that
// starts out holding os.Stdout.
func WithStdout(slot *io.Writer) Option {
	return func(c *Context) { c.capturer = capture.NewCapturer(slot) }
}

// WithStdoutFile captures the given file slot instead of &os.Stdout when
// Config.CaptureFile is set.
func WithStdoutFile(slot **os.File) Option {
	return func(c *Context) { c.files = capture.NewFileCapturer(slot) }
}

// WithConsole sets where Config.Console mirrors records (default os.Stderr).
func WithConsole(w io.Writer) Option {
	return func(c *Context) { c.console = w }
}

// WithClock overrides the clock used for generated file names.
func WithClock(now func() time.Time) Option {
	return func(c *Context) { c.now = now }
}

// NewContext returns an unconfigured Context.
func NewContext(opts ...Option) *Context {
	c := &Context{
		console: os.Stderr,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.capturer == nil {
		c.stdout = os.Stdout
		c.capturer = capture.NewCapturer(&c.stdout)
	}
	if c.files == nil {
		c.files = capture.NewFileCapturer(&os.Stdout)
	}
	c.lines = c.newLineWriter(slog.LevelInfo, StdoutSource)
	return c
}

// Setup opens the sink described by cfg and makes it the active one. Any
// previous sink is closed after the new one is in place.
func (c *Context) Setup(cfg Config) (*slog.Logger, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setupLocked(cfg)
}

// SetupWithStdoutCapture runs Setup and then mirrors standard output into
// the log. Escape sequences are stripped from the log copy unless
// cfg.KeepANSI is set.
//
// By default the writer returned by Stdout is captured. With
// cfg.CaptureFile the os.Stdout file itself is replaced by a pipe; then
// RestoreStdout or Close must run before the process exits.
func (c *Context) SetupWithStdoutCapture(cfg Config) (*slog.Logger, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	logger, err := c.setupLocked(cfg)
	if err != nil {
		return nil, err
	}

	strip := !cfg.KeepANSI
	if cfg.CaptureFile {
		c.capturer.Restore()
		err = c.files.Install(c.lines, strip)
	} else {
		c.files.Restore()
		err = c.capturer.Install(c.lines, strip)
	}
	if err != nil {
		return nil, err
	}
	return logger, nil
}

func (c *Context) setupLocked(cfg Config) (*slog.Logger, error) {
	cfg = cfg.withDefaults()

	loc, err := ParseTimezone(cfg.Timezone)
	if err != nil {
		return nil, err
	}
	if cfg.Filename != "" {
		if err := ValidateFilename(cfg.Filename); err != nil {
			return nil, err
		}
	}

	writer, err := openSink(cfg, c.now().In(loc))
	if err != nil {
		return nil, err
	}

	path := writer.Path()
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	logger := slog.New(c.newHandler(cfg, loc, writer))

	prev := c.writer
	c.cfg = cfg
	c.path = path
	c.loc = loc
	c.writer = writer
	c.logger.Store(logger)
	if c.setDefault {
		if c.prevDefault == nil {
			c.prevDefault = slog.Default()
			c.prevLogOutput = log.Writer()
			c.prevLogFlags = log.Flags()
		}
		slog.SetDefault(logger)
	}

	if prev != nil {
		// Records already on their way to the old file finish first.
		c.emitting.Lock()
		_ = prev.Close()
		c.emitting.Unlock()
	}
	return logger, nil
}

func (c *Context) newHandler(cfg Config, loc *time.Location, w io.Writer) slog.Handler {
	level := new(slog.LevelVar)
	level.Set(cfg.Level())

	file := NewLineHandler(w, HandlerOptions{Level: level, Location: loc})
	if !cfg.Console || c.console == nil {
		return file
	}
	console := NewLineHandler(c.console, HandlerOptions{
		Level:      level,
		Location:   loc,
		LevelStyle: consoleLevelStyle(c.console),
	})
	return TeeHandler(file, console)
}

// Logger returns the active logger. When nothing has been set up yet it
// applies DefaultConfig; if even that fails it returns a stderr logger.
// It never returns nil.
func (c *Context) Logger() *slog.Logger {
	if l := c.logger.Load(); l != nil {
		return l
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if l := c.logger.Load(); l != nil {
		return l
	}
	if l := c.fallback.Load(); l != nil {
		return l
	}

	l, err := c.setupLocked(DefaultConfig())
	if err == nil {
		return l
	}

	console := c.console
	if console == nil {
		console = os.Stderr
	}
	l = slog.New(NewLineHandler(console, HandlerOptions{Location: DefaultLocation()}))
	l.Warn(fmt.Sprintf("file logging unavailable, using stderr: %v", err))
	c.fallback.Store(l)
	return l
}

// current returns the active or fallback logger without taking c.mu.
func (c *Context) current() *slog.Logger {
	if l := c.logger.Load(); l != nil {
		return l
	}
	return c.fallback.Load()
}

func (c *Context) newLineWriter(level slog.Level, source string) *LineWriter {
	w := NewLineWriter(c.current, level, source)
	w.guard = c.emitting.RLocker()
	return w
}

// RestoreStdout stops mirroring standard output. It is a no-op when capture
// is not active.
func (c *Context) RestoreStdout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.restoreLocked()
}

func (c *Context) restoreLocked() {
	c.capturer.Restore()
	c.files.Restore()
}

// Capturing reports whether standard output is being mirrored.
func (c *Context) Capturing() bool {
	return c.capturer.Installed() || c.files.Installed()
}

// Stdout returns the writer hosts print to. While capture is active it is
// the mirroring proxy (or the pipe, with Config.CaptureFile); otherwise it
// is the original standard output.
func (c *Context) Stdout() io.Writer {
	if c.files.Installed() {
		return c.files.File()
	}
	return c.capturer.Writer()
}

// CurrentLogFile returns the absolute path of the active log file, or ""
// before the first Setup.
func (c *Context) CurrentLogFile() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.path
}

// CurrentTimezone returns the active timezone, or nil before the first Setup.
func (c *Context) CurrentTimezone() *time.Location {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loc
}

// CurrentConfig returns the applied configuration and whether one exists.
func (c *Context) CurrentConfig() (Config, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg, c.writer != nil
}

// StreamWriter returns a LineWriter that logs each line at level through
// the active logger, labelled source in place of a caller location.
func (c *Context) StreamWriter(level slog.Level, source string) *LineWriter {
	c.Logger()
	return c.newLineWriter(level, source)
}

// Close restores stdout, puts back the default logger that Setup replaced
// and closes the active file. The Context can be set up again afterwards.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.restoreLocked()
	if c.prevDefault != nil {
		slog.SetDefault(c.prevDefault)
		log.SetOutput(c.prevLogOutput)
		log.SetFlags(c.prevLogFlags)
		c.prevDefault = nil
		c.prevLogOutput = nil
	}
	c.logger.Store(nil)

	var err error
	if c.writer != nil {
		c.emitting.Lock()
		err = c.writer.Close()
		c.emitting.Unlock()
	}
	c.writer = nil
	c.path = ""
	c.loc = nil
	c.cfg = Config{}
	return err
}
