package globallog

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reset closes the process state and puts the previous slog default back.
func reset(t *testing.T) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() {
		_ = Close()
		slog.SetDefault(prev)
	})
}

func logText(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(CurrentLogFile())
	require.NoError(t, err)
	return string(data)
}

func TestSetup_InstallsDefaultLogger(t *testing.T) {
	reset(t)
	dir := t.TempDir()

	logger, err := Setup(Config{BaseDir: dir, Filename: "app.log"})
	require.NoError(t, err)
	require.NotNil(t, logger)

	slog.Info("through slog default", "n", 1)
	logger.Warn("through returned logger")

	assert.Equal(t, filepath.Join(dir, "app.log"), CurrentLogFile())
	_, offset := time.Now().In(CurrentTimezone()).Zone()
	assert.Equal(t, 9*60*60, offset)
	assert.Same(t, logger, Logger())

	text := logText(t)
	assert.Contains(t, text, " INFO globallog_test.go:")
	assert.Contains(t, text, " through slog default n=1\n")
	assert.Contains(t, text, " WARN globallog_test.go:")
}

func TestSetup_RejectsBadConfig(t *testing.T) {
	reset(t)

	_, err := Setup(Config{BaseDir: t.TempDir(), Timezone: "+99:00"})
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
	assert.False(t, IsIOError(err))

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	_, err = Setup(Config{BaseDir: blocker})
	require.Error(t, err)
	assert.True(t, IsIOError(err))
}

func TestSetupWithStdoutCapture_Writer(t *testing.T) {
	reset(t)
	original := os.Stdout

	_, err := SetupWithStdoutCapture(Config{BaseDir: t.TempDir(), Filename: "capture.log"})
	require.NoError(t, err)
	assert.Same(t, original, os.Stdout, "the os.Stdout file is left alone")
	assert.NotSame(t, original, Stdout())

	fmt.Fprintln(Stdout(), "\x1b[1mbold\x1b[0m line")

	// Logged before any restore.
	assert.Contains(t, logText(t), " INFO stdout bold line\n")
	RestoreStdout()
	assert.Same(t, original, Stdout())
}

func TestSetupWithStdoutCapture_File(t *testing.T) {
	reset(t)
	original := os.Stdout

	_, err := SetupWithStdoutCapture(Config{BaseDir: t.TempDir(), Filename: "capture.log", CaptureFile: true})
	require.NoError(t, err)
	assert.NotSame(t, original, os.Stdout)

	fmt.Println("\x1b[32mgreen\x1b[0m line")
	RestoreStdout()

	assert.Same(t, original, os.Stdout)
	assert.Contains(t, logText(t), " INFO stdout green line\n")

	// Restoring twice is harmless.
	RestoreStdout()
	assert.Same(t, original, os.Stdout)
}

func TestClose_RestoresSlogDefault(t *testing.T) {
	// Given: a host that had its own default logger
	var before strings.Builder
	prev := slog.New(slog.NewTextHandler(&before, nil))
	orig := slog.Default()
	slog.SetDefault(prev)
	t.Cleanup(func() { slog.SetDefault(orig) })

	_, err := Setup(Config{BaseDir: t.TempDir(), Filename: "close.log"})
	require.NoError(t, err)
	assert.NotSame(t, prev, slog.Default())

	// When: closing
	require.NoError(t, Close())

	// Then: slog goes back to the host's logger
	assert.Same(t, prev, slog.Default())
	slog.Info("after close")
	assert.Contains(t, before.String(), "msg=\"after close\"")
}

// TestExitHelperProcess is run as a child by TestExitWithoutRestore.
func TestExitHelperProcess(t *testing.T) {
	dir := os.Getenv("GLOBALLOG_HELPER_DIR")
	if dir == "" {
		return
	}
	if _, err := SetupWithStdoutCapture(Config{BaseDir: dir, Filename: "app.log"}); err != nil {
		os.Exit(2)
	}
	fmt.Fprintln(Stdout(), "VISIBLE-LINE")
	os.Exit(0)
}

func TestExitWithoutRestore(t *testing.T) {
	dir := t.TempDir()

	for i := 0; i < 5; i++ {
		// Given: a child that captures, prints and exits without restoring
		cmd := exec.Command(os.Args[0], "-test.run=^TestExitHelperProcess$")
		cmd.Env = append(os.Environ(), "GLOBALLOG_HELPER_DIR="+dir)

		// When: it runs
		out, err := cmd.Output()
		require.NoError(t, err)

		// Then: both the console and the log have the line
		assert.Equal(t, "VISIBLE-LINE\n", string(out), "run %d", i)
		data, err := os.ReadFile(filepath.Join(dir, "app.log"))
		require.NoError(t, err)
		assert.Equal(t, i+1, strings.Count(string(data), " INFO stdout VISIBLE-LINE\n"), "run %d", i)
	}
}

func TestLogger_LazyDefault(t *testing.T) {
	reset(t)
	t.Chdir(t.TempDir())

	logger := Logger()

	require.NotNil(t, logger)
	assert.Equal(t, "out", filepath.Base(filepath.Dir(CurrentLogFile())))
}

func TestParseTimezone(t *testing.T) {
	loc, err := ParseTimezone("-05:00")
	require.NoError(t, err)
	_, offset := time.Now().In(loc).Zone()
	assert.Equal(t, -5*60*60, offset)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "out", cfg.BaseDir)
	assert.Equal(t, "+09:00", cfg.Timezone)
	assert.False(t, cfg.Verbose)
}

type fakeRunner struct {
	code int
	run  func()
}

func (r fakeRunner) Run() int {
	r.run()
	return r.code
}

func TestMain_CapturesAndRestores(t *testing.T) {
	reset(t)
	original := os.Stdout
	dir := t.TempDir()

	code := Main(fakeRunner{code: 3, run: func() {
		fmt.Println("inside run")
	}}, Config{BaseDir: dir, Filename: "main.log", Verbose: true})

	assert.Equal(t, 3, code)
	assert.Same(t, original, os.Stdout)

	text := logText(t)
	assert.Contains(t, text, " stdout inside run\n")
	assert.Contains(t, text, " run finished exit_code=3\n")
	assert.Less(t, strings.Index(text, "run started"), strings.Index(text, "inside run"))
}

func TestMain_SetupFailureStillRuns(t *testing.T) {
	reset(t)
	ran := false

	code := Main(fakeRunner{code: 0, run: func() { ran = true }}, Config{Timezone: "bogus"})

	assert.True(t, ran)
	assert.Equal(t, 0, code)
}
