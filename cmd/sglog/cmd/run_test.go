package cmd

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs /bin/sh")
	}
}

func TestRunCmd_LogsOutputAndPropagatesExitCode(t *testing.T) {
	requireShell(t)
	dir := isolate(t)

	// When: running a command that prints to both streams and fails
	stdout, stderr, code := runRoot(t, "run", "--dir", dir, "--filename", "run.log", "--",
		"sh", "-c", "printf '\\033[1mhello\\033[0m\\n'; echo oops >&2; exit 3")

	// Then: the exit code is the command's
	assert.Equal(t, 3, code)

	// And: the console saw the raw output, stderr was passed through
	assert.Equal(t, "\x1b[1mhello\x1b[0m\n", stdout)
	assert.Contains(t, stderr, "oops\n")

	// And: the log recorded both streams and the lifecycle
	data, err := os.ReadFile(filepath.Join(dir, "run.log"))
	require.NoError(t, err)
	log := string(data)
	assert.Contains(t, log, " INFO stdout hello\n")
	assert.Contains(t, log, " WARN stderr oops\n")
	assert.Contains(t, log, "command started command=")
	assert.Contains(t, log, "exit_code=3")
	assert.NotContains(t, log, "\x1b[")
}

func TestRunCmd_Success(t *testing.T) {
	requireShell(t)
	dir := isolate(t)

	stdout, stderr, code := runRoot(t, "run", "--dir", dir, "--filename", "ok.log", "--", "sh", "-c", "echo done")

	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "done\n", stdout)
	data, err := os.ReadFile(filepath.Join(dir, "ok.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), " INFO stdout done\n")
	assert.Contains(t, string(data), "exit_code=0")
}

func TestRunCmd_AppendsAcrossRuns(t *testing.T) {
	requireShell(t)
	dir := isolate(t)

	for _, word := range []string{"hello", "world"} {
		_, stderr, code := runRoot(t, "run", "--dir", filepath.Join(dir, "out"), "--filename", "app.log", "--", "echo", word)
		require.Equal(t, 0, code, stderr)
	}

	data, err := os.ReadFile(filepath.Join(dir, "out", "app.log"))
	require.NoError(t, err)
	log := string(data)
	assert.Less(t, strings.Index(log, "stdout hello"), strings.Index(log, "stdout world"))
	assert.Equal(t, 2, strings.Count(log, "command exited"))
}

func TestRunCmd_CommandNotFound(t *testing.T) {
	dir := isolate(t)
	original := os.Stdout

	_, stderr, code := runRoot(t, "run", "--dir", dir, "--filename", "nf.log", "--", "sglog-test-no-such-command")

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Error: start command")
	assert.Contains(t, stderr, "Code: ERR_401_INVALID_INPUT")
	assert.Same(t, original, os.Stdout)

	data, err := os.ReadFile(filepath.Join(dir, "nf.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), " ERROR ")
	assert.Contains(t, string(data), "error_code=ERR_401_INVALID_INPUT")
}

func TestRunCmd_RequiresCommand(t *testing.T) {
	isolate(t)

	_, stderr, code := runRoot(t, "run")

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "requires at least 1 arg")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 1, exitCode(os.ErrNotExist))
}
