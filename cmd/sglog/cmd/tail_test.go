package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tailSample = `2026-01-02T12:00:00.000+09:00 DEBUG main.go:10 starting
2026-01-02T12:00:01.000+09:00 INFO main.go:12 listening port=8080
2026-01-02T12:00:02.000+09:00 WARN stdout disk almost full
2026-01-02T12:00:03.000+09:00 ERROR - request failed
`

func writeTailSample(t *testing.T, dir, name string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(tailSample), 0o644))
	return path
}

func TestTailCmd_LastLines(t *testing.T) {
	dir := isolate(t)
	path := writeTailSample(t, dir, "app.log")

	stdout, stderr, code := runRoot(t, "tail", "--file", path, "-n", "2", "--no-color")

	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stderr, "Log file: "+path)
	assert.Equal(t,
		"12:00:02.000 WARN  stdout disk almost full\n"+
			"12:00:03.000 ERROR - request failed\n",
		stdout)
}

func TestTailCmd_NewestFileInDir(t *testing.T) {
	dir := isolate(t)
	writeTailSample(t, filepath.Join(dir, "out"), "20260102_120000.log")

	stdout, stderr, code := runRoot(t, "tail", "--no-color")

	require.Equal(t, 0, code, stderr)
	assert.Equal(t, 4, strings.Count(stdout, "\n"))
}

func TestTailCmd_LinesFromConfig(t *testing.T) {
	dir := isolate(t)
	writeTailSample(t, filepath.Join(dir, "out"), "20260102_120000.log")
	t.Setenv("SGLOG_TAIL_LINES", "1")

	stdout, stderr, code := runRoot(t, "tail", "--no-color")

	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "12:00:03.000 ERROR - request failed\n", stdout)
}

func TestTailCmd_Filters(t *testing.T) {
	dir := isolate(t)
	path := writeTailSample(t, dir, "app.log")

	stdout, stderr, code := runRoot(t, "tail", "--file", path, "--level", "WARN", "--filter", "disk", "--no-color")

	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "12:00:02.000 WARN  stdout disk almost full\n", stdout)
}

func TestTailCmd_InvalidLevel(t *testing.T) {
	dir := isolate(t)
	path := writeTailSample(t, dir, "app.log")

	_, stderr, code := runRoot(t, "tail", "--file", path, "--level", "loud")

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "ERR_402_INVALID_LEVEL")
}

func TestTailCmd_InvalidFilter(t *testing.T) {
	dir := isolate(t)
	path := writeTailSample(t, dir, "app.log")

	_, stderr, code := runRoot(t, "tail", "--file", path, "--filter", "([")

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "invalid filter pattern")
}

func TestTailCmd_MissingFile(t *testing.T) {
	dir := isolate(t)

	_, stderr, code := runRoot(t, "tail", "--file", filepath.Join(dir, "nope.log"))

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "ERR_204_FILE_NOT_FOUND")
}

func TestUseColor(t *testing.T) {
	assert.False(t, useColor("always", true, os.Stdout))
	assert.True(t, useColor("always", false, nil))
	assert.False(t, useColor("never", false, os.Stdout))
	assert.False(t, useColor("auto", false, &strings.Builder{}))
}
