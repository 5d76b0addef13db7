package capture

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// consoleFile stands in for the process stdout.
func consoleFile(t *testing.T) *os.File {
	t.Helper()
	f, err := os.Create(filepath.Join(t.TempDir(), "console.txt"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func readFile(t *testing.T, f *os.File) string {
	t.Helper()
	data, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	return string(data)
}

func TestFileCapturer_InstallRestoreRoundTrip(t *testing.T) {
	// Given: a slot holding the console file
	console := consoleFile(t)
	slot := console
	c := NewFileCapturer(&slot)
	sink := &syncBuffer{}

	// When: installing and writing through the slot
	require.NoError(t, c.Install(sink, true))
	assert.True(t, c.Installed())
	assert.NotSame(t, console, slot, "slot should point at the pipe")

	_, err := fmt.Fprintln(slot, "\x1b[32mcaptured\x1b[0m")
	require.NoError(t, err)
	c.Restore()

	// Then: the slot holds the very same file again
	assert.Same(t, console, slot)
	assert.False(t, c.Installed())
	assert.Equal(t, "\x1b[32mcaptured\x1b[0m\n", readFile(t, console))
	assert.Equal(t, "captured\n", sink.String())

	// And: writes after restore are not mirrored
	_, err = fmt.Fprintln(slot, "after")
	require.NoError(t, err)
	assert.Equal(t, "captured\n", sink.String())
	assert.Equal(t, "\x1b[32mcaptured\x1b[0m\nafter\n", readFile(t, console))
}

func TestFileCapturer_ReinstallDoesNotChain(t *testing.T) {
	console := consoleFile(t)
	slot := console
	c := NewFileCapturer(&slot)
	first := &syncBuffer{}
	second := &syncBuffer{}

	require.NoError(t, c.Install(first, false))
	_, _ = fmt.Fprint(slot, "one\n")
	require.NoError(t, c.Install(second, false))

	_, _ = fmt.Fprint(slot, "two\n")
	c.Restore()

	assert.Same(t, console, slot)
	assert.Equal(t, "one\ntwo\n", readFile(t, console), "each write reaches the console once")
	assert.Equal(t, "one\n", first.String())
	assert.Equal(t, "two\n", second.String())
	assert.GreaterOrEqual(t, first.flushes, 1, "replaced proxy is flushed on teardown")
}

func TestFileCapturer_RestoreWithoutInstallIsNoop(t *testing.T) {
	console := consoleFile(t)
	slot := console
	c := NewFileCapturer(&slot)

	c.Restore()
	c.Restore()

	assert.Same(t, console, slot)
	assert.False(t, c.Installed())
}

func TestFileCapturer_RestoreTwice(t *testing.T) {
	console := consoleFile(t)
	slot := console
	c := NewFileCapturer(&slot)

	require.NoError(t, c.Install(&syncBuffer{}, true))
	c.Restore()
	c.Restore()

	assert.Same(t, console, slot)
}

func TestFileCapturer_PartialLineIsDrainedOnRestore(t *testing.T) {
	console := consoleFile(t)
	slot := console
	c := NewFileCapturer(&slot)
	sink := &syncBuffer{}

	require.NoError(t, c.Install(sink, true))
	_, _ = fmt.Fprint(slot, "no newline")
	c.Restore()

	assert.Equal(t, "no newline", readFile(t, console))
	assert.Equal(t, "no newline", sink.String())
	assert.Equal(t, 1, sink.flushes)
}

func TestFileCapturer_ProcessStdout(t *testing.T) {
	// Given: the real process stdout
	before := os.Stdout
	c := NewFileCapturer(nil)
	sink := &syncBuffer{}

	// When: capturing a Println
	require.NoError(t, c.Install(sink, true))
	t.Cleanup(c.Restore)
	fmt.Println("through the proxy")
	c.Restore()

	// Then: os.Stdout is the identical object again
	assert.Same(t, before, os.Stdout)
	assert.Equal(t, "through the proxy\n", sink.String())
}
