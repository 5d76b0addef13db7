package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriter_Status_PrintsIconAndMessage(t *testing.T) {
	// Given: a writer with a buffer
	buf := &bytes.Buffer{}
	w := New(buf)

	// When: printing a status message
	w.Status("*", "Capturing stdout")

	// Then: output contains icon and message
	assert.Equal(t, "* Capturing stdout\n", buf.String())
}

func TestWriter_Status_NoIconIndents(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf).Status("", "detail")

	assert.Equal(t, "   detail\n", buf.String())
}

func TestWriter_Levels_PlainWithoutTerminal(t *testing.T) {
	// Given: a buffer, which is never a terminal
	buf := &bytes.Buffer{}
	w := New(buf)

	// When: printing each kind of message
	w.Successf("wrote %d lines", 3)
	w.Warningf("skipped %s", "x")
	w.Errorf("failed: %v", "boom")

	// Then: messages carry icons and no escape codes
	out := buf.String()
	assert.Contains(t, out, "✓ wrote 3 lines\n")
	assert.Contains(t, out, "! skipped x\n")
	assert.Contains(t, out, "✗ failed: boom\n")
	assert.NotContains(t, out, "\x1b[")
}

func TestWriter_KeyValue(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf).KeyValue("file", "/tmp/out/app.log")

	assert.Equal(t, "   file:      /tmp/out/app.log\n", buf.String())
}

func TestWriter_Code_IndentsLines(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf).Code("a: 1\nb: 2\n")

	lines := strings.Split(buf.String(), "\n")
	assert.Equal(t, []string{"", "  a: 1", "  b: 2", "", ""}, lines)
}

func TestWriter_Newline(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf).Newline()

	assert.Equal(t, "\n", buf.String())
}
