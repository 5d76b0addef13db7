// Package logging configures a process-wide slog logger that writes to a
// timestamped (or explicitly named) file under a base directory.
//
// A Context owns the active sink: the resolved file path, the configured
// timezone and the open file writer. Calling Setup again replaces the sink
// wholesale and closes the previous file, so repeated setup never stacks
// handlers. SetupWithStdoutCapture additionally mirrors everything written
// to standard output into the log as INFO records.
//
// Records are plain text, one per line:
//
//	2026-10-18T21:04:05.123+09:00 INFO main.go:42 message key=value
package logging
