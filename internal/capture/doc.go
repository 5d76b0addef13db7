// Package capture mirrors the process's standard output into a second writer.
//
// A Proxy is an io.Writer decorator: every write goes to the console first,
// unmodified, and then a copy (optionally ANSI-stripped) goes to a sink.
// Sink failures never change what the console sees.
//
// A Capturer installs a Proxy in an io.Writer slot. Writes are synchronous,
// so output survives a process that exits without restoring.
//
// A FileCapturer installs a Proxy behind a *os.File slot (normally
// &os.Stdout) by handing out the write end of a pipe and pumping the read
// end through the Proxy. It also sees fmt.Println and inherited descriptors,
// but output still in the pipe at exit is lost unless Restore runs first.
//
// Restore puts the exact original writer or file back in the slot.
package capture
