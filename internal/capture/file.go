package capture

import (
	"io"
	"os"
	"sync"

	lerrors "github.com/hasegama/simple-global-logging/internal/errors"
)

// pumpBufferSize is the read size of the pipe pump. Reads return as soon as
// any data is available, so this does not delay console output.
const pumpBufferSize = 32 * 1024

// FileCapturer swaps a *os.File slot for a pipe whose output is mirrored by
// a Proxy, so writes that bypass any io.Writer (fmt.Println, child processes
// inheriting the descriptor) are captured too.
//
// Output reaches the console only once the pump has read it from the pipe.
// Restore must run before the process exits or pending output is lost.
type FileCapturer struct {
	mu        sync.Mutex
	slot      **os.File
	installed bool
	original  *os.File
	proxy     *Proxy
	pw        *os.File
	done      chan struct{}
}

// NewFileCapturer returns a FileCapturer for slot. A nil slot means
// &os.Stdout.
func NewFileCapturer(slot **os.File) *FileCapturer {
	if slot == nil {
		slot = &os.Stdout
	}
	return &FileCapturer{slot: slot}
}

// Install starts mirroring writes on the slot into sink.
//
// The first Install remembers the slot's current file as the original.
// Installing again replaces the active proxy; the console side stays the
// original file, so repeated installs never chain.
func (c *FileCapturer) Install(sink io.Writer, stripANSI bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	original := c.original
	if !c.installed {
		original = *c.slot
	}

	r, w, err := os.Pipe()
	if err != nil {
		return lerrors.New(lerrors.ErrCodePipe, "create stdout capture pipe", err)
	}

	var console io.Writer = io.Discard
	if original != nil {
		console = original
	}
	proxy := NewProxy(console, sink, stripANSI)
	done := make(chan struct{})
	go pump(r, proxy, done)

	*c.slot = w

	if c.installed {
		c.teardownLocked()
	}
	c.installed = true
	c.original = original
	c.proxy = proxy
	c.pw = w
	c.done = done
	return nil
}

// Restore puts the original file back in the slot and stops mirroring.
// Pending output is drained to both sides first. Calling Restore when
// nothing is installed does nothing.
func (c *FileCapturer) Restore() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.installed {
		return
	}
	*c.slot = c.original
	c.teardownLocked()
	c.installed = false
	c.original = nil
}

// Installed reports whether a proxy is active.
func (c *FileCapturer) Installed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.installed
}

// File returns what the slot currently holds.
func (c *FileCapturer) File() *os.File {
	c.mu.Lock()
	defer c.mu.Unlock()
	return *c.slot
}

// teardownLocked closes the active pipe, waits for the pump to drain and
// flushes the proxy.
func (c *FileCapturer) teardownLocked() {
	if c.pw != nil {
		_ = c.pw.Close()
	}
	if c.done != nil {
		<-c.done
	}
	if c.proxy != nil {
		c.proxy.detach()
	}
	c.pw = nil
	c.done = nil
	c.proxy = nil
}

// pump copies r into dst until r hits EOF. Unlike io.Copy it keeps reading
// after a failed write so writers on the other end never block on a full pipe.
func pump(r *os.File, dst io.Writer, done chan<- struct{}) {
	defer close(done)
	defer func() { _ = r.Close() }()

	buf := make([]byte, pumpBufferSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			_, _ = dst.Write(buf[:n])
		}
		if err != nil {
			return
		}
	}
}
