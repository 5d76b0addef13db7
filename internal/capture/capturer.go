package capture

import (
	"io"
	"os"
	"sync"
)

// Capturer swaps an io.Writer slot for a Proxy. Writes through the slot are
// synchronous: the console has the bytes before Write returns, so nothing is
// lost when the process exits without Restore.
type Capturer struct {
	mu        sync.Mutex
	slot      *io.Writer
	installed bool
	original  io.Writer
	proxy     *Proxy
}

// NewCapturer returns a Capturer for slot. A nil slot gets a private one
// that starts out holding os.Stdout.
func NewCapturer(slot *io.Writer) *Capturer {
	if slot == nil {
		var w io.Writer = os.Stdout
		slot = &w
	}
	return &Capturer{slot: slot}
}

// Install starts mirroring writes on the slot into sink. The first Install
// remembers the slot's current writer as the original; installing again
// replaces the proxy without chaining.
func (c *Capturer) Install(sink io.Writer, stripANSI bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	original := c.original
	if !c.installed {
		original = *c.slot
	}
	if c.proxy != nil {
		c.proxy.detach()
	}

	c.proxy = NewProxy(original, sink, stripANSI)
	*c.slot = c.proxy
	c.original = original
	c.installed = true
	return nil
}

// Restore puts the original writer back in the slot and stops mirroring.
// Calling Restore when nothing is installed does nothing.
func (c *Capturer) Restore() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.installed {
		return
	}
	*c.slot = c.original
	c.proxy.detach()
	c.proxy = nil
	c.original = nil
	c.installed = false
}

// Installed reports whether a proxy is active.
func (c *Capturer) Installed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.installed
}

// Writer returns what the slot currently holds.
func (c *Capturer) Writer() io.Writer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return *c.slot
}
