package capture

import (
	"io"
	"sync"
)

// Flusher is implemented by sinks that buffer partial content.
type Flusher interface {
	Flush() error
}

// Proxy duplicates writes to a console and a sink.
type Proxy struct {
	mu       sync.Mutex
	console  io.Writer
	sink     io.Writer
	stripper *ansiStripper
}

// NewProxy returns a Proxy that writes to console and mirrors into sink.
// When stripANSI is set the sink copy has escape sequences removed; the
// console copy never does.
func NewProxy(console, sink io.Writer, stripANSI bool) *Proxy {
	if console == nil {
		console = io.Discard
	}
	if sink == nil {
		sink = io.Discard
	}
	p := &Proxy{console: console, sink: sink}
	if stripANSI {
		p.stripper = &ansiStripper{}
	}
	return p
}

// Write forwards b to the console and reports the console's result. The sink
// copy is best effort; its errors are ignored.
// Empty writes reach the console and are skipped on the sink side.
func (p *Proxy) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n, err := p.console.Write(b)
	if len(b) == 0 {
		return n, err
	}

	data := b
	if p.stripper != nil {
		data = p.stripper.strip(b)
	}
	if len(data) > 0 {
		_, _ = p.sink.Write(data)
	}
	return n, err
}

// WriteString lets io.WriteString skip the []byte conversion at call sites.
func (p *Proxy) WriteString(s string) (int, error) {
	return p.Write([]byte(s))
}

// Flush releases held-back bytes and flushes the sink when it buffers.
func (p *Proxy) Flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.flushLocked()
}

func (p *Proxy) flushLocked() error {
	if p.stripper != nil {
		if rest := p.stripper.flush(); len(rest) > 0 {
			_, _ = p.sink.Write(rest)
		}
	}
	if f, ok := p.sink.(Flusher); ok {
		return f.Flush()
	}
	return nil
}

// detach flushes the sink and disconnects it. Writers still holding the
// Proxy keep reaching the console only.
func (p *Proxy) detach() {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.flushLocked()
	p.sink = io.Discard
	p.stripper = nil
}
