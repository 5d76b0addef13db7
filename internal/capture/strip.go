package capture

import (
	"bytes"

	"github.com/charmbracelet/x/ansi"
)

const (
	esc = 0x1b
	bel = 0x07

	// maxPendingEscape bounds how much of an unterminated escape sequence is
	// held back waiting for the next write.
	maxPendingEscape = 256
)

// ansiStripper removes terminal escape sequences from a byte stream whose
// chunks may split a sequence in two.
type ansiStripper struct {
	pending []byte
}

// strip returns p without escape sequences. A trailing sequence that is not
// yet terminated is kept back and prefixed to the next chunk.
func (s *ansiStripper) strip(p []byte) []byte {
	data := p
	if len(s.pending) > 0 {
		data = append(s.pending, p...)
		s.pending = nil
	}

	if cut := incompleteEscapeStart(data); cut >= 0 {
		s.pending = append([]byte(nil), data[cut:]...)
		data = data[:cut]
	}
	if len(data) == 0 {
		return nil
	}
	if bytes.IndexByte(data, esc) < 0 {
		return data
	}
	return []byte(ansi.Strip(string(data)))
}

// flush drops whatever incomplete sequence is still pending. The printable
// remainder, if any, is returned.
func (s *ansiStripper) flush() []byte {
	if len(s.pending) == 0 {
		return nil
	}
	rest := ansi.Strip(string(s.pending))
	s.pending = nil
	return []byte(rest)
}

// incompleteEscapeStart reports the index of a trailing escape sequence that
// has not been terminated yet, or -1.
func incompleteEscapeStart(data []byte) int {
	i := bytes.LastIndexByte(data, esc)
	if i < 0 || len(data)-i > maxPendingEscape {
		return -1
	}
	if i == len(data)-1 {
		return i
	}

	switch next := data[i+1]; {
	case next == '[':
		// CSI: parameter and intermediate bytes, then a final byte in 0x40-0x7E.
		for _, b := range data[i+2:] {
			switch {
			case b >= 0x40 && b <= 0x7e:
				return -1
			case b >= 0x20 && b <= 0x3f:
				continue
			default:
				return -1
			}
		}
		return i
	case next == ']' || next == 'P' || next == '_' || next == '^':
		// OSC/DCS/APC/PM run until BEL or ST. ST starts with ESC, so a
		// terminated string never reaches here as the last ESC.
		if bytes.IndexByte(data[i+2:], bel) >= 0 {
			return -1
		}
		return i
	case next >= 0x20 && next <= 0x2f:
		// nF escape such as ESC ( B needs one more byte.
		if len(data) == i+2 {
			return i
		}
		return -1
	default:
		return -1
	}
}
