// @focus: #sys { io } #input { parser }
package terminal

import (
	"sync"
	"time"
	"unicode/utf8"
)

// escapeTimeout is the duration to wait after ESC to distinguish
// standalone ESC from escape sequence start
const escapeTimeout = 50 * time.Millisecond

// inputParser turns raw tty bytes into events.
// Partial sequences are kept across feeds until completed or flushed.
type inputParser struct {
	mu   sync.Mutex
	mode InputMode

	// Persistent buffer for stream assembly, not fixed size zero-alloc to avoid corrupting partial UTF-8 at boundary
	buf []byte
}

func newInputParser() *inputParser {
	return &inputParser{
		mode: InputEsc,
		buf:  make([]byte, 0, 256),
	}
}

// setMode changes ESC handling for bytes parsed afterwards
func (p *inputParser) setMode(mode InputMode) {
	p.mu.Lock()
	p.mode = mode
	p.mu.Unlock()
}

// feed parses as much as possible and reports whether a lone ESC is pending
func (p *inputParser) feed(data []byte, emit func(Event)) (pendingEsc bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.buf = append(p.buf, data...)
	consumed := p.parse(p.buf, emit)

	// Compact buffer
	if consumed >= len(p.buf) {
		p.buf = p.buf[:0]
	} else if consumed > 0 {
		copy(p.buf, p.buf[consumed:])
		p.buf = p.buf[:len(p.buf)-consumed]
	}
	return len(p.buf) > 0 && p.buf[0] == 0x1b
}

// flush resolves whatever is left after the escape timeout.
// A lone ESC becomes KeyEsc, an unfinished sequence is dropped.
func (p *inputParser) flush(emit func(Event)) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.buf) == 0 {
		return
	}
	if p.buf[0] == 0x1b {
		if len(p.buf) == 1 {
			emit(Event{Type: EventKey, Key: KeyEsc})
			p.buf = p.buf[:0]
			return
		}
		// Unterminated sequence: report ESC, reparse the rest as plain input
		rest := append([]byte(nil), p.buf[1:]...)
		p.buf = p.buf[:0]
		emit(Event{Type: EventKey, Key: KeyEsc})
		n := p.parse(rest, emit)
		p.buf = append(p.buf, rest[n:]...)
		return
	}
	p.buf = p.buf[:0]
}

// parse parses raw bytes into events and returns bytes consumed (stop on incomplete sequence)
func (p *inputParser) parse(data []byte, emit func(Event)) int {
	i := 0
	n := len(data)

	for i < n {
		b := data[i]

		// Fast path: printable ASCII
		if b > 0x20 && b < 0x7f {
			emit(Event{Type: EventKey, Ch: rune(b)})
			i++
			continue
		}

		// Escape sequence
		if b == 0x1b {
			// Need at least 2 bytes to determine sequence type
			if i+1 >= n {
				return i
			}

			consumed, ev, ok := p.parseEscape(data[i:])
			if consumed == 0 {
				return i
			}
			if ok {
				emit(ev)
			}
			i += consumed
			continue
		}

		// Control characters, space and DEL report their byte as the key
		if b <= 0x20 || b == 0x7f {
			emit(Event{Type: EventKey, Key: Key(b)})
			i++
			continue
		}

		// UTF-8 multibyte
		if !utf8.FullRune(data[i:]) {
			return i
		}
		r, size := utf8.DecodeRune(data[i:])
		emit(Event{Type: EventKey, Ch: r})
		i += size
	}
	return i
}

// parseEscape attempts to parse an escape sequence, returns 0 on incomplete.
// ok is false for recognized-but-unknown sequences that are swallowed.
func (p *inputParser) parseEscape(data []byte) (int, Event, bool) {
	switch data[1] {
	case '[':
		return p.parseCSI(data)
	case 'O':
		// ESC O alone is Alt+O until more bytes arrive
		return p.parseSS3(data)
	}

	if p.mode&InputAlt == 0 {
		// Esc mode: ESC is its own key, the next byte is parsed normally
		return 1, Event{Type: EventKey, Key: KeyEsc}, true
	}

	// Alt mode: ESC prefixes the following key
	if data[1] == 0x1b {
		return 2, Event{Type: EventKey, Key: KeyEsc, Mod: ModAlt}, true
	}
	if data[1] <= 0x20 || data[1] == 0x7f {
		return 2, Event{Type: EventKey, Key: Key(data[1]), Mod: ModAlt}, true
	}
	if !utf8.FullRune(data[1:]) {
		return 0, Event{}, false
	}
	r, size := utf8.DecodeRune(data[1:])
	return 1 + size, Event{Type: EventKey, Ch: r, Mod: ModAlt}, true
}

// parseCSI parses CSI sequence without allocation
func (p *inputParser) parseCSI(data []byte) (int, Event, bool) {
	if len(data) < 3 {
		return 0, Event{}, false
	}

	// SGR mouse: ESC [ < Btn ; X ; Y M/m
	if data[2] == '<' {
		return p.parseSGRMouse(data)
	}

	end := 2
	maxScan := min(len(data), 16)

	// Linux console function keys carry an extra '['
	if data[2] == '[' {
		end = 3
	}

	for end < maxScan {
		b := data[end]
		if (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || b == '~' {
			if key, mod, ok := lookupCSI(data[2 : end+1]); ok {
				return end + 1, Event{Type: EventKey, Key: key, Mod: mod}, true
			}
			// Unknown but valid CSI syntax, consume
			return end + 1, Event{}, false
		}
		if b < 0x20 || b > 0x7e {
			// Not a CSI after all, treat ESC [ as input
			return p.fallback(data)
		}
		end++
	}

	if maxScan == 16 {
		return p.fallback(data)
	}
	return 0, Event{}, false
}

// parseSS3 parses SS3 sequence without allocation, returns length even for unknown sequences
func (p *inputParser) parseSS3(data []byte) (int, Event, bool) {
	if len(data) < 3 {
		return 0, Event{}, false
	}
	if key, mod, ok := lookupSS3(data[2:3]); ok {
		return 3, Event{Type: EventKey, Key: key, Mod: mod}, true
	}
	return 3, Event{}, false
}

// fallback handles ESC followed by a byte that did not start a known sequence
func (p *inputParser) fallback(data []byte) (int, Event, bool) {
	if p.mode&InputAlt != 0 {
		return 2, Event{Type: EventKey, Ch: rune(data[1]), Mod: ModAlt}, true
	}
	return 1, Event{Type: EventKey, Key: KeyEsc}, true
}

// parseSGRMouse parses mouse SGR sequences
func (p *inputParser) parseSGRMouse(data []byte) (int, Event, bool) {
	// Format: ESC [ < Btn ; X ; Y M/m
	// Find terminator M or m
	end := 3
	for end < len(data) && end < 32 {
		if data[end] == 'M' || data[end] == 'm' {
			break
		}
		end++
	}
	if end >= len(data) {
		if end >= 32 {
			return end, Event{}, false
		}
		return 0, Event{}, false
	}

	btn, x, y, ok := parseSGRParams(data[3:end])
	if !ok {
		return end + 1, Event{}, false
	}

	ev := Event{Type: EventMouse, X: int32(x - 1), Y: int32(y - 1)} // Convert to 0-indexed

	// Bits 0-1: button (0=left, 1=middle, 2=right, 3=release)
	// Bit 5 (32): motion
	// Bit 6 (64): scroll
	buttonID := btn & 0x03
	if btn&32 != 0 {
		ev.Mod |= ModMotion
	}
	if btn&8 != 0 {
		ev.Mod |= ModAlt
	}

	switch {
	case btn&64 != 0:
		if buttonID == 0 {
			ev.Key = MouseWheelUp
		} else {
			ev.Key = MouseWheelDown
		}
	case data[end] == 'm' || buttonID == 3:
		ev.Key = MouseRelease
	case buttonID == 0:
		ev.Key = MouseLeft
	case buttonID == 1:
		ev.Key = MouseMiddle
	default:
		ev.Key = MouseRight
	}

	// Mouse reports are swallowed unless mouse mode was selected
	return end + 1, ev, p.mode&InputMouse != 0
}

// parseSGRParams extracts btn, x, y from "Btn;X;Y" format
func parseSGRParams(data []byte) (btn, x, y int, ok bool) {
	state := 0 // 0=btn, 1=x, 2=y
	val := 0

	for _, b := range data {
		if b == ';' {
			switch state {
			case 0:
				btn = val
			case 1:
				x = val
			}
			state++
			val = 0
			if state > 2 {
				return 0, 0, 0, false
			}
		} else if b >= '0' && b <= '9' {
			val = val*10 + int(b-'0')
			if val > 9999 { // Sanity limit
				return 0, 0, 0, false
			}
		} else {
			return 0, 0, 0, false
		}
	}

	if state != 2 {
		return 0, 0, 0, false
	}
	y = val
	return btn, x, y, true
}
