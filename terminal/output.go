// @lixen: #focus{sys[term,io,output]}
// @lixen: #interact{trigger[output,ansi]}
package terminal

import (
	"bufio"
	"io"

	"github.com/mattn/go-runewidth"
)

// staleRune marks front cells whose on-screen content is unknown
const staleRune rune = -1

// outputBuffer diffs the back buffer against what the terminal shows
type outputBuffer struct {
	front  []Cell
	width  int
	height int
	mode   OutputMode
	writer *bufio.Writer

	cursorX     int
	cursorY     int
	cursorValid bool

	// Style state for coalescing
	lastFg    Attribute
	lastBg    Attribute
	lastValid bool
}

// newOutputBuffer creates a new output buffer
func newOutputBuffer(w io.Writer) *outputBuffer {
	return &outputBuffer{
		writer: bufio.NewWriterSize(w, 131072), // 128KB buffer
		mode:   OutputNormal,
	}
}

// resize updates buffer dimensions and forces a full redraw
func (o *outputBuffer) resize(width, height int) {
	size := width * height
	if cap(o.front) < size {
		o.front = make([]Cell, size)
	} else {
		o.front = o.front[:size]
	}
	o.width = width
	o.height = height
	o.invalidate()
}

// invalidate forgets everything known about the physical screen
func (o *outputBuffer) invalidate() {
	for i := range o.front {
		o.front[i] = Cell{Ch: staleRune}
	}
	o.lastValid = false
	o.cursorValid = false
}

// setMode switches color translation; cells already drawn are repainted
func (o *outputBuffer) setMode(mode OutputMode) {
	if mode == o.mode {
		return
	}
	o.mode = mode
	o.invalidate()
}

// flush writes the back buffer to terminal, diffing against front buffer
func (o *outputBuffer) flush(back *CellBuffer) error {
	width, height := back.Size()
	if width != o.width || height != o.height {
		o.resize(width, height)
	}

	w := o.writer

	for y := 0; y < height; y++ {
		row := back.Row(y)
		rowStart := y * width
		x := 0

		for x < width {
			idx := rowStart + x
			if row[x] == o.front[idx] {
				x++
				continue
			}

			// Position cursor once for this dirty region
			if !o.cursorValid || x != o.cursorX || y != o.cursorY {
				if o.cursorValid && y == o.cursorY && x > o.cursorX {
					writeCursorForward(w, x-o.cursorX)
				} else {
					writeCursorPos(w, x, y)
				}
				o.cursorX = x
				o.cursorY = y
				o.cursorValid = true
			}

			// Write all contiguous dirty cells, emitting style only when changed
			for x < width {
				cidx := rowStart + x
				c := row[x]
				if c == o.front[cidx] {
					break
				}

				o.writeStyle(w, c.Fg, c.Bg)

				r := c.Ch
				if r == 0 {
					r = ' '
				}
				if r < 0x80 {
					w.WriteByte(byte(r))
				} else {
					w.WriteRune(r)
				}
				o.front[cidx] = c

				cw := runewidth.RuneWidth(r)
				if cw < 1 {
					cw = 1
				}
				// A wide rune covers the following cell
				for i := 1; i < cw && x+i < width; i++ {
					o.front[cidx+i] = row[x+i]
				}
				o.cursorX += cw
				x += cw
			}
		}
	}

	w.Write(csiSGR0)
	o.lastValid = false

	return w.Flush()
}

// writeStyle emits a single combined SGR sequence when style changes
func (o *outputBuffer) writeStyle(w *bufio.Writer, fg, bg Attribute) {
	if o.lastValid && fg == o.lastFg && bg == o.lastBg {
		return
	}

	w.Write(csi)
	w.WriteByte('0')
	if fg&AttrBold != 0 {
		w.Write([]byte(";1"))
	}
	if fg&AttrUnderline != 0 {
		w.Write([]byte(";4"))
	}
	// Bold on background renders as blink
	if bg&AttrBold != 0 {
		w.Write([]byte(";5"))
	}
	if (fg|bg)&AttrReverse != 0 {
		w.Write([]byte(";7"))
	}
	if idx, ok := ColorIndex(fg, o.mode); ok {
		w.WriteByte(';')
		o.writeColor(w, idx, 30, 90, "38;5;")
	}
	if idx, ok := ColorIndex(bg, o.mode); ok {
		w.WriteByte(';')
		o.writeColor(w, idx, 40, 100, "48;5;")
	}
	w.WriteByte('m')

	o.lastFg = fg
	o.lastBg = bg
	o.lastValid = true
}

// writeColor writes SGR color parameters (no CSI prefix, no 'm' suffix)
func (o *outputBuffer) writeColor(w *bufio.Writer, idx, base, brightBase int, indexed string) {
	if o.mode == OutputNormal || o.mode == OutputCurrent {
		if idx < 8 {
			writeInt(w, base+idx)
		} else {
			writeInt(w, brightBase+idx-8)
		}
		return
	}
	w.WriteString(indexed)
	writeInt(w, idx)
}

// clear wipes the physical screen
func (o *outputBuffer) clear() error {
	w := o.writer
	w.Write(csiSGR0)
	w.Write(csiClear)
	o.invalidate()
	return w.Flush()
}

// moveCursor queues cursor placement; it reaches the terminal on the next flush
func (o *outputBuffer) moveCursor(x, y int) {
	w := o.writer
	if x < 0 || y < 0 {
		w.Write(csiCursorHide)
	} else {
		writeCursorPos(w, x, y)
		w.Write(csiCursorShow)
	}
	o.cursorValid = false
}

// writeRaw writes control sequences through the buffered writer to keep stream order
func (o *outputBuffer) writeRaw(seqs ...[]byte) error {
	for _, s := range seqs {
		o.writer.Write(s)
	}
	return o.writer.Flush()
}
