// @focus: #sys { term } #output { attr }
package terminal

// Attribute packs a color id in the low byte and style bits above it
type Attribute uint16

// Colors valid in OutputNormal; other output modes use the low byte as a palette offset
const (
	ColorDefault Attribute = iota
	ColorBlack
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
	ColorWhite
)

// Style bits, OR-ed onto a color
const (
	AttrBold      Attribute = 0x0100
	AttrUnderline Attribute = 0x0200
	AttrReverse   Attribute = 0x0400
)

// attrColorMask selects the color id
const attrColorMask Attribute = 0x00FF

// Color returns the color id with style bits stripped
func (a Attribute) Color() Attribute {
	return a & attrColorMask
}

// InputMode controls how ESC and mouse input are reported (bitmask)
type InputMode int

const (
	InputCurrent InputMode = 0
	InputEsc     InputMode = 1 << 0 // Lone ESC is reported as KeyEsc
	InputAlt     InputMode = 1 << 1 // ESC followed by a key sets ModAlt
	InputMouse   InputMode = 1 << 2 // Mouse reporting enabled
)

// Normalize applies the rule that exactly one of InputEsc and InputAlt is set.
// Esc is chosen when neither is present, Alt is dropped when both are.
func (m InputMode) Normalize() InputMode {
	switch {
	case m&(InputEsc|InputAlt) == 0:
		m |= InputEsc
	case m&InputEsc != 0 && m&InputAlt != 0:
		m &^= InputAlt
	}
	return m
}

// OutputMode selects how color ids are translated to terminal colors
type OutputMode int

const (
	OutputCurrent OutputMode = iota
	OutputNormal
	Output256
	Output216
	OutputGrayscale
)

// Valid reports whether m names a known output mode, OutputCurrent included
func (m OutputMode) Valid() bool {
	return m >= OutputCurrent && m <= OutputGrayscale
}

// ColorIndex translates an attribute's color id into a palette index for mode.
// ok is false when the terminal default color applies.
func ColorIndex(a Attribute, mode OutputMode) (idx int, ok bool) {
	c := int(a & attrColorMask)
	switch mode {
	case Output256:
		return c, true
	case Output216:
		if c > 215 {
			c = 7
		}
		return c + 16, true
	case OutputGrayscale:
		if c > 23 {
			c = 23
		}
		return c + 232, true
	default:
		// Normal mode only honors the low nibble: 1..8 base colors, 9..15 bright
		c &= 0x0F
		if c == int(ColorDefault) {
			return 0, false
		}
		return c - 1, true
	}
}
