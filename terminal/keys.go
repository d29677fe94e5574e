// @focus: #sys { io } #input { keys }
package terminal

import (
	"fmt"
	"maps"
	"slices"
)

// Key identifies a non-printable key or a mouse button.
// Printable input arrives with Key 0 and the codepoint in Event.Ch.
type Key uint16

// Special keys count down from 0xFFFF
const (
	KeyF1 Key = 0xFFFF - iota
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
	KeyInsert
	KeyDelete
	KeyHome
	KeyEnd
	KeyPgup
	KeyPgdn
	KeyArrowUp
	KeyArrowDown
	KeyArrowLeft
	KeyArrowRight
	MouseLeft
	MouseRight
	MouseMiddle
	MouseRelease
	MouseWheelUp
	MouseWheelDown
)

// Control keys are their ASCII byte
const (
	KeyCtrlTilde      Key = 0x00
	KeyCtrl2          Key = 0x00
	KeyCtrlSpace      Key = 0x00
	KeyCtrlA          Key = 0x01
	KeyCtrlB          Key = 0x02
	KeyCtrlC          Key = 0x03
	KeyCtrlD          Key = 0x04
	KeyCtrlE          Key = 0x05
	KeyCtrlF          Key = 0x06
	KeyCtrlG          Key = 0x07
	KeyBackspace      Key = 0x08
	KeyCtrlH          Key = 0x08
	KeyTab            Key = 0x09
	KeyCtrlI          Key = 0x09
	KeyCtrlJ          Key = 0x0A
	KeyCtrlK          Key = 0x0B
	KeyCtrlL          Key = 0x0C
	KeyEnter          Key = 0x0D
	KeyCtrlM          Key = 0x0D
	KeyCtrlN          Key = 0x0E
	KeyCtrlO          Key = 0x0F
	KeyCtrlP          Key = 0x10
	KeyCtrlQ          Key = 0x11
	KeyCtrlR          Key = 0x12
	KeyCtrlS          Key = 0x13
	KeyCtrlT          Key = 0x14
	KeyCtrlU          Key = 0x15
	KeyCtrlV          Key = 0x16
	KeyCtrlW          Key = 0x17
	KeyCtrlX          Key = 0x18
	KeyCtrlY          Key = 0x19
	KeyCtrlZ          Key = 0x1A
	KeyEsc            Key = 0x1B
	KeyCtrlLsqBracket Key = 0x1B
	KeyCtrl3          Key = 0x1B
	KeyCtrl4          Key = 0x1C
	KeyCtrlBackslash  Key = 0x1C
	KeyCtrl5          Key = 0x1D
	KeyCtrlRsqBracket Key = 0x1D
	KeyCtrl6          Key = 0x1E
	KeyCtrl7          Key = 0x1F
	KeyCtrlSlash      Key = 0x1F
	KeyCtrlUnderscore Key = 0x1F
	KeySpace          Key = 0x20
	KeyBackspace2     Key = 0x7F
	KeyCtrl8          Key = 0x7F
)

var keyNames = map[Key]string{
	KeyF1:          "F1",
	KeyF2:          "F2",
	KeyF3:          "F3",
	KeyF4:          "F4",
	KeyF5:          "F5",
	KeyF6:          "F6",
	KeyF7:          "F7",
	KeyF8:          "F8",
	KeyF9:          "F9",
	KeyF10:         "F10",
	KeyF11:         "F11",
	KeyF12:         "F12",
	KeyInsert:      "Insert",
	KeyDelete:      "Delete",
	KeyHome:        "Home",
	KeyEnd:         "End",
	KeyPgup:        "PgUp",
	KeyPgdn:        "PgDn",
	KeyArrowUp:     "Up",
	KeyArrowDown:   "Down",
	KeyArrowLeft:   "Left",
	KeyArrowRight:  "Right",
	MouseLeft:      "MouseLeft",
	MouseRight:     "MouseRight",
	MouseMiddle:    "MouseMiddle",
	MouseRelease:   "MouseRelease",
	MouseWheelUp:   "WheelUp",
	MouseWheelDown: "WheelDown",
	KeyBackspace:   "Backspace",
	KeyTab:         "Tab",
	KeyEnter:       "Enter",
	KeyEsc:         "Esc",
	KeySpace:       "Space",
	KeyBackspace2:  "Backspace2",
}

// String returns human-readable key name
func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	if k == KeyCtrlSpace {
		return "Ctrl+Space"
	}
	if k < 0x20 {
		return fmt.Sprintf("Ctrl+%c", rune(k)+'@')
	}
	return fmt.Sprintf("Key(%#04x)", uint16(k))
}

// NamedKeys lists every key with a dedicated name, in ascending code order
func NamedKeys() []Key {
	return slices.Sorted(maps.Keys(keyNames))
}

// escapeSequence maps escape sequences to keys
// Key: sequence after ESC [ (e.g., "A" for up arrow)
type escapeSequence struct {
	seq string
	key Key
	mod Modifier
}

// Known escape sequences (CSI sequences: ESC [ ...)
// Shift and Ctrl variants collapse onto the bare key, only Alt survives as a modifier
var csiSequences = []escapeSequence{
	// Arrow keys
	{"A", KeyArrowUp, 0},
	{"B", KeyArrowDown, 0},
	{"C", KeyArrowRight, 0},
	{"D", KeyArrowLeft, 0},

	// Arrow keys with modifiers (xterm style: ESC [ 1 ; mod X)
	{"1;2A", KeyArrowUp, 0},
	{"1;2B", KeyArrowDown, 0},
	{"1;2C", KeyArrowRight, 0},
	{"1;2D", KeyArrowLeft, 0},
	{"1;3A", KeyArrowUp, ModAlt},
	{"1;3B", KeyArrowDown, ModAlt},
	{"1;3C", KeyArrowRight, ModAlt},
	{"1;3D", KeyArrowLeft, ModAlt},
	{"1;5A", KeyArrowUp, 0},
	{"1;5B", KeyArrowDown, 0},
	{"1;5C", KeyArrowRight, 0},
	{"1;5D", KeyArrowLeft, 0},

	// Navigation
	{"H", KeyHome, 0},
	{"F", KeyEnd, 0},
	{"1~", KeyHome, 0},
	{"7~", KeyHome, 0},
	{"4~", KeyEnd, 0},
	{"8~", KeyEnd, 0},
	{"5~", KeyPgup, 0},
	{"6~", KeyPgdn, 0},
	{"2~", KeyInsert, 0},
	{"3~", KeyDelete, 0},

	// Function keys (xterm)
	{"11~", KeyF1, 0},
	{"12~", KeyF2, 0},
	{"13~", KeyF3, 0},
	{"14~", KeyF4, 0},
	{"15~", KeyF5, 0},
	{"17~", KeyF6, 0},
	{"18~", KeyF7, 0},
	{"19~", KeyF8, 0},
	{"20~", KeyF9, 0},
	{"21~", KeyF10, 0},
	{"23~", KeyF11, 0},
	{"24~", KeyF12, 0},

	// Function keys (linux console)
	{"[A", KeyF1, 0},
	{"[B", KeyF2, 0},
	{"[C", KeyF3, 0},
	{"[D", KeyF4, 0},
	{"[E", KeyF5, 0},
}

// SS3 sequences (ESC O ...)
var ss3Sequences = []escapeSequence{
	{"A", KeyArrowUp, 0},
	{"B", KeyArrowDown, 0},
	{"C", KeyArrowRight, 0},
	{"D", KeyArrowLeft, 0},
	{"H", KeyHome, 0},
	{"F", KeyEnd, 0},
	{"P", KeyF1, 0},
	{"Q", KeyF2, 0},
	{"R", KeyF3, 0},
	{"S", KeyF4, 0},
}

var csiMap = buildSequenceMap(csiSequences)
var ss3Map = buildSequenceMap(ss3Sequences)

func buildSequenceMap(seqs []escapeSequence) map[string]escapeSequence {
	m := make(map[string]escapeSequence, len(seqs))
	for _, s := range seqs {
		m[s.seq] = s
	}
	return m
}

// lookupCSI performs zero-alloc map lookup via compiler optimization
// The string([]byte) conversion inline in map access does not allocate
func lookupCSI(seq []byte) (Key, Modifier, bool) {
	if s, ok := csiMap[string(seq)]; ok {
		return s.key, s.mod, true
	}
	return 0, 0, false
}

// lookupSS3 performs zero-alloc map lookup
func lookupSS3(seq []byte) (Key, Modifier, bool) {
	if s, ok := ss3Map[string(seq)]; ok {
		return s.key, s.mod, true
	}
	return 0, 0, false
}
