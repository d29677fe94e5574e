package terminal

import "fmt"

// EventType distinguishes input event categories
type EventType uint8

const (
	EventNone EventType = iota
	EventKey
	EventResize
	EventMouse
	EventError
)

// String returns human-readable type name
func (t EventType) String() string {
	switch t {
	case EventNone:
		return "none"
	case EventKey:
		return "key"
	case EventResize:
		return "resize"
	case EventMouse:
		return "mouse"
	case EventError:
		return "error"
	default:
		return fmt.Sprintf("EventType(%d)", uint8(t))
	}
}

// Modifier flags
type Modifier uint8

const (
	ModAlt    Modifier = 0x01
	ModMotion Modifier = 0x02 // Mouse moved with a button held
)

// Event is a single terminal input record.
// Field order matches the wire tuple (type, mod, key, ch, w, h, x, y).
type Event struct {
	Type   EventType
	Mod    Modifier
	Key    Key
	Ch     rune
	Width  int32 // EventResize
	Height int32 // EventResize
	X      int32 // EventMouse, 0-indexed column
	Y      int32 // EventMouse, 0-indexed row

	// Err carries the failure for EventError, not part of the tuple
	Err error
}

// Tuple returns the field-order-stable shape of the event
func (e Event) Tuple() [8]int64 {
	return [8]int64{
		int64(e.Type),
		int64(e.Mod),
		int64(e.Key),
		int64(e.Ch),
		int64(e.Width),
		int64(e.Height),
		int64(e.X),
		int64(e.Y),
	}
}

// ErrorEvent wraps err into an EventError record
func ErrorEvent(err error) Event {
	return Event{Type: EventError, Err: err}
}

// String renders the event for logs and the demo
func (e Event) String() string {
	switch e.Type {
	case EventKey:
		if e.Key == 0 {
			return fmt.Sprintf("key ch=%q mod=%#x", e.Ch, uint8(e.Mod))
		}
		return fmt.Sprintf("key %s mod=%#x", e.Key, uint8(e.Mod))
	case EventResize:
		return fmt.Sprintf("resize %dx%d", e.Width, e.Height)
	case EventMouse:
		return fmt.Sprintf("mouse %s at %d,%d mod=%#x", e.Key, e.X, e.Y, uint8(e.Mod))
	case EventError:
		return fmt.Sprintf("error %v", e.Err)
	default:
		return e.Type.String()
	}
}
