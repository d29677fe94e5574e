package terminal

// Backend abstracts the platform tty the ANSI driver talks to.
type Backend interface {
	// Lifecycle
	// Init opens the device and enters raw mode; failures are *InitError
	Init() error
	// Fini restores cooked mode and releases the device
	Fini()

	// Capabilities
	Size() (width, height int)

	// I/O
	// Write writes raw bytes to the terminal output.
	Write(p []byte) (int, error)

	// Read blocks until input is available or CancelRead is called.
	// A cancelled read returns ErrClosed.
	Read(p []byte) (int, error)

	// CancelRead unblocks a pending Read
	CancelRead()

	// Callbacks
	// SetResizeHandler registers a callback for terminal resize events.
	// The callback runs on a backend goroutine until Fini.
	SetResizeHandler(handler func(width, height int))
}
