//go:build !unix

package terminal

import "errors"

// NewBackend returns a backend that always refuses to initialize.
// Use the tcell driver on platforms without a unix tty.
func NewBackend() Backend {
	return unsupportedBackend{}
}

type unsupportedBackend struct{}

var errNoTTY = errors.New("terminal: no tty support on this platform")

func (unsupportedBackend) Init() error {
	return &InitError{Code: CodeUnsupportedTerminal, Err: errNoTTY}
}
func (unsupportedBackend) Fini() {}
func (unsupportedBackend) Size() (int, int) { return 80, 24 }
func (unsupportedBackend) Write(p []byte) (int, error) { return 0, ErrClosed }
func (unsupportedBackend) Read(p []byte) (int, error) { return 0, ErrClosed }
func (unsupportedBackend) CancelRead() {}
func (unsupportedBackend) SetResizeHandler(func(width, height int)) {}
