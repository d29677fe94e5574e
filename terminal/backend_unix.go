//go:build unix

package terminal

import (
	"errors"
	"os"
	"os/signal"
	"sync"

	"github.com/muesli/cancelreader"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// ttyPath is the controlling terminal, used so redirected stdio still works
const ttyPath = "/dev/tty"

type unixBackend struct {
	mu      sync.Mutex
	tty     *os.File
	fd      int
	oldTerm *term.State
	reader  cancelreader.CancelReader

	sigCh        chan os.Signal
	resizeStopCh chan struct{}
	resizeDoneCh chan struct{}
}

// NewBackend returns the tty backend for the controlling terminal
func NewBackend() Backend {
	return &unixBackend{}
}

func (b *unixBackend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	tty, err := os.OpenFile(ttyPath, os.O_RDWR, 0)
	if err != nil {
		return &InitError{Code: CodeFailedToOpenTTY, Err: err}
	}
	fd := int(tty.Fd())
	if !term.IsTerminal(fd) {
		tty.Close()
		return &InitError{Code: CodeUnsupportedTerminal, Err: ErrNotTerminal}
	}

	old, err := term.MakeRaw(fd)
	if err != nil {
		tty.Close()
		return &InitError{Code: CodeUnsupportedTerminal, Err: err}
	}

	// The cancel reader owns the wake-up pipe/epoll set that unblocks reads on shutdown
	reader, err := cancelreader.NewReader(tty)
	if err != nil {
		term.Restore(fd, old)
		tty.Close()
		return &InitError{Code: CodePipeTrapError, Err: err}
	}

	b.tty = tty
	b.fd = fd
	b.oldTerm = old
	b.reader = reader
	return nil
}

func (b *unixBackend) Fini() {
	// Resize goroutine calls Size, stop it before taking the lock for teardown
	b.mu.Lock()
	sigCh, stopCh, doneCh := b.sigCh, b.resizeStopCh, b.resizeDoneCh
	b.resizeStopCh = nil
	b.mu.Unlock()
	if stopCh != nil {
		signal.Stop(sigCh)
		close(stopCh)
		<-doneCh
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.reader != nil {
		b.reader.Close()
		b.reader = nil
	}
	if b.oldTerm != nil {
		term.Restore(b.fd, b.oldTerm)
		b.oldTerm = nil
	}
	if b.tty != nil {
		b.tty.Close()
		b.tty = nil
	}
}

func (b *unixBackend) Size() (int, int) {
	b.mu.Lock()
	fd := b.fd
	open := b.tty != nil
	b.mu.Unlock()
	if !open {
		return getTerminalSize(int(os.Stdout.Fd()))
	}
	return getTerminalSize(fd)
}

func (b *unixBackend) Write(p []byte) (int, error) {
	b.mu.Lock()
	tty := b.tty
	b.mu.Unlock()
	if tty == nil {
		return 0, ErrClosed
	}
	return tty.Write(p)
}

func (b *unixBackend) Read(p []byte) (int, error) {
	b.mu.Lock()
	r := b.reader
	b.mu.Unlock()
	if r == nil {
		return 0, ErrClosed
	}

	for {
		n, err := r.Read(p)
		if errors.Is(err, cancelreader.ErrCanceled) {
			return 0, ErrClosed
		}
		if errors.Is(err, unix.EINTR) || errors.Is(err, unix.EAGAIN) {
			continue
		}
		return n, err
	}
}

func (b *unixBackend) CancelRead() {
	b.mu.Lock()
	r := b.reader
	b.mu.Unlock()
	if r != nil {
		r.Cancel()
	}
}

func (b *unixBackend) SetResizeHandler(handler func(width, height int)) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.sigCh = make(chan os.Signal, 1)
	b.resizeStopCh = make(chan struct{})
	b.resizeDoneCh = make(chan struct{})
	signal.Notify(b.sigCh, unix.SIGWINCH)

	sigCh, stopCh, doneCh := b.sigCh, b.resizeStopCh, b.resizeDoneCh
	go func() {
		defer close(doneCh)
		for {
			select {
			case <-stopCh:
				return
			case <-sigCh:
				w, h := b.Size()
				handler(w, h)
			}
		}
	}()
}

// getTerminalSize returns the terminal size for a given fd
func getTerminalSize(fd int) (int, int) {
	ws, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ)
	if err != nil || ws.Col == 0 || ws.Row == 0 {
		return 80, 24 // Fallback
	}
	return int(ws.Col), int(ws.Row)
}
