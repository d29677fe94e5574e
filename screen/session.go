// @focus: #sys { session } #core { lifecycle }
package screen

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/lixenwraith/termbridge/status"
	"github.com/lixenwraith/termbridge/terminal"
)

// terminalClaimed guards the process terminal; only one exclusive session may be active
var terminalClaimed atomic.Bool

// Session owns one driver's lifecycle and serializes access to it.
// Control calls share mu; blocking polls share pollLock so that drawing
// proceeds while a poll is parked waiting for input.
type Session struct {
	drv     terminal.Driver
	logger  *slog.Logger
	metrics *status.Registry

	mu         sync.Mutex
	active     bool
	claimed    bool
	inputMode  terminal.InputMode
	outputMode terminal.OutputMode
	clearFg    terminal.Attribute
	clearBg    terminal.Attribute

	pollLock   *semaphore.Weighted
	workers    *semaphore.Weighted
	maxWorkers int64

	// Cached metric pointers
	statActive     *atomic.Bool
	statSpawned    *atomic.Int64
	statDelivered  *atomic.Int64
	statJoined     *atomic.Int64
	statInflight   *atomic.Int64
	statRejected   *atomic.Int64
	statLatency    *status.AtomicFloat
	statLatencyMax *status.AtomicFloat
}

// New creates an inactive session over drv
func New(drv terminal.Driver, opts ...Option) *Session {
	s := &Session{
		drv:        drv,
		logger:     slog.New(slog.DiscardHandler),
		inputMode:  terminal.InputEsc,
		outputMode: terminal.OutputNormal,
		clearFg:    terminal.ColorDefault,
		clearBg:    terminal.ColorDefault,
		maxWorkers: DefaultMaxWorkers,
		pollLock:   semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = status.NewRegistry()
	}
	s.workers = semaphore.NewWeighted(s.maxWorkers)
	s.logger = s.logger.With("driver", drv.Name())

	s.statActive = s.metrics.Bools.Get(status.KeySessionActive)
	s.statSpawned = s.metrics.Ints.Get(status.KeyPollsSpawned)
	s.statDelivered = s.metrics.Ints.Get(status.KeyPollsDelivered)
	s.statJoined = s.metrics.Ints.Get(status.KeyPollsJoined)
	s.statInflight = s.metrics.Ints.Get(status.KeyPollsInflight)
	s.statRejected = s.metrics.Ints.Get(status.KeyPollsRejected)
	s.statLatency = s.metrics.Floats.Get(status.KeyPollLatencyMs)
	s.statLatencyMax = s.metrics.Floats.Get(status.KeyPollLatencyMax)
	s.metrics.Strings.Get(status.KeyDriverName).Store(drv.Name())
	return s
}

// Metrics returns the registry the session publishes into
func (s *Session) Metrics() *status.Registry {
	return s.metrics
}

// Driver returns the underlying driver
func (s *Session) Driver() terminal.Driver {
	return s.drv
}

// Active reports whether the session is between Init and Shutdown
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Init enters raw mode and applies configured modes.
// Driver failures are returned as *terminal.InitError carrying the classic code.
func (s *Session) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return ErrAlreadyActive
	}
	if s.drv.Exclusive() {
		if !terminalClaimed.CompareAndSwap(false, true) {
			return ErrSessionBusy
		}
		s.claimed = true
	}

	if err := s.drv.Init(); err != nil {
		s.releaseClaim()
		s.logger.Error("session init failed", "error", err)
		return err
	}

	s.drv.SetInputMode(s.inputMode)
	s.drv.SetOutputMode(s.outputMode)
	s.drv.Clear(s.clearFg, s.clearBg)

	s.active = true
	s.statActive.Store(true)

	w, h := s.drv.Size()
	s.logger.Info("session initialized", "width", w, "height", h,
		"input_mode", int(s.inputMode), "output_mode", int(s.outputMode))
	return nil
}

// Shutdown restores the terminal. Pending polls, sync or async, fail with
// terminal.ErrClosed. Calling Shutdown on an inactive session does nothing.
func (s *Session) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return
	}
	s.active = false
	s.statActive.Store(false)

	s.drv.Fini()
	s.releaseClaim()
	s.logger.Info("session shut down", "polls_inflight", s.statInflight.Load())
}

// releaseClaim frees the process terminal; caller holds s.mu
func (s *Session) releaseClaim() {
	if s.claimed {
		s.claimed = false
		terminalClaimed.Store(false)
	}
}

// Width returns the terminal width in cells, 0 when inactive
func (s *Session) Width() int32 {
	w, _ := s.size()
	return w
}

// Height returns the terminal height in cells, 0 when inactive
func (s *Session) Height() int32 {
	_, h := s.size()
	return h
}

func (s *Session) size() (int32, int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return 0, 0
	}
	w, h := s.drv.Size()
	return int32(w), int32(h)
}
