// Package screen is the session layer over a terminal.Driver.
//
// A Session owns raw-mode lifecycle, serializes the synchronous control
// API behind one lock and blocking polls behind another, and bridges
// polling onto goroutines through PollAsync. Every PollAsync call yields
// a PollHandle that delivers exactly one Message to its Recipient;
// releasing the handle joins the worker.
//
// Typical use:
//
//	s := screen.New(terminal.NewANSIDriver(nil))
//	if err := s.Init(); err != nil { ... }
//	defer s.Shutdown()
//
//	mb := screen.NewMailbox()
//	h, err := s.PollAsync(mb)
//	msg, _ := mb.Receive(ctx)
//	h.Release()
package screen
