// @focus: #sys { term }
// Package terminal provides the low-level terminal drivers behind a screen session.
//
// Features:
//   - Direct ANSI driver over the controlling tty (raw mode, SIGWINCH, cancellable reads)
//   - tcell adapter, including tcell's simulation screen for headless use
//   - Row-major cell buffer with cell-level diffing on present
//   - Raw input parsing with ESC/Alt disambiguation and SGR mouse reports
//   - termbox-compatible key codes, attributes and output modes
//
// The ANSI driver bypasses terminfo/termcap entirely, emitting direct ANSI sequences.
// Target environments: Linux, macOS, BSDs with xterm-compatible terminals.
package terminal
