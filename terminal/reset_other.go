//go:build !linux

package terminal

// resetTerminalMode is a no-op where termios ioctls are not portable
func resetTerminalMode() {}
