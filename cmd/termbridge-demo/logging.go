package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const (
	logDir      = "logs"
	logFileName = "termbridge.log"
	maxLogSize  = 10 * 1024 * 1024 // 10MB
)

// setupLogging configures file-based logging when debug is set.
// The terminal is in raw mode, so nothing is ever written to stdout or stderr.
// Returns the open log file, nil when logging is disabled or the file cannot be opened.
func setupLogging(debug bool, level slog.Level) (*slog.Logger, *os.File) {
	discard := slog.New(slog.DiscardHandler)
	if !debug {
		slog.SetDefault(discard)
		return discard, nil
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		slog.SetDefault(discard)
		return discard, nil
	}

	logPath := filepath.Join(logDir, logFileName)
	rotateLog(logPath)

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		slog.SetDefault(discard)
		return discard, nil
	}

	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	logger.Info("logging started", "pid", os.Getpid(), "level", level.String())
	return logger, f
}

// rotateLog moves an oversized log aside under a timestamped name
func rotateLog(logPath string) {
	info, err := os.Stat(logPath)
	if err != nil || info.Size() <= maxLogSize {
		return
	}
	ext := filepath.Ext(logPath)
	base := logPath[:len(logPath)-len(ext)]
	rotated := fmt.Sprintf("%s_%s%s", base, time.Now().Format("20060102_150405"), ext)
	os.Rename(logPath, rotated)
}
