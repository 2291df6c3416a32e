// Package logx gates the bracketed log.Printf lines used across shipyard
// by a configurable level.
package logx

import (
	"fmt"
	"log"
	"strings"
	"sync/atomic"
)

type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var current atomic.Int32

func init() {
	current.Store(int32(LevelWarn))
}

// ParseLevel accepts debug, info, warn and error (case-insensitive).
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// SetLevel changes the minimum level that is printed.
func SetLevel(l Level) { current.Store(int32(l)) }

// Enabled reports whether l would be printed.
func Enabled(l Level) bool { return int32(l) >= current.Load() }

func Debugf(format string, args ...any) { logf(LevelDebug, "[DEBUG] ", format, args...) }
func Infof(format string, args ...any)  { logf(LevelInfo, "[INFO] ", format, args...) }
func Warnf(format string, args ...any)  { logf(LevelWarn, "[WARN] ", format, args...) }
func Errorf(format string, args ...any) { logf(LevelError, "[ERROR] ", format, args...) }

func logf(l Level, prefix, format string, args ...any) {
	if !Enabled(l) {
		return
	}
	log.Printf(prefix+format, args...)
}
