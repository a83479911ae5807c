// Package xlog centralizes the bridge's diagnostic logging so every package
// traces the wire in the same colors: green outbound, cyan inbound, yellow
// for lifecycle/warnings, red for fatal.
package xlog

import (
	"log"
	"sync/atomic"

	"github.com/fatih/color"
)

var debugEnabled atomic.Bool

// SetDebug toggles verbose protocol tracing. Scoped to this package
// instead of a bare package-level bool so concurrent sessions (within a
// single process lifetime, one after another) can't race on it.
func SetDebug(v bool) {
	debugEnabled.Store(v)
}

func Debug() bool {
	return debugEnabled.Load()
}

// Outbound logs a command sent to the debuggee.
func Outbound(format string, args ...interface{}) {
	if !debugEnabled.Load() {
		return
	}
	color.Green(format, args...)
}

// Inbound logs a response or event received from the debuggee.
func Inbound(format string, args ...interface{}) {
	if !debugEnabled.Load() {
		return
	}
	color.Cyan(format, args...)
}

// Warn logs a recoverable, user-visible condition (deferred breakpoint,
// framing recovery, watchdog firing, ...).
func Warn(format string, args ...interface{}) {
	color.Yellow(format, args...)
}

// Error logs a non-fatal error the bridge absorbed (event-plane failure,
// per-breakpoint registration failure, ...).
func Error(format string, args ...interface{}) {
	color.Red(format, args...)
}

// Fatal is reserved for startup-time conditions the bridge cannot run
// without (bad config, can't bind any listener at all). Never call this
// once a session exists; mid-session failures must surface as
// *bridgeerr.BridgeError instead.
func Fatal(v ...interface{}) {
	log.Fatal(v...)
}

// Truncate caps s to n bytes, appending "..." when it was cut.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
