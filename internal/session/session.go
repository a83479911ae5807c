// Package session implements the session runtime: the central
// coordinator that owns the state machine, the breakpoint registry,
// start/stop orchestration, and the watchdog, driving a DBGp Link and
// recording to a Ledger as it goes.
package session

import (
	"time"

	"github.com/wallter/smart-xdebug-mcp/internal/dbgplink"
)

// Status is the session status enum.
type Status string

const (
	StatusInitializing Status = "initializing"
	StatusListening    Status = "listening"
	StatusConnected    Status = "connected"
	StatusRunning      Status = "running"
	StatusPaused       Status = "paused"
	StatusStopped      Status = "stopped"
	StatusError        Status = "error"

	// statusPending is the internal-only status of the pending session
	// that exists solely to hold breakpoints set before start_debug_session.
	statusPending Status = "pending"
)

// PauseReason enumerates why a session paused.
type PauseReason string

const (
	PauseBreakpointHit PauseReason = "breakpoint_hit"
	PauseStepComplete  PauseReason = "step_complete"
	PauseException     PauseReason = "exception"
	PauseEntry         PauseReason = "entry"
	PauseUserBreak     PauseReason = "user_break"
)

// PendingSessionID is the sentinel id of the pending session. It is never
// persisted to the Ledger.
const PendingSessionID = "pending"

// BreakpointKey is the identity tuple (local_file, line).
type BreakpointKey struct {
	File string
	Line int
}

// Breakpoint is a single registered or pending breakpoint.
type Breakpoint struct {
	LocalFile  string
	Line       int
	Condition  string
	RemoteFile string
	ID         string // empty until registered with the debuggee
}

// Location is the current execution position, annotated best-effort with
// the enclosing function.
type Location struct {
	File     string
	Line     int
	Function string
}

// Session holds the full state of one debug session.
type Session struct {
	ID             string
	Status         Status
	Breakpoints    map[BreakpointKey]*Breakpoint
	StartedAt      time.Time
	LastActivityAt time.Time
	Location       *Location
	CodeSnippet    string
	PauseReason    PauseReason
	RawReason      string
	ErrorMessage   string
	Exception      *dbgplink.ExceptionInfo
	StepNumber     int

	stopOnException bool
	stopOnEntry     bool
}

func newSession(id string) *Session {
	return &Session{
		ID:             id,
		Status:         statusPending,
		Breakpoints:    map[BreakpointKey]*Breakpoint{},
		StartedAt:      time.Now(),
		LastActivityAt: time.Now(),
	}
}

// IsTerminal reports whether status is a terminal state.
func (s Status) IsTerminal() bool {
	return s == StatusStopped || s == StatusError
}

// AvailableActions maps a status to the agent operations valid in it.
func AvailableActions(status Status) []string {
	switch status {
	case StatusPaused:
		return []string{"step_over", "step_into", "step_out", "continue", "stop", "inspect_variable"}
	case StatusRunning, StatusListening, StatusConnected:
		return []string{"stop"}
	case StatusStopped, StatusError:
		return []string{"start_debug_session"}
	default:
		return []string{}
	}
}
