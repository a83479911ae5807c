// Package bridgeerr implements the bridge's error taxonomy: every
// exported runtime operation returns either a result or a *BridgeError,
// never a bare error, so the tool dispatch layer can translate failures
// into the agent-facing {error, code, recoverable, hint?, issues?}
// envelope without guessing at recoverability.
package bridgeerr

import "fmt"

type Code string

const (
	NoActiveSession     Code = "NO_ACTIVE_SESSION"
	SessionAlreadyActive Code = "SESSION_ALREADY_ACTIVE"
	SessionNotPaused    Code = "SESSION_NOT_PAUSED"
	SessionStopped      Code = "SESSION_STOPPED"

	ConnectionTimeout Code = "CONNECTION_TIMEOUT"
	NoAvailablePort   Code = "NO_AVAILABLE_PORT"
	NotConnected      Code = "NOT_CONNECTED"

	ValidationError Code = "VALIDATION_ERROR"
	InvalidFilter   Code = "INVALID_FILTER"

	UnknownError Code = "UNKNOWN_ERROR"
)

// dbgpErrorCode formats a protocol error carrying the debuggee's numeric
// DBGp error code, e.g. "DBGP_ERROR(3)".
func dbgpErrorCode(n int) Code {
	return Code(fmt.Sprintf("DBGP_ERROR(%d)", n))
}

// BridgeError is the error type the runtime returns to tool dispatch and
// the link uses for protocol, timeout and connection failures. The ledger
// returns plain errors, which the runtime wraps. It implements error.
type BridgeError struct {
	Code          Code
	Message       string
	Recoverable   bool
	Hint          string
	Issues        []string
	AvailableKeys []string
}

func (e *BridgeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code Code, recoverable bool, message string, hint string) *BridgeError {
	return &BridgeError{Code: code, Message: message, Recoverable: recoverable, Hint: hint}
}

func NoSession() *BridgeError {
	return New(NoActiveSession, true, "no active debug session", "call start_debug_session first")
}

func AlreadyActive() *BridgeError {
	return New(SessionAlreadyActive, true, "a debug session is already active", "call control_execution with action=stop first, or reuse the active session")
}

func NotPaused() *BridgeError {
	return New(SessionNotPaused, true, "session is not paused", "this operation requires status=paused; wait for a break event or set a breakpoint")
}

func Stopped() *BridgeError {
	return New(SessionStopped, true, "session has stopped", "call start_debug_session to begin a new session")
}

func Timeout(hint string) *BridgeError {
	return New(ConnectionTimeout, true, "timed out waiting for the debuggee", hint)
}

func NoPort() *BridgeError {
	return New(NoAvailablePort, true, "no available port in the configured range", "widen port_range_end or free up the configured ports")
}

func NotConnectedErr() *BridgeError {
	return New(NotConnected, true, "the debuggee connection is closed", "start a new debug session")
}

func Validation(issues ...string) *BridgeError {
	return &BridgeError{
		Code:        ValidationError,
		Message:     "request failed validation",
		Recoverable: true,
		Hint:        "fix the listed issues and retry",
		Issues:      issues,
	}
}

func Filter(message string, availableKeys []string) *BridgeError {
	return &BridgeError{
		Code:          InvalidFilter,
		Message:       message,
		Recoverable:   true,
		Hint:          "use one of available_keys, or omit filter for a structural summary",
		AvailableKeys: availableKeys,
	}
}

// DBGP wraps a protocol error returned by the debuggee. DBGp code 300
// (property not found) should be caught by the caller before reaching here
// and converted to a structured nil result instead.
func DBGP(code int, message string) *BridgeError {
	return New(dbgpErrorCode(code), true, message, "the debuggee rejected the command; check the expression or target")
}

// IsPropertyNotFound reports whether err is the DBGp "property not found"
// protocol error (code 300), which callers convert to a structured nil
// result rather than surfacing as an error.
func IsPropertyNotFound(err error) bool {
	be, ok := err.(*BridgeError)
	return ok && be.Code == dbgpErrorCode(300)
}

func Unknown(message string) *BridgeError {
	return New(UnknownError, false, message, "this is unexpected; restarting the session may help")
}
