package session

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wallter/smart-xdebug-mcp/internal/bridgeerr"
	"github.com/wallter/smart-xdebug-mcp/internal/config"
	"github.com/wallter/smart-xdebug-mcp/internal/dbgplink"
	"github.com/wallter/smart-xdebug-mcp/internal/ledger"
	"github.com/wallter/smart-xdebug-mcp/internal/pathmap"
	"github.com/wallter/smart-xdebug-mcp/internal/xlog"
)

// Runtime is the single-owner coordinator: at most one operation is in
// flight from the agent side at any moment, but event-plane processing
// (break, close) is handled concurrently by a dedicated goroutine per
// session.
type Runtime struct {
	cfg    *config.Config
	mapper *pathmap.Mapper
	store  *ledger.Ledger

	mu      sync.Mutex
	session *Session
	link    *dbgplink.Link
	waiters []chan struct{}

	watchdogMu    sync.Mutex
	watchdogTimer *time.Timer
	stopOnce      *sync.Once
}

// NewRuntime wires the Ledger and Path Mapper and returns an idle Runtime
// (no session yet).
func NewRuntime(cfg *config.Config) (*Runtime, error) {
	store, err := ledger.Open(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	mapper := pathmap.Default()
	if cfg.ProjectRoot != "" {
		mapper = pathmap.New(cfg.ProjectRoot, nil)
	}
	return &Runtime{
		cfg:    cfg,
		mapper: mapper,
		store:  store,
	}, nil
}

// Close releases the Ledger handle. Call on bridge shutdown.
func (r *Runtime) Close() error {
	return r.store.Close()
}

func (r *Runtime) touch() {
	r.mu.Lock()
	if r.session != nil {
		r.session.LastActivityAt = time.Now()
	}
	r.mu.Unlock()
	r.resetWatchdog()
}

// ---- set_breakpoint ----------------------------------------------------

// SetBreakpoint is allowed in any non-terminal state, including pending.
// If connected, it registers immediately; otherwise it defers to session
// start.
func (r *Runtime) SetBreakpoint(file string, line int, condition string) (*SetBreakpointResult, *bridgeerr.BridgeError) {
	if line < 1 {
		return nil, bridgeerr.Validation("line must be >= 1")
	}
	r.touch()

	r.mu.Lock()
	if r.session == nil {
		r.session = newSession(PendingSessionID)
	} else if r.session.Status.IsTerminal() {
		r.mu.Unlock()
		return nil, bridgeerr.Stopped()
	}
	sess := r.session
	link := r.link
	remote := r.mapper.ToRemote(file)
	key := BreakpointKey{File: file, Line: line}
	bp := &Breakpoint{LocalFile: file, Line: line, Condition: condition, RemoteFile: remote}
	sess.Breakpoints[key] = bp
	connected := sess.Status != statusPending && sess.Status != StatusInitializing && sess.Status != StatusListening
	r.mu.Unlock()

	message := "breakpoint set; will be registered when the session starts"
	if connected && link != nil {
		ctx, cancel := r.cmdTimeout()
		defer cancel()
		id, err := registerBreakpoint(ctx, link, bp)
		if err != nil {
			xlog.Error("session: failed to register breakpoint %s:%d: %v", file, line, err)
			message = "breakpoint recorded locally but the debuggee rejected it: " + err.Error()
		} else {
			bp.ID = id
			message = "breakpoint registered with the running debuggee"
		}
	}

	return &SetBreakpointResult{
		Success: true,
		Breakpoint: BreakpointOut{
			File:      file,
			Line:      line,
			Condition: condition,
		},
		Message: message,
		Hint:    "call start_debug_session to run the target command",
	}, nil
}

func registerBreakpoint(ctx context.Context, link *dbgplink.Link, bp *Breakpoint) (string, error) {
	spec := dbgplink.BreakpointSpec{Type: "line", Filename: bp.RemoteFile, Lineno: bp.Line}
	if bp.Condition != "" {
		spec.Type = "conditional"
		spec.Expression = bp.Condition
	}
	return link.SetBreakpoint(ctx, spec)
}

// ---- start_debug_session ------------------------------------------------

// StartSession is allowed only when no session exists, or the current
// session is pending.
func (r *Runtime) StartSession(command string, stopOnEntry, stopOnException bool, workingDirectory string) (*StartSessionResult, *bridgeerr.BridgeError) {
	r.mu.Lock()
	if r.session != nil && r.session.Status != statusPending {
		r.mu.Unlock()
		return nil, bridgeerr.AlreadyActive()
	}

	var carried map[BreakpointKey]*Breakpoint
	if r.session != nil {
		carried = r.session.Breakpoints
	} else {
		carried = map[BreakpointKey]*Breakpoint{}
	}

	sid := uuid.NewString()
	sess := newSession(sid)
	sess.Breakpoints = carried
	sess.Status = StatusInitializing
	sess.stopOnEntry = stopOnEntry
	sess.stopOnException = stopOnException
	r.session = sess
	r.link = dbgplink.New()
	r.stopOnce = &sync.Once{}
	link := r.link
	r.mu.Unlock()

	if err := r.store.InitSession(sid); err != nil {
		return nil, bridgeerr.Unknown(err.Error())
	}

	port, err := link.Listen(r.cfg.Port, r.cfg.PortRangeEnd)
	if err != nil {
		r.setStatus(StatusError, "could not bind a listener: "+err.Error())
		return nil, err.(*bridgeerr.BridgeError)
	}
	r.setStatus(StatusListening, "")

	cwd := workingDirectory
	if cwd == "" {
		cwd = r.cfg.ProjectRoot
	}
	env := append(os.Environ(),
		fmt.Sprintf("XDEBUG_CONFIG=client_host=host.docker.internal client_port=%d", port),
		"XDEBUG_SESSION=mcp",
		"XDEBUG_MODE=debug",
		"XDEBUG_TRIGGER=yes",
	)
	if err := link.ExecuteTrigger(command, cwd, env); err != nil {
		r.setStatus(StatusError, "failed to start trigger command: "+err.Error())
		return nil, bridgeerr.Unknown(err.Error())
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.connectionTimeout())
	defer cancel()
	if err := link.WaitForConnection(ctx); err != nil {
		r.setStatus(StatusError, "debuggee never connected")
		return nil, err.(*bridgeerr.BridgeError)
	}
	r.setStatus(StatusConnected, "")

	go r.breakPump(sid, link)

	r.registerAllBreakpoints(sess)

	if stopOnException {
		ctx, cancel := r.cmdTimeout()
		_ = link.BreakOnException(ctx, "*")
		cancel()
	}

	r.resetWatchdog()

	var startErr error
	ctx2, cancel2 := r.cmdTimeout()
	if stopOnEntry {
		_, startErr = link.StepInto(ctx2)
	} else {
		_, startErr = link.Run(ctx2)
	}
	cancel2()
	if startErr != nil {
		xlog.Warn("session: initial %s failed: %v", stepVerb(stopOnEntry), startErr)
	}
	r.setStatus(StatusRunning, "")

	waiter := r.registerWaiter()
	select {
	case <-waiter:
	case <-time.After(5 * time.Second):
		// Execution may simply be ongoing; remain in running.
	}

	r.mu.Lock()
	cur := r.session
	r.mu.Unlock()

	result := &StartSessionResult{
		Status:    string(cur.Status),
		SessionID: sid,
		Message:   "debug session started",
		Hint:      "use control_execution or inspect_variable once paused",
	}
	if cur.Status == StatusPaused {
		result.Message = "debuggee paused"
		result.Location = locationOut(cur.Location)
		result.CodeSnippet = cur.CodeSnippet
		result.PauseReason = string(cur.PauseReason)
		result.RawReason = cur.RawReason
	}
	return result, nil
}

func stepVerb(stopOnEntry bool) string {
	if stopOnEntry {
		return "step_into"
	}
	return "run"
}

func (r *Runtime) registerAllBreakpoints(sess *Session) {
	ctx, cancel := r.cmdTimeout()
	defer cancel()
	for _, bp := range sess.Breakpoints {
		id, err := registerBreakpoint(ctx, r.link, bp)
		if err != nil {
			xlog.Error("session: failed to register breakpoint %s:%d at start: %v", bp.LocalFile, bp.Line, err)
			continue
		}
		bp.ID = id
	}
}

// ---- control_execution ---------------------------------------------------

// ControlExecution maps agent actions to DBGp commands.
func (r *Runtime) ControlExecution(action string) (*ControlExecutionResult, *bridgeerr.BridgeError) {
	r.touch()

	r.mu.Lock()
	sess := r.session
	link := r.link
	r.mu.Unlock()

	if sess == nil || sess.Status == statusPending {
		return nil, bridgeerr.NoSession()
	}

	if action == "stop" {
		r.stopSequence("user_requested")
		return &ControlExecutionResult{
			Status:  string(StatusStopped),
			Action:  action,
			Message: "session stopped",
			Hint:    "call start_debug_session to begin a new session",
		}, nil
	}

	if sess.Status.IsTerminal() {
		return nil, bridgeerr.Stopped()
	}

	ctx, cancel := r.cmdTimeout()
	defer cancel()

	var err error
	switch action {
	case "step_over":
		_, err = link.StepOver(ctx)
	case "step_into":
		_, err = link.StepInto(ctx)
	case "step_out":
		_, err = link.StepOut(ctx)
	case "continue":
		_, err = link.Run(ctx)
	default:
		return nil, bridgeerr.Validation(fmt.Sprintf("unknown action %q", action))
	}
	if err != nil {
		if bridgeErr, ok := err.(*bridgeerr.BridgeError); ok {
			return nil, bridgeErr
		}
		return nil, bridgeerr.Unknown(err.Error())
	}

	r.setStatus(StatusRunning, "")
	waiter := r.registerWaiter()
	select {
	case <-waiter:
	case <-link.Closed():
	case <-time.After(r.connectionTimeout()):
	}

	r.mu.Lock()
	cur := r.session
	r.mu.Unlock()

	result := &ControlExecutionResult{
		Status:  string(cur.Status),
		Action:  action,
		Message: "execution resumed",
		Hint:    "inspect_variable is available while paused",
	}
	if cur.Status == StatusPaused {
		result.Message = "paused"
		result.Location = locationOut(cur.Location)
		result.CodeSnippet = cur.CodeSnippet
		result.PauseReason = string(cur.PauseReason)
		result.RawReason = cur.RawReason
	} else if cur.Status == StatusStopped {
		result.Message = "connection closed before the next break"
	}
	return result, nil
}

func locationOut(l *Location) *LocationOut {
	if l == nil {
		return nil
	}
	return &LocationOut{File: l.File, Line: l.Line, Function: l.Function}
}

// ---- helpers --------------------------------------------------------------

func (r *Runtime) setStatus(status Status, errMessage string) {
	r.mu.Lock()
	if r.session != nil {
		r.session.Status = status
		if errMessage != "" {
			r.session.ErrorMessage = errMessage
		}
		r.session.LastActivityAt = time.Now()
	}
	r.mu.Unlock()
}

func (r *Runtime) connectionTimeout() time.Duration {
	return time.Duration(r.cfg.ConnectionTimeout) * time.Second
}

func (r *Runtime) cmdTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.connectionTimeout())
}

func (r *Runtime) registerWaiter() chan struct{} {
	ch := make(chan struct{})
	r.mu.Lock()
	r.waiters = append(r.waiters, ch)
	r.mu.Unlock()
	return ch
}

func (r *Runtime) notifyWaiters() {
	r.mu.Lock()
	ws := r.waiters
	r.waiters = nil
	r.mu.Unlock()
	for _, ch := range ws {
		close(ch)
	}
}
