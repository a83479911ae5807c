package session

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/wallter/smart-xdebug-mcp/internal/dbgplink"
	"github.com/wallter/smart-xdebug-mcp/internal/xlog"
)

// breakPump is the single consumer of the Link's break/close events for
// the lifetime of one session: event-plane processing must run
// concurrently with in-flight commands, but only one logical reader owns
// the socket's event channel. Every other caller that needs to observe
// a pause registers a waiter via registerWaiter and is notified here.
func (r *Runtime) breakPump(sid string, link *dbgplink.Link) {
	for {
		ev, err := link.WaitForBreak(context.Background())
		if err != nil {
			r.handleClosed(sid)
			return
		}
		r.handleBreak(sid, ev)
		r.notifyWaiters()
	}
}

func (r *Runtime) handleBreak(sid string, ev dbgplink.BreakEvent) {
	r.mu.Lock()
	sess := r.session
	link := r.link
	if sess == nil || sess.ID != sid {
		r.mu.Unlock()
		return
	}
	sess.StepNumber++
	step := sess.StepNumber
	localFile := r.mapper.ToLocal(ev.RemoteFile)
	sess.Location = &Location{File: localFile, Line: ev.Line}
	sess.PauseReason = PauseReason(ev.Reason)
	sess.RawReason = ev.RawReason
	sess.Exception = ev.Exception
	sess.Status = StatusPaused
	sess.LastActivityAt = time.Now()
	r.mu.Unlock()

	ctx, cancel := r.cmdTimeout()
	if frames, err := link.GetStackFrames(ctx); err == nil && len(frames) > 0 {
		sess.Location.Function = frames[0].Where
	}
	cancel()

	snippet := readSnippet(localFile, ev.Line)

	r.mu.Lock()
	if r.session != nil && r.session.ID == sid {
		r.session.CodeSnippet = snippet
	}
	r.mu.Unlock()

	reason := string(PauseReason(ev.Reason))
	if err := r.store.RecordStep(sid, step, localFile, ev.Line, sess.Location.Function, reason); err != nil {
		xlog.Error("session: failed to record step: %v", err)
	}

	xlog.Warn("session: paused at %s:%d (%s)", localFile, ev.Line, ev.Reason)
	r.resetWatchdog()
}

func (r *Runtime) handleClosed(sid string) {
	r.mu.Lock()
	sess := r.session
	isCurrent := sess != nil && sess.ID == sid
	r.mu.Unlock()

	if isCurrent {
		r.stopSequence("debuggee disconnected")
	}
	r.notifyWaiters()
}

// readSnippet returns a best-effort 3-line context window around line
// (1-indexed) in file. Failures return an empty string rather than
// propagating, since this is a diagnostic convenience only.
func readSnippet(file string, line int) string {
	f, err := os.Open(file)
	if err != nil {
		return ""
	}
	defer f.Close()

	start := line - 1
	if start < 1 {
		start = 1
	}
	end := line + 1

	scanner := bufio.NewScanner(f)
	var b strings.Builder
	n := 0
	for scanner.Scan() {
		n++
		if n < start {
			continue
		}
		if n > end {
			break
		}
		marker := "  "
		if n == line {
			marker = "> "
		}
		fmt.Fprintf(&b, "%s%d: %s\n", marker, n, scanner.Text())
	}
	return strings.TrimRight(b.String(), "\n")
}
