package session

import (
	"context"
	"time"

	"github.com/wallter/smart-xdebug-mcp/internal/xlog"
)

// stopSequence is best-effort and re-entrancy guarded: concurrent stops
// are no-ops after the first. reason is logged only (the watchdog path
// records "watchdog"; explicit stop calls record the triggering action).
func (r *Runtime) stopSequence(reason string) {
	r.mu.Lock()
	once := r.stopOnce
	link := r.link
	sess := r.session
	r.mu.Unlock()

	if once == nil || sess == nil {
		return
	}

	once.Do(func() {
		sid := sess.ID
		xlog.Warn("session: stopping (%s)", reason)

		if link != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			_, _ = link.Stop(ctx)
			cancel()
			link.Close()
		}

		r.mu.Lock()
		if r.session != nil && r.session.ID == sid {
			r.session.Status = StatusStopped
		}
		r.mu.Unlock()

		r.stopWatchdog()

		if sid != PendingSessionID {
			r.finalize(sid)
		}

		r.notifyWaiters()
	})
}

// finalize closes out the Ledger's record of the session. It is called
// both from the explicit stop path and from the close-event path so a
// debuggee that simply disconnects still gets a summary.
func (r *Runtime) finalize(sid string) {
	if sid == PendingSessionID {
		return
	}
	if _, err := r.store.FinalizeSession(sid); err != nil {
		xlog.Error("session: failed to finalize ledger for %s: %v", sid, err)
	}
}
