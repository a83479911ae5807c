package session

import "time"

// resetWatchdog (re)arms the idle timer. Each break event and each agent
// request resets it; on expiry the runtime performs the stop sequence
// and records a watchdog reason in the logs.
func (r *Runtime) resetWatchdog() {
	r.watchdogMu.Lock()
	defer r.watchdogMu.Unlock()

	if r.watchdogTimer != nil {
		r.watchdogTimer.Stop()
	}

	timeout := time.Duration(r.cfg.WatchdogTimeout) * time.Second
	if timeout <= 0 {
		return
	}
	r.watchdogTimer = time.AfterFunc(timeout, func() {
		r.stopSequence("watchdog")
	})
}

// stopWatchdog cancels the idle timer. Called once a session is stopping
// so it can't fire a second, redundant stop.
func (r *Runtime) stopWatchdog() {
	r.watchdogMu.Lock()
	defer r.watchdogMu.Unlock()
	if r.watchdogTimer != nil {
		r.watchdogTimer.Stop()
		r.watchdogTimer = nil
	}
}
