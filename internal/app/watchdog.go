package app

import (
	"sync"
	"time"

	"github.com/wordpan/wordpan/internal/core"
)

// agentWatchdog is the one-shot liveness timer armed on session start.
//
// If the agent has not become reachable when the window elapses, the
// expiry callback fires with a reason derived from the last observed
// agent state: unknown or connecting means the agent never joined the
// room, anything later means it joined but never became available.
// Once satisfied or cancelled the watchdog is inert; it never fires
// after teardown.
type agentWatchdog struct {
	mu        sync.Mutex
	timer     *time.Timer
	armed     bool
	lastState core.AgentState
	onExpired func(core.TimeoutReason)
}

func newAgentWatchdog(onExpired func(core.TimeoutReason)) *agentWatchdog {
	return &agentWatchdog{onExpired: onExpired}
}

// Arm starts the window. Re-arming replaces any previous timer.
func (w *agentWatchdog) Arm(window time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.armed = true
	w.lastState = core.AgentStateUnknown
	w.timer = time.AfterFunc(window, w.expire)
}

func (w *agentWatchdog) expire() {
	w.mu.Lock()
	if !w.armed {
		w.mu.Unlock()
		return
	}
	w.armed = false
	reason := core.ReasonAgentNotAvailable
	switch w.lastState {
	case core.AgentStateUnknown, core.AgentStateConnecting:
		// A connecting agent has not joined the room yet.
		reason = core.ReasonAgentNeverJoined
	}
	callback := w.onExpired
	w.mu.Unlock()

	if callback != nil {
		callback(reason)
	}
}

// NoteAgentState feeds observed agent states into the watchdog. A
// reachable state satisfies it for the rest of the session.
func (w *agentWatchdog) NoteAgentState(s core.AgentState) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.armed {
		return
	}
	if s.Reachable() {
		w.armed = false
		if w.timer != nil {
			w.timer.Stop()
		}
		return
	}
	w.lastState = s
}

// Cancel stops the window without firing.
func (w *agentWatchdog) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.armed = false
	if w.timer != nil {
		w.timer.Stop()
	}
}

// Armed reports whether the window is still pending.
func (w *agentWatchdog) Armed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.armed
}
