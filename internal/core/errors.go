package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNoAgentPresent means no participant flagged as agent was in the
	// room when an RPC was attempted. User-visible, never retried.
	ErrNoAgentPresent = errors.New("no agent present in room")

	// ErrGameBusy rejects a start/stop issued while another is in flight.
	// The pending call is not queued.
	ErrGameBusy = errors.New("another game call is in flight")

	// ErrNotConnected means the room handle is not connected.
	ErrNotConnected = errors.New("room not connected")
)

// RPCError wraps a failed or timed-out remote call. The platform defines
// no error code taxonomy beyond "call failed", so only the method name
// and cause are carried.
type RPCError struct {
	Method string
	Err    error
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc %s failed: %v", e.Method, e.Err)
}

func (e *RPCError) Unwrap() error { return e.Err }

// TimeoutReason distinguishes why the agent liveness window elapsed.
type TimeoutReason string

const (
	// ReasonAgentNeverJoined: the agent never joined the room; its state
	// stayed unknown or connecting the whole window.
	ReasonAgentNeverJoined TimeoutReason = "agent did not join"
	// ReasonAgentNotAvailable: the agent joined but never became
	// listening/thinking/speaking.
	ReasonAgentNotAvailable TimeoutReason = "agent connected but did not become available"
)

// AgentTimeoutError reports a fired liveness watchdog. The session is
// forcibly torn down when this surfaces.
type AgentTimeoutError struct {
	Reason TimeoutReason
}

func (e *AgentTimeoutError) Error() string {
	return fmt.Sprintf("agent unavailable: %s", e.Reason)
}
