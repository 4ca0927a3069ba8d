package core

import (
	"context"
	"time"
)

// AgentState mirrors the lifecycle the agent reports through its
// participant attributes.
type AgentState string

const (
	AgentStateUnknown      AgentState = ""
	AgentStateConnecting   AgentState = "connecting"
	AgentStateInitializing AgentState = "initializing"
	AgentStateListening    AgentState = "listening"
	AgentStateThinking     AgentState = "thinking"
	AgentStateSpeaking     AgentState = "speaking"
)

// Reachable reports whether the agent is up and serving the session.
// A connecting or initializing agent is not reachable yet.
func (s AgentState) Reachable() bool {
	switch s {
	case AgentStateListening, AgentStateThinking, AgentStateSpeaking:
		return true
	}
	return false
}

// ConnectionState is the room transport state as seen by the handle owner.
type ConnectionState string

const (
	ConnectionStateDisconnected ConnectionState = "disconnected"
	ConnectionStateConnecting   ConnectionState = "connecting"
	ConnectionStateConnected    ConnectionState = "connected"
)

// ParticipantInfo is a read-only view of a room participant.
type ParticipantInfo struct {
	Identity string `json:"identity"`
	Name     string `json:"name"`
	IsAgent  bool   `json:"is_agent"`
}

// RPCRequest targets a single participant through the room transport.
// Payload is an opaque string per platform convention.
type RPCRequest struct {
	DestinationIdentity string
	Method              string
	Payload             string
	Timeout             time.Duration
}

// RoomHandle wraps one logical room connection.
//
// Exactly one owner may call Connect/Disconnect; other consumers are
// limited to reading participants and issuing RPCs. Events fire on the
// handle's event goroutine, in emission order.
type RoomHandle interface {
	Connect(ctx context.Context, details ConnectionDetails) error
	Disconnect()

	State() ConnectionState
	Participants() []ParticipantInfo
	// AgentParticipant returns the participant flagged as the agent,
	// or false if none is present in the room.
	AgentParticipant() (ParticipantInfo, bool)
	AgentState() AgentState

	// PerformRPC issues a single non-retried call and returns the ack payload.
	PerformRPC(ctx context.Context, req RPCRequest) (string, error)

	// SetMicrophoneEnabled publishes or unpublishes the local audio track.
	SetMicrophoneEnabled(enabled bool) error

	Subscribe(h EventHandler) (unsubscribe func())
}
