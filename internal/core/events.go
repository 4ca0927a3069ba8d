package core

// EventHandler receives room events. Any field may be nil; the handle
// invokes only the callbacks that are set. Handlers run on the room's
// event goroutine and must not block.
type EventHandler struct {
	OnConnectionState func(ConnectionState)
	OnParticipantJoin func(ParticipantInfo)
	OnParticipantLeft func(ParticipantInfo)
	OnAgentState      func(AgentState)
	// OnAnswerResult fires when the agent reports a judged answer
	// via the notify_answer RPC.
	OnAnswerResult func(AnswerResult)
	// OnMediaDeviceError fires when local mic/camera acquisition fails.
	// It never terminates the session by itself.
	OnMediaDeviceError func(error)
}

// AnswerResult is the per-answer correctness signal delivered by the agent.
type AnswerResult struct {
	Correct bool   `json:"correct"`
	Word    string `json:"word,omitempty"`
}
