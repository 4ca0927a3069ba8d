package app

import (
	"context"
	"sync"
	"time"

	"github.com/wordpan/wordpan/internal/core"
)

// fakeRoom is a controllable RoomHandle for machine and composer tests.
type fakeRoom struct {
	mu sync.Mutex

	state        core.ConnectionState
	agent        *core.ParticipantInfo
	agentState   core.AgentState
	participants []core.ParticipantInfo

	rpcErr     error
	rpcAck     string
	rpcBlocked chan struct{} // when set, PerformRPC waits until closed
	rpcCalls   []core.RPCRequest

	micErr     error
	micEnabled bool

	connectErr error
	// when set, Connect reports this agent state before returning,
	// like a room whose agent is already mid-lifecycle
	agentStateOnConnect core.AgentState

	handlers map[int]core.EventHandler
	nextSub  int
}

func newFakeRoom() *fakeRoom {
	return &fakeRoom{
		state:    core.ConnectionStateDisconnected,
		handlers: make(map[int]core.EventHandler),
	}
}

func (f *fakeRoom) withAgent(identity string) *fakeRoom {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.agent = &core.ParticipantInfo{Identity: identity, Name: identity, IsAgent: true}
	return f
}

func (f *fakeRoom) Connect(ctx context.Context, details core.ConnectionDetails) error {
	f.mu.Lock()
	if f.connectErr != nil {
		f.mu.Unlock()
		return f.connectErr
	}
	f.state = core.ConnectionStateConnected
	st := f.agentStateOnConnect
	f.mu.Unlock()
	if st != core.AgentStateUnknown {
		f.emitAgentState(st)
	}
	return nil
}

func (f *fakeRoom) Disconnect() {
	f.mu.Lock()
	f.state = core.ConnectionStateDisconnected
	f.mu.Unlock()
}

func (f *fakeRoom) State() core.ConnectionState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeRoom) Participants() []core.ParticipantInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]core.ParticipantInfo(nil), f.participants...)
	if f.agent != nil {
		out = append(out, *f.agent)
	}
	return out
}

func (f *fakeRoom) AgentParticipant() (core.ParticipantInfo, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.agent == nil {
		return core.ParticipantInfo{}, false
	}
	return *f.agent, true
}

func (f *fakeRoom) AgentState() core.AgentState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.agentState
}

func (f *fakeRoom) PerformRPC(ctx context.Context, req core.RPCRequest) (string, error) {
	f.mu.Lock()
	f.rpcCalls = append(f.rpcCalls, req)
	blocked := f.rpcBlocked
	ack, err := f.rpcAck, f.rpcErr
	f.mu.Unlock()
	if blocked != nil {
		<-blocked
	}
	return ack, err
}

func (f *fakeRoom) SetMicrophoneEnabled(enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.micErr != nil {
		return f.micErr
	}
	f.micEnabled = enabled
	return nil
}

func (f *fakeRoom) Subscribe(h core.EventHandler) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextSub
	f.nextSub++
	f.handlers[id] = h
	return func() {
		f.mu.Lock()
		delete(f.handlers, id)
		f.mu.Unlock()
	}
}

func (f *fakeRoom) calls() []core.RPCRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.RPCRequest(nil), f.rpcCalls...)
}

func (f *fakeRoom) emitAgentState(s core.AgentState) {
	f.mu.Lock()
	f.agentState = s
	hs := make([]core.EventHandler, 0, len(f.handlers))
	for _, h := range f.handlers {
		hs = append(hs, h)
	}
	f.mu.Unlock()
	for _, h := range hs {
		if h.OnAgentState != nil {
			h.OnAgentState(s)
		}
	}
}

func (f *fakeRoom) emitAnswer(correct bool) {
	f.mu.Lock()
	hs := make([]core.EventHandler, 0, len(f.handlers))
	for _, h := range f.handlers {
		hs = append(hs, h)
	}
	f.mu.Unlock()
	for _, h := range hs {
		if h.OnAnswerResult != nil {
			h.OnAnswerResult(core.AnswerResult{Correct: correct})
		}
	}
}

func (f *fakeRoom) emitDisconnected() {
	f.mu.Lock()
	f.state = core.ConnectionStateDisconnected
	hs := make([]core.EventHandler, 0, len(f.handlers))
	for _, h := range f.handlers {
		hs = append(hs, h)
	}
	f.mu.Unlock()
	for _, h := range hs {
		if h.OnConnectionState != nil {
			h.OnConnectionState(core.ConnectionStateDisconnected)
		}
	}
}

// fakeProvider returns canned connection details.
type fakeProvider struct {
	details core.ConnectionDetails
	err     error
	calls   int
}

func (p *fakeProvider) Refresh(ctx context.Context) (core.ConnectionDetails, error) {
	p.calls++
	return p.details, p.err
}

func (p *fakeProvider) ExistingOrRefresh(ctx context.Context) (core.ConnectionDetails, error) {
	return p.Refresh(ctx)
}

func testDetails() core.ConnectionDetails {
	return core.ConnectionDetails{
		ServerURL:        "wss://example.livekit.cloud",
		RoomName:         "wordpan-test",
		ParticipantToken: "tok",
		Identity:         "player__1",
		ExpiresAt:        time.Now().Add(time.Hour),
	}
}
