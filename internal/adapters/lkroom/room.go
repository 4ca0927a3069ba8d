// Package lkroom adapts a LiveKit room connection to the core.RoomHandle
// contract. All platform specifics (SDK callbacks, participant kinds,
// agent attributes) stay behind this package.
package lkroom

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/wordpan/wordpan/internal/core"
)

// agentStateAttr is the participant attribute the agent framework keeps
// updated with its lifecycle state.
const agentStateAttr = "lk.agent.state"

// rpcNotifyAnswer is the client-registered method the agent invokes to
// report a judged answer. Payload: {"correct":bool,"word":string}.
const rpcNotifyAnswer = "notify_answer"

type Handle struct {
	mu         sync.Mutex
	room       *lksdk.Room
	state      core.ConnectionState
	agentState core.AgentState
	micPub     *lksdk.LocalTrackPublication

	subs    map[int]core.EventHandler
	nextSub int
}

func NewHandle() *Handle {
	return &Handle{
		state: core.ConnectionStateDisconnected,
		subs:  make(map[int]core.EventHandler),
	}
}

var _ core.RoomHandle = (*Handle)(nil)

func (h *Handle) Connect(ctx context.Context, details core.ConnectionDetails) error {
	h.mu.Lock()
	if h.state != core.ConnectionStateDisconnected {
		h.mu.Unlock()
		return fmt.Errorf("room already connected")
	}
	h.state = core.ConnectionStateConnecting
	h.mu.Unlock()
	h.emit(func(e core.EventHandler) {
		if e.OnConnectionState != nil {
			e.OnConnectionState(core.ConnectionStateConnecting)
		}
	})

	cb := &lksdk.RoomCallback{
		OnDisconnected:            h.onDisconnected,
		OnParticipantConnected:    h.onParticipantConnected,
		OnParticipantDisconnected: h.onParticipantDisconnected,
		ParticipantCallback: lksdk.ParticipantCallback{
			OnAttributesChanged: h.onAttributesChanged,
		},
	}

	room, err := lksdk.ConnectToRoomWithToken(details.ServerURL, details.ParticipantToken, cb, lksdk.WithAutoSubscribe(true))
	if err != nil {
		h.mu.Lock()
		h.state = core.ConnectionStateDisconnected
		h.mu.Unlock()
		return fmt.Errorf("connect to room: %w", err)
	}

	if err := room.RegisterRpcMethod(rpcNotifyAnswer, h.handleNotifyAnswer); err != nil {
		room.Disconnect()
		h.mu.Lock()
		h.state = core.ConnectionStateDisconnected
		h.mu.Unlock()
		return fmt.Errorf("register %s: %w", rpcNotifyAnswer, err)
	}

	h.mu.Lock()
	h.room = room
	h.state = core.ConnectionStateConnected
	h.mu.Unlock()

	log.Info().Str("module", "adapters.lkroom").Str("room", details.RoomName).Str("identity", details.Identity).Msg("connected")
	h.emit(func(e core.EventHandler) {
		if e.OnConnectionState != nil {
			e.OnConnectionState(core.ConnectionStateConnected)
		}
	})

	// The agent may already be in the room and mid-lifecycle.
	h.refreshAgentState()
	return nil
}

func (h *Handle) Disconnect() {
	h.mu.Lock()
	room := h.room
	h.room = nil
	h.micPub = nil
	alreadyDown := h.state == core.ConnectionStateDisconnected
	h.state = core.ConnectionStateDisconnected
	h.agentState = core.AgentStateUnknown
	h.mu.Unlock()

	if room != nil {
		room.Disconnect()
	}
	if !alreadyDown {
		log.Info().Str("module", "adapters.lkroom").Msg("disconnected")
	}
}

func (h *Handle) State() core.ConnectionState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *Handle) Participants() []core.ParticipantInfo {
	h.mu.Lock()
	room := h.room
	h.mu.Unlock()
	if room == nil {
		return nil
	}
	remotes := room.GetRemoteParticipants()
	out := make([]core.ParticipantInfo, 0, len(remotes))
	for _, rp := range remotes {
		out = append(out, core.ParticipantInfo{
			Identity: rp.Identity(),
			Name:     rp.Name(),
			IsAgent:  isAgent(rp),
		})
	}
	return out
}

func (h *Handle) AgentParticipant() (core.ParticipantInfo, bool) {
	for _, p := range h.Participants() {
		if p.IsAgent {
			return p, true
		}
	}
	return core.ParticipantInfo{}, false
}

func (h *Handle) AgentState() core.AgentState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.agentState
}

func (h *Handle) PerformRPC(ctx context.Context, req core.RPCRequest) (string, error) {
	h.mu.Lock()
	room := h.room
	h.mu.Unlock()
	if room == nil {
		return "", core.ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	timeout := req.Timeout
	res, err := room.LocalParticipant.PerformRpc(lksdk.PerformRpcParams{
		DestinationIdentity: req.DestinationIdentity,
		Method:              req.Method,
		Payload:             req.Payload,
		ResponseTimeout:     &timeout,
	})
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.lkroom").Str("method", req.Method).Msg("rpc failed")
		return "", err
	}
	if res == nil {
		return "", nil
	}
	return *res, nil
}

// SetMicrophoneEnabled publishes or unpublishes the local opus track.
// Sample delivery into the track belongs to the capture layer, not here.
func (h *Handle) SetMicrophoneEnabled(enabled bool) error {
	h.mu.Lock()
	room := h.room
	pub := h.micPub
	h.mu.Unlock()
	if room == nil {
		return core.ErrNotConnected
	}

	if !enabled {
		if pub != nil {
			if err := room.LocalParticipant.UnpublishTrack(pub.SID()); err != nil {
				return fmt.Errorf("unpublish microphone: %w", err)
			}
			h.mu.Lock()
			h.micPub = nil
			h.mu.Unlock()
		}
		return nil
	}

	if pub != nil {
		return nil
	}
	track, err := lksdk.NewLocalSampleTrack(webrtc.RTPCodecCapability{
		MimeType:  webrtc.MimeTypeOpus,
		ClockRate: 48000,
		Channels:  1,
	})
	if err != nil {
		h.emitMediaError(err)
		return err
	}
	newPub, err := room.LocalParticipant.PublishTrack(track, &lksdk.TrackPublicationOptions{
		Name:   "microphone",
		Source: livekit.TrackSource_MICROPHONE,
	})
	if err != nil {
		h.emitMediaError(err)
		return err
	}
	h.mu.Lock()
	h.micPub = newPub
	h.mu.Unlock()
	return nil
}

func (h *Handle) Subscribe(handler core.EventHandler) func() {
	h.mu.Lock()
	id := h.nextSub
	h.nextSub++
	h.subs[id] = handler
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}

// --- SDK callbacks ---

func (h *Handle) onDisconnected() {
	h.mu.Lock()
	wasDown := h.state == core.ConnectionStateDisconnected
	h.state = core.ConnectionStateDisconnected
	h.room = nil
	h.micPub = nil
	h.agentState = core.AgentStateUnknown
	h.mu.Unlock()
	if wasDown {
		return
	}
	log.Warn().Str("module", "adapters.lkroom").Msg("room dropped")
	h.emit(func(e core.EventHandler) {
		if e.OnConnectionState != nil {
			e.OnConnectionState(core.ConnectionStateDisconnected)
		}
	})
}

func (h *Handle) onParticipantConnected(rp *lksdk.RemoteParticipant) {
	info := core.ParticipantInfo{Identity: rp.Identity(), Name: rp.Name(), IsAgent: isAgent(rp)}
	log.Info().Str("module", "adapters.lkroom").Str("identity", info.Identity).Bool("agent", info.IsAgent).Msg("participant joined")
	h.emit(func(e core.EventHandler) {
		if e.OnParticipantJoin != nil {
			e.OnParticipantJoin(info)
		}
	})
	if info.IsAgent {
		h.refreshAgentState()
	}
}

func (h *Handle) onParticipantDisconnected(rp *lksdk.RemoteParticipant) {
	info := core.ParticipantInfo{Identity: rp.Identity(), Name: rp.Name(), IsAgent: isAgent(rp)}
	log.Info().Str("module", "adapters.lkroom").Str("identity", info.Identity).Msg("participant left")
	h.emit(func(e core.EventHandler) {
		if e.OnParticipantLeft != nil {
			e.OnParticipantLeft(info)
		}
	})
	if info.IsAgent {
		h.setAgentState(core.AgentStateUnknown)
	}
}

func (h *Handle) onAttributesChanged(changed map[string]string, p lksdk.Participant) {
	raw, ok := changed[agentStateAttr]
	if !ok {
		return
	}
	h.setAgentState(parseAgentState(raw))
}

func (h *Handle) handleNotifyAnswer(data lksdk.RpcInvocationData) (string, error) {
	var result core.AnswerResult
	if err := json.Unmarshal([]byte(data.Payload), &result); err != nil {
		log.Error().Err(err).Str("module", "adapters.lkroom").Msg("bad notify_answer payload")
		return "", fmt.Errorf("bad payload: %w", err)
	}
	h.emit(func(e core.EventHandler) {
		if e.OnAnswerResult != nil {
			e.OnAnswerResult(result)
		}
	})
	return "ok", nil
}

// --- helpers ---

func (h *Handle) refreshAgentState() {
	h.mu.Lock()
	room := h.room
	h.mu.Unlock()
	if room == nil {
		return
	}
	for _, rp := range room.GetRemoteParticipants() {
		if !isAgent(rp) {
			continue
		}
		if raw, ok := rp.Attributes()[agentStateAttr]; ok {
			h.setAgentState(parseAgentState(raw))
		} else {
			h.setAgentState(core.AgentStateConnecting)
		}
		return
	}
}

func (h *Handle) setAgentState(s core.AgentState) {
	h.mu.Lock()
	if h.agentState == s {
		h.mu.Unlock()
		return
	}
	h.agentState = s
	h.mu.Unlock()
	log.Info().Str("module", "adapters.lkroom").Str("agent_state", string(s)).Msg("agent state")
	h.emit(func(e core.EventHandler) {
		if e.OnAgentState != nil {
			e.OnAgentState(s)
		}
	})
}

func (h *Handle) emitMediaError(err error) {
	h.emit(func(e core.EventHandler) {
		if e.OnMediaDeviceError != nil {
			e.OnMediaDeviceError(err)
		}
	})
}

func (h *Handle) emit(fn func(core.EventHandler)) {
	h.mu.Lock()
	handlers := make([]core.EventHandler, 0, len(h.subs))
	for _, e := range h.subs {
		handlers = append(handlers, e)
	}
	h.mu.Unlock()
	for _, e := range handlers {
		fn(e)
	}
}

func isAgent(rp *lksdk.RemoteParticipant) bool {
	if rp.Kind() == lksdk.ParticipantAgent {
		return true
	}
	_, ok := rp.Attributes()[agentStateAttr]
	return ok
}

func parseAgentState(raw string) core.AgentState {
	switch core.AgentState(raw) {
	case core.AgentStateConnecting, core.AgentStateInitializing,
		core.AgentStateListening, core.AgentStateThinking, core.AgentStateSpeaking:
		return core.AgentState(raw)
	}
	return core.AgentStateUnknown
}
