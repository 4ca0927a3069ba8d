package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wordpan/wordpan/internal/core"
	"github.com/wordpan/wordpan/internal/domain"
)

// ViewState is the read-only snapshot the presentation layer renders.
// The view dispatches intents and reads this; it never holds game state.
type ViewState struct {
	Started         bool                 `json:"started"`
	AudioEnabled    bool                 `json:"audio_enabled"`
	ConnectionState core.ConnectionState `json:"connection_state"`
	AgentState      core.AgentState      `json:"agent_state"`
	AgentPresent    bool                 `json:"agent_present"`
	GamePhase       GamePhase            `json:"game_phase"`
	Language        domain.Language      `json:"language"`
	Languages       []domain.Language    `json:"languages"`
	Score           domain.Score         `json:"score"`
	ScoreDisplay    string               `json:"score_display"`
	// Notice is a dismissible media-device warning; it does not end the session.
	Notice string `json:"notice,omitempty"`
	// FailureReason explains a forced teardown on the welcome view.
	FailureReason string `json:"failure_reason,omitempty"`
}

// SessionComposer owns the room handle lifecycle for one player.
//
// It is the only component allowed to connect or disconnect the room; the
// game machine and battle control share the handle read-only. On start it
// arms the agent liveness watchdog: if the agent is still unreachable
// when the window fires, the session is torn down with a user-visible
// reason.
type SessionComposer struct {
	provider     core.ConnectionProvider
	room         core.RoomHandle
	game         *GameMachine
	battle       *BattleControl
	agentTimeout time.Duration

	mu           sync.Mutex
	started      bool
	audioEnabled bool
	agentState   core.AgentState
	notice       string
	failure      string
	unsubscribe  func()

	watchdog *agentWatchdog
	onChange func(ViewState)
}

func NewSessionComposer(
	provider core.ConnectionProvider,
	room core.RoomHandle,
	game *GameMachine,
	battle *BattleControl,
	agentTimeout time.Duration,
) *SessionComposer {
	c := &SessionComposer{
		provider:     provider,
		room:         room,
		game:         game,
		battle:       battle,
		agentTimeout: agentTimeout,
	}
	c.watchdog = newAgentWatchdog(c.onAgentTimeout)
	return c
}

// OnChange registers the snapshot push callback used by the view bridge.
func (c *SessionComposer) OnChange(fn func(ViewState)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// Game exposes the machine for intent dispatch.
func (c *SessionComposer) Game() *GameMachine { return c.game }

// Battle exposes the compliment battle control for intent dispatch.
func (c *SessionComposer) Battle() *BattleControl { return c.battle }

// StartSession fetches connection details, joins the room and arms the
// liveness watchdog. Audio starts enabled.
func (c *SessionComposer) StartSession(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.failure = ""
	c.notice = ""
	c.mu.Unlock()

	details, err := c.provider.ExistingOrRefresh(ctx)
	if err != nil {
		log.Error().Err(err).Str("module", "app.session").Msg("connection details fetch failed")
		return err
	}

	unsub := c.room.Subscribe(core.EventHandler{
		OnConnectionState:  c.handleConnectionState,
		OnAgentState:       c.handleAgentState,
		OnAnswerResult:     c.handleAnswerResult,
		OnMediaDeviceError: c.handleMediaDeviceError,
		OnParticipantJoin:  func(core.ParticipantInfo) { c.push() },
		OnParticipantLeft:  func(core.ParticipantInfo) { c.push() },
	})

	if err := c.room.Connect(ctx, details); err != nil {
		unsub()
		log.Error().Err(err).Str("module", "app.session").Str("room", details.RoomName).Msg("room connect failed")
		return err
	}

	c.mu.Lock()
	c.started = true
	c.audioEnabled = true
	c.unsubscribe = unsub
	c.mu.Unlock()

	if err := c.room.SetMicrophoneEnabled(true); err != nil {
		// Mic failure is a dismissible notice, not a session killer.
		c.handleMediaDeviceError(err)
	}

	c.watchdog.Arm(c.agentTimeout)
	// The agent may already be reachable; states reported during connect
	// arrived before the watchdog was armed.
	c.watchdog.NoteAgentState(c.room.AgentState())
	log.Info().Str("module", "app.session").Str("room", details.RoomName).Msg("session started")
	c.push()
	return nil
}

// StopSession tears the session down. Safe to call twice.
func (c *SessionComposer) StopSession() {
	c.stop("")
}

func (c *SessionComposer) stop(failure string) {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return
	}
	c.started = false
	c.audioEnabled = false
	if failure != "" {
		c.failure = failure
	}
	unsub := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	c.watchdog.Cancel()
	c.room.Disconnect()
	c.game.OnDisconnect()
	if unsub != nil {
		unsub()
	}
	log.Info().Str("module", "app.session").Str("failure", failure).Msg("session stopped")
	c.push()
}

// SetAudioEnabled toggles the published microphone track.
func (c *SessionComposer) SetAudioEnabled(enabled bool) error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return core.ErrNotConnected
	}
	c.audioEnabled = enabled
	c.mu.Unlock()

	if err := c.room.SetMicrophoneEnabled(enabled); err != nil {
		c.handleMediaDeviceError(err)
		return err
	}
	c.push()
	return nil
}

// DismissNotice clears the media-device warning.
func (c *SessionComposer) DismissNotice() {
	c.mu.Lock()
	c.notice = ""
	c.mu.Unlock()
	c.push()
}

// Snapshot builds the current view state.
func (c *SessionComposer) Snapshot() ViewState {
	c.mu.Lock()
	started := c.started
	audio := c.audioEnabled
	agentState := c.agentState
	notice := c.notice
	failure := c.failure
	c.mu.Unlock()

	_, agentPresent := c.room.AgentParticipant()
	score := c.game.Score()
	return ViewState{
		Started:         started,
		AudioEnabled:    audio,
		ConnectionState: c.room.State(),
		AgentState:      agentState,
		AgentPresent:    agentPresent,
		GamePhase:       c.game.Phase(),
		Language:        c.game.Language(),
		Languages:       domain.Languages(),
		Score:           score,
		ScoreDisplay:    score.Display(),
		Notice:          notice,
		FailureReason:   failure,
	}
}

func (c *SessionComposer) push() {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn(c.Snapshot())
	}
}

func (c *SessionComposer) onAgentTimeout(reason core.TimeoutReason) {
	err := &core.AgentTimeoutError{Reason: reason}
	log.Warn().Str("module", "app.session").Str("reason", string(reason)).Msg("agent liveness window elapsed")
	c.stop(err.Error())
}

func (c *SessionComposer) handleConnectionState(s core.ConnectionState) {
	if s == core.ConnectionStateDisconnected {
		// Remote-initiated drop: same teardown path as an explicit stop.
		c.stop("")
		return
	}
	c.push()
}

func (c *SessionComposer) handleAgentState(s core.AgentState) {
	c.mu.Lock()
	c.agentState = s
	c.mu.Unlock()
	c.watchdog.NoteAgentState(s)
	c.push()
}

func (c *SessionComposer) handleAnswerResult(r core.AnswerResult) {
	c.game.RecordAnswer(r.Correct)
	c.push()
}

func (c *SessionComposer) handleMediaDeviceError(err error) {
	c.mu.Lock()
	c.notice = "media device error: " + err.Error()
	c.mu.Unlock()
	log.Warn().Err(err).Str("module", "app.session").Msg("media device error")
	c.push()
}
