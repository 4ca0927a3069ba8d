package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wordpan/wordpan/internal/core"
	"github.com/wordpan/wordpan/internal/domain"
)

// RPC methods understood by the word game agent.
const (
	rpcStartGame = "start_game"
	rpcStopGame  = "stop_game"
)

var (
	ErrGameAlreadyActive = errors.New("game already active")
	ErrGameNotActive     = errors.New("game not active")
)

// GamePhase is the word game lifecycle.
type GamePhase string

const (
	PhaseIdle     GamePhase = "idle"
	PhaseStarting GamePhase = "starting"
	PhaseActive   GamePhase = "active"
	PhaseStopping GamePhase = "stopping"
)

// busy reports whether a start/stop RPC is in flight.
func (p GamePhase) busy() bool { return p == PhaseStarting || p == PhaseStopping }

// GameMachine drives the word game against the remote agent.
//
// It only reads the room's participant set and issues RPCs; connecting and
// disconnecting the room belongs to the session composer. At most one
// start/stop call is in flight at a time; a second call is rejected with
// core.ErrGameBusy, never queued. A room disconnect forces the machine
// back to idle from any phase and discards in-flight RPC results.
type GameMachine struct {
	room       core.RoomHandle
	rpcTimeout time.Duration

	mu       sync.Mutex
	phase    GamePhase
	language domain.Language
	score    domain.Score
	// gen invalidates in-flight RPCs on reset.
	gen uint64
}

func NewGameMachine(room core.RoomHandle, rpcTimeout time.Duration) *GameMachine {
	return &GameMachine{
		room:       room,
		rpcTimeout: rpcTimeout,
		phase:      PhaseIdle,
		language:   domain.Portuguese,
	}
}

func (g *GameMachine) Phase() GamePhase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

func (g *GameMachine) Language() domain.Language {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.language
}

func (g *GameMachine) Score() domain.Score {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.score
}

// SelectLanguage stores the language for the next start. Idle only.
func (g *GameMachine) SelectLanguage(lang domain.Language) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != PhaseIdle {
		if g.phase.busy() {
			return core.ErrGameBusy
		}
		return ErrGameAlreadyActive
	}
	g.language = lang
	log.Info().Str("module", "app.game").Str("language", lang.String()).Msg("language selected")
	return nil
}

// StartGame asks the agent to begin a round. On success the score resets
// to zero and the machine becomes active. The RPC payload is the exact
// language name.
func (g *GameMachine) StartGame(ctx context.Context) error {
	g.mu.Lock()
	if g.phase.busy() {
		g.mu.Unlock()
		return core.ErrGameBusy
	}
	if g.phase == PhaseActive {
		g.mu.Unlock()
		return ErrGameAlreadyActive
	}
	agent, ok := g.room.AgentParticipant()
	if !ok {
		g.mu.Unlock()
		return core.ErrNoAgentPresent
	}
	g.phase = PhaseStarting
	gen := g.gen
	lang := g.language
	g.mu.Unlock()

	_, err := g.room.PerformRPC(ctx, core.RPCRequest{
		DestinationIdentity: agent.Identity,
		Method:              rpcStartGame,
		Payload:             lang.String(),
		Timeout:             g.rpcTimeout,
	})

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gen != gen {
		// Room went away while the call was in flight; the result is stale.
		log.Warn().Str("module", "app.game").Msg("start result discarded after reset")
		return core.ErrNotConnected
	}
	if err != nil {
		g.phase = PhaseIdle
		log.Error().Err(err).Str("module", "app.game").Msg("start_game rpc failed")
		return &core.RPCError{Method: rpcStartGame, Err: err}
	}
	g.phase = PhaseActive
	g.score.Reset()
	log.Info().Str("module", "app.game").Str("language", lang.String()).Msg("game started")
	return nil
}

// StopGame asks the agent to end the round. The score is kept for display
// until the next StartGame.
func (g *GameMachine) StopGame(ctx context.Context) error {
	g.mu.Lock()
	if g.phase.busy() {
		g.mu.Unlock()
		return core.ErrGameBusy
	}
	if g.phase != PhaseActive {
		g.mu.Unlock()
		return ErrGameNotActive
	}
	agent, ok := g.room.AgentParticipant()
	if !ok {
		g.mu.Unlock()
		return core.ErrNoAgentPresent
	}
	g.phase = PhaseStopping
	gen := g.gen
	g.mu.Unlock()

	_, err := g.room.PerformRPC(ctx, core.RPCRequest{
		DestinationIdentity: agent.Identity,
		Method:              rpcStopGame,
		Payload:             "",
		Timeout:             g.rpcTimeout,
	})

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gen != gen {
		log.Warn().Str("module", "app.game").Msg("stop result discarded after reset")
		return core.ErrNotConnected
	}
	if err != nil {
		g.phase = PhaseActive
		log.Error().Err(err).Str("module", "app.game").Msg("stop_game rpc failed")
		return &core.RPCError{Method: rpcStopGame, Err: err}
	}
	g.phase = PhaseIdle
	log.Info().Str("module", "app.game").Str("score", g.score.Display()).Msg("game stopped")
	return nil
}

// RecordAnswer counts one judged answer reported by the agent.
// Answers arriving outside an active round are dropped.
func (g *GameMachine) RecordAnswer(correct bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != PhaseActive {
		log.Debug().Str("module", "app.game").Bool("correct", correct).Msg("answer outside active round dropped")
		return
	}
	g.score.Record(correct)
	log.Info().Str("module", "app.game").Bool("correct", correct).Str("score", g.score.Display()).Msg("answer recorded")
}

// OnDisconnect forces the machine back to idle from any phase. Game state
// is reset, not persisted; results of in-flight RPCs are discarded.
func (g *GameMachine) OnDisconnect() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gen++
	g.phase = PhaseIdle
	g.score.Reset()
	log.Info().Str("module", "app.game").Msg("reset on disconnect")
}
