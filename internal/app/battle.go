package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wordpan/wordpan/internal/core"
)

// RPC methods understood by the battle agent (push-to-talk protocol).
const (
	rpcStartListening = "start_listening"
	rpcStopListening  = "stop_listening"
	rpcAttack         = "attack"
	rpcProtect        = "protect"
	rpcReply          = "reply"
)

// BattleControl drives the compliment battle mode. Each action maps to a
// single RPC against the agent; like the game machine, only one call may
// be in flight and nothing is queued.
type BattleControl struct {
	room       core.RoomHandle
	rpcTimeout time.Duration

	mu   sync.Mutex
	busy bool
}

func NewBattleControl(room core.RoomHandle, rpcTimeout time.Duration) *BattleControl {
	return &BattleControl{room: room, rpcTimeout: rpcTimeout}
}

// Attack asks the agent to deliver its verse. The payload carries optional
// custom instructions verbatim.
func (b *BattleControl) Attack(ctx context.Context, instructions string) error {
	return b.call(ctx, rpcAttack, instructions)
}

// Protect primes the agent's defense strategy and starts it listening.
func (b *BattleControl) Protect(ctx context.Context, instructions string) error {
	return b.call(ctx, rpcProtect, instructions)
}

// StartListening opens the agent's ears for the player's turn.
func (b *BattleControl) StartListening(ctx context.Context) error {
	return b.call(ctx, rpcStartListening, "")
}

// StopListening marks the end of the player's turn without committing it.
func (b *BattleControl) StopListening(ctx context.Context) error {
	return b.call(ctx, rpcStopListening, "")
}

// Reply commits the player's turn and asks the agent to respond.
func (b *BattleControl) Reply(ctx context.Context) error {
	return b.call(ctx, rpcReply, "")
}

func (b *BattleControl) call(ctx context.Context, method, payload string) error {
	b.mu.Lock()
	if b.busy {
		b.mu.Unlock()
		return core.ErrGameBusy
	}
	agent, ok := b.room.AgentParticipant()
	if !ok {
		b.mu.Unlock()
		return core.ErrNoAgentPresent
	}
	b.busy = true
	b.mu.Unlock()

	_, err := b.room.PerformRPC(ctx, core.RPCRequest{
		DestinationIdentity: agent.Identity,
		Method:              method,
		Payload:             payload,
		Timeout:             b.rpcTimeout,
	})

	b.mu.Lock()
	b.busy = false
	b.mu.Unlock()

	if err != nil {
		log.Error().Err(err).Str("module", "app.battle").Str("method", method).Msg("battle rpc failed")
		return &core.RPCError{Method: method, Err: err}
	}
	log.Info().Str("module", "app.battle").Str("method", method).Msg("battle rpc ok")
	return nil
}
