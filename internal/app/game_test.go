package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wordpan/wordpan/internal/core"
	"github.com/wordpan/wordpan/internal/domain"
)

func newTestMachine(room core.RoomHandle) *GameMachine {
	return NewGameMachine(room, time.Second)
}

func TestStartGame_NoAgent(t *testing.T) {
	room := newFakeRoom()
	g := newTestMachine(room)

	err := g.StartGame(context.Background())
	if !errors.Is(err, core.ErrNoAgentPresent) {
		t.Fatalf("want ErrNoAgentPresent, got %v", err)
	}
	if g.Phase() != PhaseIdle {
		t.Errorf("phase changed on failed start: %v", g.Phase())
	}
	if len(room.calls()) != 0 {
		t.Errorf("rpc dispatched despite missing agent")
	}
}

func TestStartGame_PayloadIsExactLanguageName(t *testing.T) {
	for _, lang := range domain.Languages() {
		t.Run(lang.String(), func(t *testing.T) {
			room := newFakeRoom().withAgent("agent")
			g := newTestMachine(room)

			if err := g.SelectLanguage(lang); err != nil {
				t.Fatalf("select: %v", err)
			}
			if err := g.StartGame(context.Background()); err != nil {
				t.Fatalf("start: %v", err)
			}

			calls := room.calls()
			if len(calls) != 1 {
				t.Fatalf("want 1 rpc, got %d", len(calls))
			}
			if calls[0].Method != "start_game" {
				t.Errorf("method = %q", calls[0].Method)
			}
			if calls[0].Payload != lang.String() {
				t.Errorf("payload = %q, want %q", calls[0].Payload, lang)
			}
			if calls[0].DestinationIdentity != "agent" {
				t.Errorf("destination = %q", calls[0].DestinationIdentity)
			}
		})
	}
}

func TestStartStop_AlternatesAndResetsScore(t *testing.T) {
	room := newFakeRoom().withAgent("agent")
	g := newTestMachine(room)
	ctx := context.Background()

	if err := g.StartGame(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if g.Phase() != PhaseActive {
		t.Fatalf("phase = %v, want active", g.Phase())
	}

	g.RecordAnswer(true)
	g.RecordAnswer(false)
	g.RecordAnswer(true)
	if got := g.Score().Display(); got != "2 / 3 (67%)" {
		t.Errorf("score display = %q, want %q", got, "2 / 3 (67%)")
	}

	if err := g.StopGame(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if g.Phase() != PhaseIdle {
		t.Fatalf("phase = %v, want idle", g.Phase())
	}
	// Score survives the stop for display.
	if got := g.Score(); got.Total != 3 || got.Correct != 2 {
		t.Errorf("score after stop = %+v, want retained 2/3", got)
	}

	// ...and resets exactly on the next transition into active.
	if err := g.StartGame(ctx); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if got := g.Score().Display(); got != "0 / 0 (0%)" {
		t.Errorf("score after restart = %q, want %q", got, "0 / 0 (0%)")
	}
}

func TestStartGame_SecondCallWhileInFlightIsRejected(t *testing.T) {
	room := newFakeRoom().withAgent("agent")
	release := make(chan struct{})
	room.rpcBlocked = release
	g := newTestMachine(room)

	firstDone := make(chan error, 1)
	go func() { firstDone <- g.StartGame(context.Background()) }()

	// Wait until the first call is in flight.
	deadline := time.After(2 * time.Second)
	for g.Phase() != PhaseStarting {
		select {
		case <-deadline:
			t.Fatal("first start never reached starting phase")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	if err := g.StartGame(context.Background()); !errors.Is(err, core.ErrGameBusy) {
		t.Fatalf("second start: want ErrGameBusy, got %v", err)
	}
	if err := g.StopGame(context.Background()); !errors.Is(err, core.ErrGameBusy) {
		t.Fatalf("stop during start: want ErrGameBusy, got %v", err)
	}
	if len(room.calls()) != 1 {
		t.Errorf("second remote call dispatched: %d calls", len(room.calls()))
	}

	close(release)
	if err := <-firstDone; err != nil {
		t.Fatalf("first start: %v", err)
	}
}

func TestStartGame_RPCFailureClearsBusy(t *testing.T) {
	room := newFakeRoom().withAgent("agent")
	room.rpcErr = errors.New("boom")
	g := newTestMachine(room)

	err := g.StartGame(context.Background())
	var rpcErr *core.RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("want RPCError, got %v", err)
	}
	if g.Phase() != PhaseIdle {
		t.Fatalf("phase after failure = %v, want idle", g.Phase())
	}

	// Manual retry must be possible.
	room.mu.Lock()
	room.rpcErr = nil
	room.mu.Unlock()
	if err := g.StartGame(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
}

func TestStopGame_NotActive(t *testing.T) {
	room := newFakeRoom().withAgent("agent")
	g := newTestMachine(room)
	if err := g.StopGame(context.Background()); !errors.Is(err, ErrGameNotActive) {
		t.Fatalf("want ErrGameNotActive, got %v", err)
	}
}

func TestStopGame_NoAgent(t *testing.T) {
	room := newFakeRoom().withAgent("agent")
	g := newTestMachine(room)
	if err := g.StartGame(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Agent leaves mid-game.
	room.mu.Lock()
	room.agent = nil
	room.mu.Unlock()

	before := g.Score()
	if err := g.StopGame(context.Background()); !errors.Is(err, core.ErrNoAgentPresent) {
		t.Fatalf("want ErrNoAgentPresent, got %v", err)
	}
	if g.Phase() != PhaseActive {
		t.Errorf("phase changed on failed stop: %v", g.Phase())
	}
	if g.Score() != before {
		t.Errorf("score changed on failed stop")
	}
}

func TestSelectLanguage_OnlyIdle(t *testing.T) {
	room := newFakeRoom().withAgent("agent")
	g := newTestMachine(room)

	if err := g.SelectLanguage(domain.French); err != nil {
		t.Fatalf("select in idle: %v", err)
	}
	if err := g.StartGame(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := g.SelectLanguage(domain.German); !errors.Is(err, ErrGameAlreadyActive) {
		t.Fatalf("select while active: want ErrGameAlreadyActive, got %v", err)
	}
	if g.Language() != domain.French {
		t.Errorf("language changed while active: %v", g.Language())
	}
}

func TestRecordAnswer_CorrectNeverExceedsTotal(t *testing.T) {
	room := newFakeRoom().withAgent("agent")
	g := newTestMachine(room)
	if err := g.StartGame(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	answers := []bool{true, true, false, true, false, false, true}
	for _, a := range answers {
		g.RecordAnswer(a)
		s := g.Score()
		if s.Correct > s.Total {
			t.Fatalf("invariant broken: %+v", s)
		}
	}
	if s := g.Score(); s.Correct != 4 || s.Total != 7 {
		t.Errorf("score = %+v, want 4/7", s)
	}
}

func TestRecordAnswer_DroppedWhenIdle(t *testing.T) {
	room := newFakeRoom().withAgent("agent")
	g := newTestMachine(room)
	g.RecordAnswer(true)
	if s := g.Score(); s.Total != 0 {
		t.Errorf("answer counted outside active round: %+v", s)
	}
}

func TestOnDisconnect_ForcesIdleAndDiscardsInFlight(t *testing.T) {
	room := newFakeRoom().withAgent("agent")
	release := make(chan struct{})
	room.rpcBlocked = release
	g := newTestMachine(room)

	done := make(chan error, 1)
	go func() { done <- g.StartGame(context.Background()) }()
	deadline := time.After(2 * time.Second)
	for g.Phase() != PhaseStarting {
		select {
		case <-deadline:
			t.Fatal("start never in flight")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	g.OnDisconnect()
	if g.Phase() != PhaseIdle {
		t.Fatalf("phase after disconnect = %v", g.Phase())
	}

	close(release)
	if err := <-done; !errors.Is(err, core.ErrNotConnected) {
		t.Fatalf("in-flight start after disconnect: want ErrNotConnected, got %v", err)
	}
	// The stale success must not flip the machine back to active.
	if g.Phase() != PhaseIdle {
		t.Errorf("stale rpc result mutated phase: %v", g.Phase())
	}
	if s := g.Score(); s.Total != 0 || s.Correct != 0 {
		t.Errorf("score not reset on disconnect: %+v", s)
	}
}
