package view

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/wordpan/wordpan/internal/app"
	"github.com/wordpan/wordpan/internal/core"
)

type stubRoom struct{}

func (stubRoom) Connect(context.Context, core.ConnectionDetails) error { return nil }
func (stubRoom) Disconnect()                                           {}
func (stubRoom) State() core.ConnectionState                           { return core.ConnectionStateDisconnected }
func (stubRoom) Participants() []core.ParticipantInfo                  { return nil }
func (stubRoom) AgentParticipant() (core.ParticipantInfo, bool) {
	return core.ParticipantInfo{}, false
}
func (stubRoom) AgentState() core.AgentState                             { return core.AgentStateUnknown }
func (stubRoom) PerformRPC(context.Context, core.RPCRequest) (string, error) { return "", nil }
func (stubRoom) SetMicrophoneEnabled(bool) error                         { return nil }
func (stubRoom) Subscribe(core.EventHandler) func()                      { return func() {} }

type stubProvider struct{}

func (stubProvider) Refresh(context.Context) (core.ConnectionDetails, error) {
	return core.ConnectionDetails{}, nil
}

func (stubProvider) ExistingOrRefresh(context.Context) (core.ConnectionDetails, error) {
	return core.ConnectionDetails{}, nil
}

func newViewTestServer(t *testing.T) (*httptest.Server, *ViewWSController, *app.Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := app.NewHub(func(sid app.SessionID) (*app.SessionComposer, error) {
		room := stubRoom{}
		game := app.NewGameMachine(room, time.Second)
		battle := app.NewBattleControl(room, time.Second)
		return app.NewSessionComposer(stubProvider{}, room, game, battle, time.Hour), nil
	})
	ctl := NewViewWSController(hub, nil)

	r := gin.New()
	r.GET("/api/ws/view", func(c *gin.Context) {
		c.Set("client_token", "sid-1")
		ctl.HandleView(c.Request.Context(), c)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, ctl, hub
}

func dialView(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/view"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return ws
}

func readEnvelope(t *testing.T, ws *websocket.Conn) map[string]any {
	t.Helper()
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var env map[string]any
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal %q: %v", data, err)
	}
	return env
}

func TestHandleView_SecondAttachRejected(t *testing.T) {
	srv, _, hub := newViewTestServer(t)

	first := dialView(t, srv)
	defer first.Close()
	if env := readEnvelope(t, first); env["type"] != "state" {
		t.Fatalf("first socket greeting = %v, want state snapshot", env)
	}

	// A second tab with the same client token must not steal the session.
	second := dialView(t, srv)
	defer second.Close()
	env := readEnvelope(t, second)
	if env["type"] != "error" {
		t.Fatalf("second socket got %v, want error envelope", env)
	}
	_ = second.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := second.ReadMessage(); err == nil {
		t.Error("second socket left open after rejection")
	}

	// The first tab's session survived the rejected attach.
	if hub.Count() != 1 {
		t.Fatalf("hub count = %d, want 1", hub.Count())
	}
	if err := first.WriteJSON(map[string]string{"type": "ping"}); err != nil {
		t.Fatalf("ping on first socket: %v", err)
	}
	if env := readEnvelope(t, first); env["type"] != "pong" {
		t.Errorf("first socket got %v, want pong", env)
	}
}

func TestHandleView_DetachFreesSlot(t *testing.T) {
	srv, ctl, hub := newViewTestServer(t)

	first := dialView(t, srv)
	if env := readEnvelope(t, first); env["type"] != "state" {
		t.Fatalf("greeting = %v, want state snapshot", env)
	}
	first.Close()

	// Teardown is asynchronous; wait for the hub to drop the session and
	// the attach slot to free up.
	deadline := time.After(2 * time.Second)
	for {
		ctl.mu.Lock()
		slots := len(ctl.attached)
		ctl.mu.Unlock()
		if hub.Count() == 0 && slots == 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("session never removed after socket close")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}

	second := dialView(t, srv)
	defer second.Close()
	if env := readEnvelope(t, second); env["type"] != "state" {
		t.Errorf("reattach after close got %v, want state snapshot", env)
	}
}
