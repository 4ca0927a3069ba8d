// Package view is the websocket bridge between the browser and the
// session composer. The browser is a thin view: it dispatches intents
// and renders the state snapshots pushed back; it never holds game state.
package view

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/wordpan/wordpan/internal/app"
)

var ErrBackpressure = errors.New("backpressure")

type ViewWSController struct {
	Hub     *app.Hub
	Limiter *IntentRateLimiter

	mu       sync.Mutex
	attached map[app.SessionID]bool
}

func NewViewWSController(hub *app.Hub, limiter *IntentRateLimiter) *ViewWSController {
	return &ViewWSController{
		Hub:      hub,
		Limiter:  limiter,
		attached: make(map[app.SessionID]bool),
	}
}

// tryAttach claims the single view slot for a client. A session has one
// OnChange callback, so a second tab cannot share it; the second socket
// is rejected instead of silently stealing the session.
func (ctl *ViewWSController) tryAttach(sid app.SessionID) bool {
	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	if ctl.attached[sid] {
		return false
	}
	ctl.attached[sid] = true
	return true
}

func (ctl *ViewWSController) detach(sid app.SessionID) {
	ctl.mu.Lock()
	delete(ctl.attached, sid)
	ctl.mu.Unlock()
}

type wsViewConn struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func (c *wsViewConn) TrySend(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- data:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsViewConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleView upgrades the connection and binds it to the client's
// session composer. Composer changes are pushed as "state" envelopes
// for as long as the socket lives.
func (ctl *ViewWSController) HandleView(ctx context.Context, c *gin.Context) {
	sid := app.SessionID(c.GetString("client_token"))
	log.Info().Str("module", "view").Str("sid", string(sid)).Msg("new view WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade")
		return
	}

	if !ctl.tryAttach(sid) {
		log.Warn().Str("module", "view").Str("sid", string(sid)).Msg("second view attach rejected")
		_ = ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"error","error":"view already attached"}`))
		_ = ws.Close()
		return
	}

	conn := &wsViewConn{
		conn: ws,
		send: make(chan []byte, 32),
	}

	composer, err := ctl.Hub.GetOrCreate(sid)
	if err != nil {
		log.Error().Err(err).Str("module", "view").Str("sid", string(sid)).Msg("composer create failed")
		ctl.detach(sid)
		conn.Close()
		return
	}

	composer.OnChange(func(state app.ViewState) {
		ctl.sendState(conn, state)
	})

	ctx, cancel := context.WithCancel(ctx)

	go ctl.writePump(ctx, conn)
	go func() {
		defer cancel()
		ctl.readPump(ctx, sid, composer, conn)
		// The socket is the view's lifetime: tearing it down unmounts the
		// session and guarantees no timers outlive it.
		composer.OnChange(nil)
		ctl.Hub.Remove(sid)
		ctl.detach(sid)
	}()

	// Initial snapshot so the view renders without waiting for a change.
	ctl.sendState(conn, composer.Snapshot())
}
