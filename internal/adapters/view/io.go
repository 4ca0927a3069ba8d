package view

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/wordpan/wordpan/internal/app"
)

func (ctl *ViewWSController) writePump(ctx context.Context, c *wsViewConn) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "view").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "view").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "view").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "view").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *ViewWSController) readPump(ctx context.Context, sid app.SessionID, composer *app.SessionComposer, c *wsViewConn) {
	defer func() {
		log.Info().Str("module", "view").Str("sid", string(sid)).Msg("readPump closing")
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "view").Str("sid", string(sid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Error().Err(err).Str("module", "view").Str("sid", string(sid)).Msg("readPump read error")
				return
			}
			ctl.handleIntent(ctx, sid, composer, c, data)
		}
	}
}

func (ctl *ViewWSController) sendJSON(c *wsViewConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "view").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

func (ctl *ViewWSController) sendState(c *wsViewConn, state app.ViewState) {
	ctl.sendJSON(c, struct {
		Type string `json:"type"`
		app.ViewState
	}{Type: "state", ViewState: state})
}

func (ctl *ViewWSController) sendError(c *wsViewConn, msg string) {
	ctl.sendJSON(c, map[string]any{
		"type":  "error",
		"error": msg,
	})
}
