package view

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/wordpan/wordpan/internal/app"
	"github.com/wordpan/wordpan/internal/domain"
)

func (ctl *ViewWSController) handleIntent(ctx context.Context, sid app.SessionID, composer *app.SessionComposer, c *wsViewConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "view").Msg("bad json")
		ctl.sendError(c, "bad_payload")
		return
	}

	if ctl.Limiter != nil && isGameIntent(env.Type) && !ctl.Limiter.Allow(sid) {
		ctl.sendError(c, "too many requests")
		return
	}

	switch env.Type {
	case "ping":
		ctl.sendJSON(c, map[string]string{"type": "pong"})
	case "start_session":
		if err := composer.StartSession(ctx); err != nil {
			ctl.sendError(c, err.Error())
		}
	case "stop_session":
		composer.StopSession()
	case "set_audio":
		ctl.handleSetAudio(composer, c, data)
	case "dismiss_notice":
		composer.DismissNotice()
	case "select_language":
		ctl.handleSelectLanguage(composer, c, data)
	case "start_game":
		if err := composer.Game().StartGame(ctx); err != nil {
			ctl.sendError(c, err.Error())
		}
	case "stop_game":
		if err := composer.Game().StopGame(ctx); err != nil {
			ctl.sendError(c, err.Error())
		}
	case "start_listening":
		if err := composer.Battle().StartListening(ctx); err != nil {
			ctl.sendError(c, err.Error())
		}
	case "stop_listening":
		if err := composer.Battle().StopListening(ctx); err != nil {
			ctl.sendError(c, err.Error())
		}
	case "attack":
		ctl.handleBattleInstruction(ctx, composer, c, data, composer.Battle().Attack)
	case "protect":
		ctl.handleBattleInstruction(ctx, composer, c, data, composer.Battle().Protect)
	case "reply":
		if err := composer.Battle().Reply(ctx); err != nil {
			ctl.sendError(c, err.Error())
		}
	default:
		log.Warn().Str("module", "view").Str("type", env.Type).Msg("unknown intent")
		ctl.sendError(c, "unknown intent")
	}
}

func (ctl *ViewWSController) handleSetAudio(composer *app.SessionComposer, c *wsViewConn, data []byte) {
	var p struct {
		Type    string `json:"type"`
		Enabled bool   `json:"enabled"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(c, "bad_payload")
		return
	}
	if err := composer.SetAudioEnabled(p.Enabled); err != nil {
		ctl.sendError(c, err.Error())
	}
}

func (ctl *ViewWSController) handleSelectLanguage(composer *app.SessionComposer, c *wsViewConn, data []byte) {
	var p struct {
		Type     string `json:"type"`
		Language string `json:"language"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(c, "bad_payload")
		return
	}
	lang, err := domain.ParseLanguage(p.Language)
	if err != nil {
		ctl.sendError(c, err.Error())
		return
	}
	if err := composer.Game().SelectLanguage(lang); err != nil {
		ctl.sendError(c, err.Error())
	}
}

func (ctl *ViewWSController) handleBattleInstruction(
	ctx context.Context,
	composer *app.SessionComposer,
	c *wsViewConn,
	data []byte,
	call func(context.Context, string) error,
) {
	var p struct {
		Type         string `json:"type"`
		Instructions string `json:"instructions"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendError(c, "bad_payload")
		return
	}
	if err := call(ctx, p.Instructions); err != nil {
		ctl.sendError(c, err.Error())
	}
}

// isGameIntent marks the intents that hit the remote agent and are
// therefore rate limited per client.
func isGameIntent(t string) bool {
	switch t {
	case "start_game", "stop_game", "attack", "protect", "start_listening", "stop_listening", "reply":
		return true
	}
	return false
}
