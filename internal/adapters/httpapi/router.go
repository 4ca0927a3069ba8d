package httpapi

import (
	"context"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/wordpan/wordpan/internal/adapters/view"
	"github.com/wordpan/wordpan/internal/config"
)

func genClientToken() string {
	return uuid.NewString()
}

// ClientTokenMiddleware pins a stable client token to the browser so the
// hub can find the same session composer across reconnects.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, api *API, viewCtl *view.ViewWSController) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("WordPanSessions", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})
	// The two game modes are plain pages; all state flows over the ws bridge.
	r.GET("/word-game", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/word-game.html")
	})
	r.GET("/battle", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/battle.html")
	})

	log.Info().Str("module", "adapters.httpapi").Str("static", cfg.StaticPath).Msg("router setup")

	apiGroup := r.Group("/api")

	apiGroup.GET("/healthz", api.handleHealth)
	apiGroup.GET("/connection-details", api.handleConnectionDetails)
	apiGroup.GET("/words", api.handleWords)

	apiGroup.GET("/ws/view", func(c *gin.Context) {
		log.Info().Str("module", "adapters.httpapi").Str("sid", c.GetString("client_token")).Msg("ws view endpoint hit")
		viewCtl.HandleView(ctx, c)
	})

	return r
}
