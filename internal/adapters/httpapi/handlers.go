package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/wordpan/wordpan/internal/adapters/token"
	"github.com/wordpan/wordpan/internal/core"
	"github.com/wordpan/wordpan/internal/domain"
)

const defaultWordLimit = 50

// API bundles the request/response endpoints that sit beside the ws bridge.
type API struct {
	Minter     token.Minter
	RoomPrefix string
	Words      core.WordSource
}

func NewAPI(minter token.Minter, roomPrefix string, words core.WordSource) *API {
	return &API{Minter: minter, RoomPrefix: roomPrefix, Words: words}
}

func (a *API) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"word_store": a.Words.Available(),
	})
}

// handleConnectionDetails mints a fresh room and join token for clients
// that talk to the platform directly instead of through the ws bridge.
func (a *API) handleConnectionDetails(c *gin.Context) {
	identity := c.GetString("client_token")
	name := c.DefaultQuery("name", "player")
	player, err := domain.NewPlayer(name)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if identity == "" {
		identity = string(player.ID)
	}

	details, err := a.Minter.Mint(identity, player.DisplayName, token.NewRoomName(a.RoomPrefix))
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.httpapi").Msg("mint connection details")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue connection details"})
		return
	}
	c.JSON(http.StatusOK, details)
}

// handleWords previews the vocabulary for a language so the UI can show
// what the agent will quiz on.
func (a *API) handleWords(c *gin.Context) {
	lang, err := domain.ParseLanguage(c.Query("language"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	limit := defaultWordLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	pairs, err := a.Words.WordPairs(c.Request.Context(), lang, limit)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.httpapi").Str("language", lang.String()).Msg("word lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "word lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"language": lang,
		"count":    len(pairs),
		"words":    pairs,
	})
}
