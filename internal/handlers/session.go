package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bastionmc/kitsync/internal/logger"
	"github.com/bastionmc/kitsync/internal/services"
	"github.com/bastionmc/kitsync/internal/sessions"
)

// SessionHandler is the bridge the game gateway calls on join and leave.
type SessionHandler struct {
	log        *logger.Logger
	kitService services.KitService
	hub        *sessions.Hub
}

func NewSessionHandler(log *logger.Logger, kitService services.KitService, hub *sessions.Hub) *SessionHandler {
	return &SessionHandler{
		log:        log.With("handler", "SessionHandler"),
		kitService: kitService,
		hub:        hub,
	}
}

func (sh *SessionHandler) Connect(c *gin.Context) {
	playerID, ok := parsePlayerID(c, "id")
	if !ok {
		return
	}
	sess, err := sh.kitService.HandleConnect(c.Request.Context(), playerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	sh.log.Info("Player connected", "playerID", playerID, "session", sess.ID)
	RespondOK(c, gin.H{"session": sess.ID, "player_id": playerID})
}

func (sh *SessionHandler) Disconnect(c *gin.Context) {
	playerID, ok := parsePlayerID(c, "id")
	if !ok {
		return
	}
	sh.kitService.HandleDisconnect(c.Request.Context(), playerID)
	RespondOK(c, gin.H{"player_id": playerID})
}

func (sh *SessionHandler) Online(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"players": sh.hub.OnlineIDs(), "count": sh.hub.Count()})
}
