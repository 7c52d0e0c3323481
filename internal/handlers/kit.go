package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bastionmc/kitsync/internal/logger"
	"github.com/bastionmc/kitsync/internal/platform/apierr"
	"github.com/bastionmc/kitsync/internal/services"
	"github.com/bastionmc/kitsync/internal/types"
)

type KitHandler struct {
	log        *logger.Logger
	kitService services.KitService
	cache      *services.OnlineKitCache
}

func NewKitHandler(log *logger.Logger, kitService services.KitService, cache *services.OnlineKitCache) *KitHandler {
	return &KitHandler{
		log:        log.With("handler", "KitHandler"),
		kitService: kitService,
		cache:      cache,
	}
}

func parsePlayerID(c *gin.Context, param string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil || id == 0 {
		respondServiceError(c, apierr.BadRequest("invalid_player_id", err))
		return 0, false
	}
	return id, true
}

func (kh *KitHandler) GetKit(c *gin.Context) {
	kit, ok := kh.cache.Get(c.Param("name"))
	if !ok {
		respondServiceError(c, apierr.NotFound("kit_not_found", services.ErrKitNotFound))
		return
	}
	RespondOK(c, gin.H{"kit": kit})
}

func (kh *KitHandler) ListForPlayer(c *gin.Context) {
	playerID, ok := parsePlayerID(c, "id")
	if !ok {
		return
	}
	kits, err := kh.kitService.ListForPlayer(c.Request.Context(), playerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"kits": kits})
}

func (kh *KitHandler) CanUse(c *gin.Context) {
	playerID, ok := parsePlayerID(c, "id")
	if !ok {
		return
	}
	allowed, err := kh.kitService.CanUse(c.Request.Context(), playerID, c.Param("name"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"allowed": allowed})
}

func (kh *KitHandler) Equip(c *gin.Context) {
	playerID, ok := parsePlayerID(c, "id")
	if !ok {
		return
	}
	var body struct {
		Kit string `json:"kit" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if err := kh.kitService.Equip(c.Request.Context(), playerID, body.Kit); err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"equipped": body.Kit})
}

func (kh *KitHandler) Unequip(c *gin.Context) {
	playerID, ok := parsePlayerID(c, "id")
	if !ok {
		return
	}
	if err := kh.kitService.Unequip(c.Request.Context(), playerID); err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"equipped": nil})
}

func (kh *KitHandler) UpsertKit(c *gin.Context) {
	var kit types.Kit
	if err := c.ShouldBindJSON(&kit); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if err := kh.kitService.UpsertKit(c.Request.Context(), &kit); err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"kit": kit})
}

func (kh *KitHandler) Reload(c *gin.Context) {
	// Reload can outlive an impatient admin client.
	ctx := context.WithoutCancel(c.Request.Context())
	if err := kh.cache.Reload(ctx); err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"kits": kh.cache.Len()})
}
