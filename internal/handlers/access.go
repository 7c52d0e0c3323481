package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bastionmc/kitsync/internal/platform/apierr"
	"github.com/bastionmc/kitsync/internal/services"
	"github.com/bastionmc/kitsync/internal/types"
)

type AccessHandler struct {
	accessService services.KitAccessService
}

func NewAccessHandler(accessService services.KitAccessService) *AccessHandler {
	return &AccessHandler{accessService: accessService}
}

func parseKitID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("kit"), 10, 64)
	if err != nil || id <= 0 {
		respondServiceError(c, apierr.BadRequest("invalid_kit_id", err))
		return 0, false
	}
	return id, true
}

func (ah *AccessHandler) GetAccess(c *gin.Context) {
	playerID, ok := parsePlayerID(c, "id")
	if !ok {
		return
	}
	kitID, ok := parseKitID(c)
	if !ok {
		return
	}
	row, err := ah.accessService.GetAccess(c.Request.Context(), playerID, kitID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"access": row})
}

func (ah *AccessHandler) Grant(c *gin.Context) {
	playerID, ok := parsePlayerID(c, "id")
	if !ok {
		return
	}
	kitID, ok := parseKitID(c)
	if !ok {
		return
	}
	var body struct {
		Reason types.AccessReason `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	switch body.Reason {
	case types.AccessReasonPurchase, types.AccessReasonAdmin, types.AccessReasonUnlock:
	default:
		RespondError(c, http.StatusBadRequest, "invalid_reason", nil)
		return
	}
	changed, err := ah.accessService.SetAccess(c.Request.Context(), playerID, kitID, &body.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"changed": changed})
}

func (ah *AccessHandler) Revoke(c *gin.Context) {
	playerID, ok := parsePlayerID(c, "id")
	if !ok {
		return
	}
	kitID, ok := parseKitID(c)
	if !ok {
		return
	}
	changed, err := ah.accessService.SetAccess(c.Request.Context(), playerID, kitID, nil)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"changed": changed})
}
