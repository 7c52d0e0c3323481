package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/bastionmc/kitsync/internal/services"
)

type FavoriteHandler struct {
	favoriteService services.KitFavoriteService
}

func NewFavoriteHandler(favoriteService services.KitFavoriteService) *FavoriteHandler {
	return &FavoriteHandler{favoriteService: favoriteService}
}

func (fh *FavoriteHandler) Get(c *gin.Context) {
	playerID, ok := parsePlayerID(c, "id")
	if !ok {
		return
	}
	kitID, ok := parseKitID(c)
	if !ok {
		return
	}
	fav, err := fh.favoriteService.IsFavorited(c.Request.Context(), playerID, kitID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"favorited": fav})
}

func (fh *FavoriteHandler) Add(c *gin.Context) {
	playerID, ok := parsePlayerID(c, "id")
	if !ok {
		return
	}
	kitID, ok := parseKitID(c)
	if !ok {
		return
	}
	changed, err := fh.favoriteService.AddFavorite(c.Request.Context(), playerID, kitID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"changed": changed})
}

func (fh *FavoriteHandler) Remove(c *gin.Context) {
	playerID, ok := parsePlayerID(c, "id")
	if !ok {
		return
	}
	kitID, ok := parseKitID(c)
	if !ok {
		return
	}
	changed, err := fh.favoriteService.RemoveFavorite(c.Request.Context(), playerID, kitID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"changed": changed})
}
