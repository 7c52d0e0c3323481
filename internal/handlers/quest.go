package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bastionmc/kitsync/internal/logger"
	"github.com/bastionmc/kitsync/internal/quests"
)

// QuestHandler receives completion callbacks from the quest system and feeds
// them into the dispatcher chain.
type QuestHandler struct {
	log        *logger.Logger
	dispatcher *quests.Dispatcher
	tracker    quests.Tracker
}

func NewQuestHandler(log *logger.Logger, dispatcher *quests.Dispatcher, tracker quests.Tracker) *QuestHandler {
	return &QuestHandler{
		log:        log.With("handler", "QuestHandler"),
		dispatcher: dispatcher,
		tracker:    tracker,
	}
}

// completionRecorder is satisfied by process-local trackers that hold the
// completion facts themselves instead of querying an external service.
type completionRecorder interface {
	MarkCompleted(playerID uint64, preset string)
}

func (qh *QuestHandler) Completed(c *gin.Context) {
	var body struct {
		PlayerID uint64 `json:"player_id" binding:"required"`
		Preset   string `json:"preset" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	if rec, ok := qh.tracker.(completionRecorder); ok {
		rec.MarkCompleted(body.PlayerID, body.Preset)
	}

	consumed := qh.dispatcher.Publish(c.Request.Context(), quests.CompletionEvent{
		PlayerID: body.PlayerID,
		Preset:   body.Preset,
	})
	qh.log.Info("Quest completion dispatched", "playerID", body.PlayerID, "preset", body.Preset, "consumed", consumed)
	RespondOK(c, gin.H{"consumed": consumed})
}
