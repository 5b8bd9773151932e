package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"printshop-assistant/internal/models"
	"printshop-assistant/internal/services"
)

type SessionHandler struct {
	conversation *services.ConversationService
}

func NewSessionHandler(conversation *services.ConversationService) *SessionHandler {
	return &SessionHandler{conversation: conversation}
}

// GetOrder returns the current order state for the session.
func (h *SessionHandler) GetOrder(c *gin.Context) {
	sessionID := c.Param("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "session id is required"})
		return
	}

	c.JSON(http.StatusOK, models.OrderSnapshotResponse{
		SessionID: sessionID,
		Order:     h.conversation.GetOrderSnapshot(c.Request.Context(), sessionID),
	})
}

// Reset discards the session's conversation, order state and any
// uploaded design files.
func (h *SessionHandler) Reset(c *gin.Context) {
	sessionID := c.Param("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "session id is required"})
		return
	}

	h.conversation.ResetSession(c.Request.Context(), sessionID)
	c.JSON(http.StatusOK, models.ResetResponse{
		SessionID: sessionID,
		Message:   "session reset",
	})
}
