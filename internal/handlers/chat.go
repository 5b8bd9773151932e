package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"printshop-assistant/internal/models"
	"printshop-assistant/internal/services"
)

type ChatHandler struct {
	conversation *services.ConversationService
}

func NewChatHandler(conversation *services.ConversationService) *ChatHandler {
	return &ChatHandler{conversation: conversation}
}

// PostMessage runs one conversational turn for the session.
func (h *ChatHandler) PostMessage(c *gin.Context) {
	sessionID := c.Param("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "session id is required"})
		return
	}

	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "message must not be empty"})
		return
	}

	resp := h.conversation.ProcessMessage(c.Request.Context(), sessionID, req.Message)
	c.JSON(http.StatusOK, resp)
}
