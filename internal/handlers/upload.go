package handlers

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"printshop-assistant/internal/models"
	"printshop-assistant/internal/services"
)

var allowedDesignExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".svg":  true,
	".pdf":  true,
}

type UploadHandler struct {
	conversation *services.ConversationService
}

func NewUploadHandler(conversation *services.ConversationService) *UploadHandler {
	return &UploadHandler{conversation: conversation}
}

// UploadDesign accepts one artwork file for the session's order.
// Optional form fields: side ("front"/"back", default "front") and
// has_logo ("true" when the file contains the customer's logo).
func (h *UploadHandler) UploadDesign(c *gin.Context) {
	sessionID := c.Param("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "session id is required"})
		return
	}

	// 16MB is plenty for print artwork.
	if err := c.Request.ParseMultipartForm(16 << 20); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to parse multipart form",
			Message: err.Error(),
		})
		return
	}

	fileHeader, err := c.FormFile("design")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "design file is required"})
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedDesignExtensions[ext] {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "unsupported file type",
			Message: "accepted types: png, jpg, jpeg, svg, pdf",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to open uploaded file",
			Message: err.Error(),
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to read uploaded file",
			Message: err.Error(),
		})
		return
	}

	side := c.PostForm("side")
	if side != "back" {
		side = "front"
	}
	hasLogo := strings.EqualFold(c.PostForm("has_logo"), "true")

	resp, err := h.conversation.RecordDesignUpload(
		c.Request.Context(), sessionID, fileHeader.Filename, strings.TrimPrefix(ext, "."), side, hasLogo, data)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to store design",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}
