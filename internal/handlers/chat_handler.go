package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/medconnect-api/internal/models"
)

// SendMessageRequest is the body of POST /messages. VideoData is only read
// for video-offer messages.
type SendMessageRequest struct {
	ReceiverID string             `json:"receiverId" binding:"required"`
	Content    string             `json:"content"`
	Type       models.MessageType `json:"type"`
	VideoData  *models.VideoOffer `json:"videoData"`
}

func (h *Handler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	msg, err := h.Svc.SendMessage(c.Request.Context(), callerID(c), req.ReceiverID, req.Content, req.Type, req.VideoData)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// GetConversation returns the caller's messages with ?with=, oldest first.
func (h *Handler) GetConversation(c *gin.Context) {
	other := c.Query("with")
	if other == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'with' is required"})
		return
	}

	msgs, err := h.Svc.Conversation(c.Request.Context(), callerID(c), other)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}
