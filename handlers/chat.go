package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/they-call-me-electronerd/Ai-Girlfriend/config"
	"github.com/they-call-me-electronerd/Ai-Girlfriend/database"
	"github.com/they-call-me-electronerd/Ai-Girlfriend/models"
	"github.com/they-call-me-electronerd/Ai-Girlfriend/services"
)

type ChatHandler struct {
	cfg       *config.Config
	responder services.Responder
	inflight  *inflightTurns
}

func NewChatHandler(cfg *config.Config, responder services.Responder) *ChatHandler {
	return &ChatHandler{
		cfg:       cfg,
		responder: responder,
		inflight:  newInflightTurns(),
	}
}

type chatRequest struct {
	SessionID uuid.UUID `json:"session_id" binding:"required"`
	Content   string    `json:"content" binding:"required"`
}

// Send handles one chat turn: persist the user message, ask the
// responder with the prior history, persist the reply, bump the
// session timestamp, and return both confirmed messages.
func (h *ChatHandler) Send(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var session models.ChatSession
	if err := database.DB.Where("id = ?", req.SessionID).First(&session).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	var history []models.Message
	database.DB.Where("session_id = ?", session.ID).
		Order("timestamp ASC").
		Find(&history)

	userMsg := models.Message{
		SessionID: session.ID,
		Role:      models.RoleUser,
		Content:   req.Content,
	}
	if err := database.DB.Create(&userMsg).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save message"})
		return
	}

	reply, err := h.responder.Reply(c.Request.Context(), history, req.Content)
	if err != nil {
		log.Error().Err(err).Str("session_id", session.ID.String()).Msg("responder failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Chat error: " + err.Error()})
		return
	}

	assistantMsg := models.Message{
		SessionID: session.ID,
		Role:      models.RoleAssistant,
		Content:   reply,
	}
	if err := database.DB.Create(&assistantMsg).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save message"})
		return
	}

	database.DB.Model(&session).Update("updated_at", time.Now())
	publishSessionEvent("updated", session.ID)

	c.JSON(http.StatusOK, gin.H{
		"user_message":      userMsg,
		"assistant_message": assistantMsg,
	})
}
