package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/they-call-me-electronerd/Ai-Girlfriend/config"
	"github.com/they-call-me-electronerd/Ai-Girlfriend/database"
	"github.com/they-call-me-electronerd/Ai-Girlfriend/models"
)

type SessionsHandler struct {
	cfg *config.Config
}

func NewSessionsHandler(cfg *config.Config) *SessionsHandler {
	return &SessionsHandler{cfg: cfg}
}

type createSessionRequest struct {
	Title string `json:"title"`
}

// List returns all chat sessions, most recently touched first.
func (h *SessionsHandler) List(c *gin.Context) {
	sessions := make([]models.ChatSession, 0)
	database.DB.Order("updated_at DESC").Find(&sessions)
	c.JSON(http.StatusOK, sessions)
}

// Create creates a new chat session. An empty title falls back to the
// default placeholder.
func (h *SessionsHandler) Create(c *gin.Context) {
	var req createSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
	}

	session := models.ChatSession{Title: req.Title}
	if err := database.DB.Create(&session).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	publishSessionEvent("created", session.ID)
	c.JSON(http.StatusCreated, session)
}

// Messages returns a session's messages in send order.
func (h *SessionsHandler) Messages(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session id"})
		return
	}

	messages := make([]models.Message, 0)
	database.DB.Where("session_id = ?", sessionID).
		Order("timestamp ASC").
		Find(&messages)

	c.JSON(http.StatusOK, messages)
}

// Delete removes a session and all of its messages.
func (h *SessionsHandler) Delete(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session id"})
		return
	}

	result := database.DB.Where("id = ?", sessionID).Delete(&models.ChatSession{})
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	database.DB.Where("session_id = ?", sessionID).Delete(&models.Message{})

	publishSessionEvent("deleted", sessionID)
	c.JSON(http.StatusOK, gin.H{"message": "Session deleted"})
}
