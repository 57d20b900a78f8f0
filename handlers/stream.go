package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/they-call-me-electronerd/Ai-Girlfriend/database"
	"github.com/they-call-me-electronerd/Ai-Girlfriend/models"
)

type wsClientMessage struct {
	Type    string `json:"type"`    // "message" | "cancel"
	Content string `json:"content"` // user message text
}

type wsServerMessage struct {
	Type    string `json:"type"` // "stream" | "complete" | "error"
	Data    string `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// inflightTurns tracks the one in-progress turn allowed per session.
type inflightTurns struct {
	mu      sync.Mutex
	cancels map[uuid.UUID]context.CancelFunc
}

func newInflightTurns() *inflightTurns {
	return &inflightTurns{cancels: make(map[uuid.UUID]context.CancelFunc)}
}

func (t *inflightTurns) start(id uuid.UUID, cancel context.CancelFunc) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, running := t.cancels[id]; running {
		return false
	}
	t.cancels[id] = cancel
	return true
}

func (t *inflightTurns) finish(id uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.cancels, id)
}

func (t *inflightTurns) cancel(id uuid.UUID) {
	t.mu.Lock()
	cancel := t.cancels[id]
	t.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// HandleWebSocket streams assistant replies for one session over a
// WebSocket: {"type":"message","content":...} in, stream/complete/error
// frames out.
func (h *ChatHandler) HandleWebSocket(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session id"})
		return
	}

	var session models.ChatSession
	if err := database.DB.Where("id = ?", sessionID).First(&session).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	upgrader := newUpgrader(h.cfg)
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	var writeMu sync.Mutex
	send := func(msg wsServerMessage) {
		writeMu.Lock()
		defer writeMu.Unlock()
		data, _ := json.Marshal(msg)
		conn.WriteMessage(websocket.TextMessage, data)
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("websocket read failed")
			}
			break
		}

		var msg wsClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			send(wsServerMessage{Type: "error", Message: "Invalid message format"})
			continue
		}

		switch msg.Type {
		case "message":
			h.handleStreamTurn(&session, msg.Content, send)
		case "cancel":
			h.inflight.cancel(session.ID)
		default:
			send(wsServerMessage{Type: "error", Message: "Unknown message type"})
		}
	}
}

func (h *ChatHandler) handleStreamTurn(session *models.ChatSession, content string, send func(wsServerMessage)) {
	ctx, cancel := context.WithCancel(context.Background())
	if !h.inflight.start(session.ID, cancel) {
		cancel()
		send(wsServerMessage{Type: "error", Message: "Mira is already replying"})
		return
	}

	var history []models.Message
	database.DB.Where("session_id = ?", session.ID).
		Order("timestamp ASC").
		Find(&history)

	userMsg := models.Message{
		SessionID: session.ID,
		Role:      models.RoleUser,
		Content:   content,
	}
	database.DB.Create(&userMsg)
	database.DB.Model(session).Update("updated_at", time.Now())

	go func() {
		reply, err := h.responder.StreamReply(ctx, history, content, func(delta string) {
			send(wsServerMessage{Type: "stream", Data: delta})
		})
		if err != nil {
			h.inflight.finish(session.ID)
			cancel()
			send(wsServerMessage{Type: "error", Message: "Chat error: " + err.Error()})
			return
		}

		assistantMsg := models.Message{
			SessionID: session.ID,
			Role:      models.RoleAssistant,
			Content:   reply,
		}
		database.DB.Create(&assistantMsg)

		// First turn names the session after the message.
		if session.Title == models.DefaultTitle {
			session.Title = models.DeriveTitle(content)
			database.DB.Model(session).Update("title", session.Title)
		}

		publishSessionEvent("updated", session.ID)

		// Free the turn slot before announcing completion, so a client
		// reacting to the frame is never spuriously rejected.
		h.inflight.finish(session.ID)
		cancel()
		send(wsServerMessage{Type: "complete"})
	}()
}
