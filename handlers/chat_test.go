package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/they-call-me-electronerd/Ai-Girlfriend/config"
	"github.com/they-call-me-electronerd/Ai-Girlfriend/database"
	"github.com/they-call-me-electronerd/Ai-Girlfriend/models"
)

type cannedResponder struct {
	reply       string
	err         error
	lastHistory []models.Message
}

func (c *cannedResponder) Reply(_ context.Context, history []models.Message, content string) (string, error) {
	c.lastHistory = history
	if c.err != nil {
		return "", c.err
	}
	return c.reply, nil
}

func (c *cannedResponder) StreamReply(ctx context.Context, history []models.Message, content string, onDelta func(string)) (string, error) {
	reply, err := c.Reply(ctx, history, content)
	if err == nil && onDelta != nil {
		onDelta(reply)
	}
	return reply, err
}

func setupChatRouter(t *testing.T, responder *cannedResponder) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	setupTestDB(t)

	h := NewChatHandler(&config.Config{}, responder)
	r := gin.New()
	r.POST("/api/chat", h.Send)
	return r
}

func postChat(r *gin.Engine, sessionID uuid.UUID, content string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(map[string]string{
		"session_id": sessionID.String(),
		"content":    content,
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestChatTurnPersistsBothMessages(t *testing.T) {
	r := setupChatRouter(t, &cannedResponder{reply: "aww, hi sweetie~ 💕"})

	session := models.ChatSession{}
	require.NoError(t, database.DB.Create(&session).Error)

	w := postChat(r, session.ID, "hi mira")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		UserMessage      models.Message `json:"user_message"`
		AssistantMessage models.Message `json:"assistant_message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.RoleUser, resp.UserMessage.Role)
	assert.Equal(t, "hi mira", resp.UserMessage.Content)
	assert.Equal(t, models.RoleAssistant, resp.AssistantMessage.Role)
	assert.Equal(t, "aww, hi sweetie~ 💕", resp.AssistantMessage.Content)

	var count int64
	database.DB.Model(&models.Message{}).Where("session_id = ?", session.ID).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestChatTurnBumpsSessionActivity(t *testing.T) {
	r := setupChatRouter(t, &cannedResponder{reply: "nya~"})

	session := models.ChatSession{}
	require.NoError(t, database.DB.Create(&session).Error)
	stale := time.Now().Add(-time.Hour)
	require.NoError(t, database.DB.Model(&session).Update("updated_at", stale).Error)

	w := postChat(r, session.ID, "ping")
	require.Equal(t, http.StatusOK, w.Code)

	var got models.ChatSession
	require.NoError(t, database.DB.First(&got, "id = ?", session.ID).Error)
	assert.True(t, got.UpdatedAt.After(stale))
}

func TestChatTurnUnknownSessionIs404(t *testing.T) {
	r := setupChatRouter(t, &cannedResponder{reply: "unused"})

	w := postChat(r, uuid.New(), "hello?")
	assert.Equal(t, http.StatusNotFound, w.Code)

	var count int64
	database.DB.Model(&models.Message{}).Count(&count)
	assert.Zero(t, count, "nothing is persisted for an unknown session")
}

func TestChatTurnResponderFailureIs500(t *testing.T) {
	r := setupChatRouter(t, &cannedResponder{err: errors.New("model offline")})

	session := models.ChatSession{}
	require.NoError(t, database.DB.Create(&session).Error)

	w := postChat(r, session.ID, "anyone there?")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	// The user message stays on record even when the reply fails.
	var count int64
	database.DB.Model(&models.Message{}).Where("session_id = ?", session.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestChatTurnHistoryExcludesCurrentMessage(t *testing.T) {
	responder := &cannedResponder{reply: "of course~"}
	r := setupChatRouter(t, responder)

	session := models.ChatSession{}
	require.NoError(t, database.DB.Create(&session).Error)
	prior := models.Message{SessionID: session.ID, Role: models.RoleUser, Content: "earlier"}
	require.NoError(t, database.DB.Create(&prior).Error)

	w := postChat(r, session.ID, "remember me?")
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, responder.lastHistory, 1)
	assert.Equal(t, "earlier", responder.lastHistory[0].Content)
}

func TestChatTurnRejectsMalformedBody(t *testing.T) {
	r := setupChatRouter(t, &cannedResponder{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBufferString(`{"content":""}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
