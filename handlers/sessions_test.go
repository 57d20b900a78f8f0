package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/they-call-me-electronerd/Ai-Girlfriend/config"
	"github.com/they-call-me-electronerd/Ai-Girlfriend/database"
	"github.com/they-call-me-electronerd/Ai-Girlfriend/models"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.ChatSession{}, &models.Message{}, &models.ClientState{}))
	database.DB = db
}

func setupSessionsRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	setupTestDB(t)

	h := NewSessionsHandler(&config.Config{})
	r := gin.New()
	r.GET("/api/sessions", h.List)
	r.POST("/api/sessions", h.Create)
	r.GET("/api/sessions/:id/messages", h.Messages)
	r.DELETE("/api/sessions/:id", h.Delete)
	return r
}

func TestCreateSessionDefaultsTitle(t *testing.T) {
	r := setupSessionsRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var session models.ChatSession
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))
	assert.Equal(t, models.DefaultTitle, session.Title)
	assert.NotEqual(t, uuid.Nil, session.ID)
}

func TestCreateSessionWithTitle(t *testing.T) {
	r := setupSessionsRouter(t)

	body := bytes.NewBufferString(`{"title":"plans for tonight 💕"}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", body)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var session models.ChatSession
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))
	assert.Equal(t, "plans for tonight 💕", session.Title)
}

func TestListSessionsOrderedByActivity(t *testing.T) {
	r := setupSessionsRouter(t)

	older := models.ChatSession{Title: "older"}
	require.NoError(t, database.DB.Create(&older).Error)
	newer := models.ChatSession{Title: "newer"}
	require.NoError(t, database.DB.Create(&newer).Error)
	require.NoError(t, database.DB.Model(&older).
		Update("updated_at", time.Now().Add(time.Hour)).Error)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var sessions []models.ChatSession
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sessions))
	require.Len(t, sessions, 2)
	assert.Equal(t, "older", sessions[0].Title, "most recently touched first")
}

func TestSessionMessagesInSendOrder(t *testing.T) {
	r := setupSessionsRouter(t)

	session := models.ChatSession{}
	require.NoError(t, database.DB.Create(&session).Error)

	base := time.Now().UTC()
	second := models.Message{SessionID: session.ID, Role: models.RoleAssistant, Content: "second"}
	require.NoError(t, database.DB.Create(&second).Error)
	require.NoError(t, database.DB.Model(&second).Update("timestamp", base.Add(time.Minute)).Error)
	first := models.Message{SessionID: session.ID, Role: models.RoleUser, Content: "first"}
	require.NoError(t, database.DB.Create(&first).Error)
	require.NoError(t, database.DB.Model(&first).Update("timestamp", base).Error)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sessions/"+session.ID.String()+"/messages", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var messages []models.Message
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &messages))
	require.Len(t, messages, 2)
	assert.Equal(t, "first", messages[0].Content)
	assert.Equal(t, "second", messages[1].Content)
}

func TestSessionMessagesRejectsBadID(t *testing.T) {
	r := setupSessionsRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sessions/not-a-uuid/messages", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteSessionRemovesMessages(t *testing.T) {
	r := setupSessionsRouter(t)

	session := models.ChatSession{}
	require.NoError(t, database.DB.Create(&session).Error)
	msg := models.Message{SessionID: session.ID, Role: models.RoleUser, Content: "bye"}
	require.NoError(t, database.DB.Create(&msg).Error)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/sessions/"+session.ID.String(), nil))

	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	database.DB.Model(&models.Message{}).Where("session_id = ?", session.ID).Count(&count)
	assert.Zero(t, count)
}

func TestDeleteUnknownSessionIs404(t *testing.T) {
	r := setupSessionsRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/sessions/"+uuid.NewString(), nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
