package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/they-call-me-electronerd/Ai-Girlfriend/models"
)

func TestTransportCreateSession(t *testing.T) {
	want := models.ChatSession{ID: uuid.New(), Title: "Chat with Mira 💕"}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/sessions", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, want.Title, req["title"])

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(want)
	}))
	defer srv.Close()

	got, err := NewTransport(srv.URL).CreateSession(context.Background(), want.Title)
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Title, got.Title)
}

func TestTransportPostChatTurn(t *testing.T) {
	sessionID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, sessionID.String(), req["session_id"])
		assert.Equal(t, "hello", req["content"])

		json.NewEncoder(w).Encode(ChatTurn{
			UserMessage:      models.Message{ID: uuid.New(), SessionID: sessionID, Role: models.RoleUser, Content: "hello"},
			AssistantMessage: models.Message{ID: uuid.New(), SessionID: sessionID, Role: models.RoleAssistant, Content: "hi~"},
		})
	}))
	defer srv.Close()

	turn, err := NewTransport(srv.URL).PostChatTurn(context.Background(), sessionID, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", turn.UserMessage.Content)
	assert.Equal(t, "hi~", turn.AssistantMessage.Content)
}

func TestTransportReportsServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"Session not found"}`))
	}))
	defer srv.Close()

	_, err := NewTransport(srv.URL).ListMessages(context.Background(), uuid.New())
	require.Error(t, err)

	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, http.StatusNotFound, terr.StatusCode)
	assert.Equal(t, "list messages", terr.Op)
}

func TestTransportDeleteSession(t *testing.T) {
	sessionID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/sessions/"+sessionID.String(), r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"message": "Session deleted"})
	}))
	defer srv.Close()

	require.NoError(t, NewTransport(srv.URL).DeleteSession(context.Background(), sessionID))
}

func TestTransportNetworkErrorWrapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	_, err := NewTransport(srv.URL).ListSessions(context.Background())
	require.Error(t, err)
	var terr *TransportError
	assert.False(t, errors.As(err, &terr), "network failures are not TransportErrors")
}
