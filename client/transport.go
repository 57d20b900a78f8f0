package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/they-call-me-electronerd/Ai-Girlfriend/models"
)

// API is the backend surface the conversation controller depends on.
type API interface {
	ListSessions(ctx context.Context) ([]models.ChatSession, error)
	CreateSession(ctx context.Context, title string) (models.ChatSession, error)
	ListMessages(ctx context.Context, sessionID uuid.UUID) ([]models.Message, error)
	PostChatTurn(ctx context.Context, sessionID uuid.UUID, content string) (ChatTurn, error)
	DeleteSession(ctx context.Context, sessionID uuid.UUID) error
}

// ChatTurn is the confirmed result of one chat round-trip.
type ChatTurn struct {
	UserMessage      models.Message `json:"user_message"`
	AssistantMessage models.Message `json:"assistant_message"`
}

// TransportError reports a non-2xx backend response.
type TransportError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: backend returned %d: %s", e.Op, e.StatusCode, e.Body)
}

// Transport talks to the Mira backend over HTTP. No business logic,
// no retries — failures are reported to the controller as-is.
type Transport struct {
	baseURL string
	http    *http.Client
}

func NewTransport(baseURL string) *Transport {
	return &Transport{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

func (t *Transport) ListSessions(ctx context.Context) ([]models.ChatSession, error) {
	var sessions []models.ChatSession
	if err := t.do(ctx, "list sessions", http.MethodGet, "/api/sessions", nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (t *Transport) CreateSession(ctx context.Context, title string) (models.ChatSession, error) {
	req := map[string]string{"title": title}
	var session models.ChatSession
	if err := t.do(ctx, "create session", http.MethodPost, "/api/sessions", req, &session); err != nil {
		return models.ChatSession{}, err
	}
	return session, nil
}

func (t *Transport) ListMessages(ctx context.Context, sessionID uuid.UUID) ([]models.Message, error) {
	var messages []models.Message
	path := "/api/sessions/" + sessionID.String() + "/messages"
	if err := t.do(ctx, "list messages", http.MethodGet, path, nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (t *Transport) PostChatTurn(ctx context.Context, sessionID uuid.UUID, content string) (ChatTurn, error) {
	req := map[string]string{
		"session_id": sessionID.String(),
		"content":    content,
	}
	var turn ChatTurn
	if err := t.do(ctx, "post chat turn", http.MethodPost, "/api/chat", req, &turn); err != nil {
		return ChatTurn{}, err
	}
	return turn, nil
}

func (t *Transport) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	return t.do(ctx, "delete session", http.MethodDelete, "/api/sessions/"+sessionID.String(), nil, nil)
}

func (t *Transport) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "%s: encoding request", op)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, reader)
	if err != nil {
		return errors.Wrapf(err, "%s: building request", op)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.http.Do(req)
	if err != nil {
		return errors.Wrap(err, op)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(payload))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "%s: decoding response", op)
	}
	return nil
}
