package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/they-call-me-electronerd/Ai-Girlfriend/config"
	"github.com/they-call-me-electronerd/Ai-Girlfriend/database"
)

// SyncHandler relays session change events from Redis pub/sub to
// connected clients, so a second device sees list changes live.
type SyncHandler struct {
	cfg *config.Config
}

func NewSyncHandler(cfg *config.Config) *SyncHandler {
	return &SyncHandler{cfg: cfg}
}

func (h *SyncHandler) HandleWebSocket(c *gin.Context) {
	upgrader := newUpgrader(h.cfg)
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Msg("sync upgrade failed")
		return
	}
	defer conn.Close()

	if database.RDB == nil {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "sync unavailable"))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubsub := database.RDB.Subscribe(ctx, eventsChannel)
	defer pubsub.Close()

	// Ping/pong keepalive
	conn.SetReadDeadline(time.Now().Add(45 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(45 * time.Second))
		return nil
	})

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
					cancel()
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	// Redis -> WS: forward pub/sub messages to the client
	go func() {
		ch := pubsub.Channel()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					cancel()
					return
				}
				if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
					cancel()
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	// Keep the read loop alive to detect disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	log.Debug().Msg("sync client disconnected")
}
