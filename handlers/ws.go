package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/they-call-me-electronerd/Ai-Girlfriend/config"
)

// newUpgrader gates websocket upgrades with the same origin allow-list
// the CORS middleware uses.
func newUpgrader(cfg *config.Config) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return cfg.OriginAllowed(r.Header.Get("Origin"))
		},
	}
}
