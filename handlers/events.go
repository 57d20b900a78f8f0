package handlers

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/they-call-me-electronerd/Ai-Girlfriend/database"
)

// eventsChannel carries session change notifications to other devices.
const eventsChannel = "mira:events"

// publishSessionEvent is best-effort: without Redis it does nothing.
func publishSessionEvent(action string, sessionID uuid.UUID) {
	if database.RDB == nil {
		return
	}

	event := map[string]string{
		"type":       "session_changed",
		"action":     action,
		"session_id": sessionID.String(),
	}
	data, _ := json.Marshal(event)
	database.RDB.Publish(context.Background(), eventsChannel, string(data))
}
